package topology

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/appltini/app-mesh/pkg/coordination"
	"github.com/appltini/app-mesh/pkg/types"
)

// Reader fetches a single host's topology from the coordination store.
type Reader struct {
	client *coordination.Client
}

// NewReader constructs a Reader.
func NewReader(client *coordination.Client) *Reader {
	return &Reader{client: client}
}

// Get fetches topology/<host>. A 404 (key absent) is not an error: it
// yields an empty topology, matching spec.md §4.7 step 1 ("may be
// absent").
func (r *Reader) Get(host string) (*types.Topology, error) {
	query := url.Values{}
	query.Set("raw", "true")

	status, body, _, err := r.client.Get(path(host), query)
	if err != nil {
		return nil, err
	}
	if status == 404 {
		return types.NewTopology(host), nil
	}
	if !coordination.Success(status) {
		return nil, fmt.Errorf("get topology %s: status=%d", host, status)
	}

	var entries []types.ScheduledApp
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}

	topo := types.NewTopology(host)
	for _, e := range entries {
		topo.ScheduleApps[e.App] = e.Index
	}
	return topo, nil
}
