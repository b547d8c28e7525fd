/*
Package topology implements the Topology Writer (spec.md §4.6): diffing
the previous and newly scheduled topologies and issuing the minimal set
of KV writes to converge the store, plus explicit host offlining.
*/
package topology

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/appltini/app-mesh/pkg/coordination"
	"github.com/appltini/app-mesh/pkg/log"
	"github.com/appltini/app-mesh/pkg/metrics"
	"github.com/appltini/app-mesh/pkg/types"
	"github.com/rs/zerolog"
)

// Writer diffs old vs. new topology and issues PUT/DELETE calls against
// the coordination store.
type Writer struct {
	client *coordination.Client
	logger zerolog.Logger
}

// NewWriter constructs a Writer.
func NewWriter(client *coordination.Client) *Writer {
	return &Writer{client: client, logger: log.WithComponent("topology.writer")}
}

// Write diffs oldTopology against newTopology and PUTs every host whose
// name set changed (new or different), and PUT-empties every host that
// dropped out of newTopology entirely. Equality is by name set only
// (spec.md §4.6; see types.Topology.EqualNameSet) so replica-index-only
// changes never cause a write. Returns the number of hosts written.
func (w *Writer) Write(oldTopology, newTopology map[string]*types.Topology) (int, error) {
	writes := 0

	for host, topo := range newTopology {
		prev, existed := oldTopology[host]
		if existed && topo.EqualNameSet(prev) {
			continue
		}
		if err := w.put(host, topo); err != nil {
			return writes, err
		}
		writes++
	}

	for host := range oldTopology {
		if _, stillPresent := newTopology[host]; stillPresent {
			continue
		}
		if err := w.put(host, types.NewTopology(host)); err != nil {
			return writes, err
		}
		writes++
	}

	return writes, nil
}

// OfflineHost removes a host's topology key outright via DELETE, for the
// deliberate-removal path (as opposed to the PUT-empty live-transition
// path Write uses). See spec.md §9 Open Question b.
func (w *Writer) OfflineHost(host string) error {
	status, err := w.client.Delete(path(host), nil)
	if err != nil || !coordination.Success(status) {
		w.logger.Warn().Str("host", host).Err(err).Int("status", status).Msg("failed to offline host topology")
		return err
	}
	return nil
}

func (w *Writer) put(host string, topo *types.Topology) error {
	body, err := json.Marshal(topo.MarshalEntries())
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("flags", strconv.FormatInt(time.Now().Unix(), 10))

	status, _, err := w.client.Put(path(host), query, body)
	if err == nil && !coordination.Success(status) {
		err = fmt.Errorf("put topology %s: status=%d", host, status)
	}
	if err != nil {
		w.logger.Warn().Str("host", host).Err(err).Int("status", status).Msg("failed to write topology")
		return err
	}
	metrics.TopologyWritesTotal.WithLabelValues(host).Inc()
	w.logger.Info().Str("host", host).Int("apps", len(topo.ScheduleApps)).Msg("topology written")
	return nil
}

func path(host string) string {
	return "appmesh/topology/" + host
}
