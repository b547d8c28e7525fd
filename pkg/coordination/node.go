package coordination

import (
	"encoding/json"
	"net/url"

	"github.com/appltini/app-mesh/pkg/log"
	"github.com/appltini/app-mesh/pkg/types"
	"github.com/rs/zerolog"
)

type nodeDocument struct {
	Appmesh  string             `json:"appmesh"`
	Label    types.Label        `json:"label"`
	Resource types.NodeResource `json:"resource"`
}

// NodeReporter publishes this node's descriptor under
// cluster/nodes/<host>, guarded by the agent's session so the key
// disappears (ephemeral semantics) when the session expires (spec.md
// §2 Node Reporter, §6).
type NodeReporter struct {
	client   *Client
	sessions *SessionManager
	host     string
	logger   zerolog.Logger
}

// NewNodeReporter constructs a NodeReporter.
func NewNodeReporter(client *Client, sessions *SessionManager, host string) *NodeReporter {
	return &NodeReporter{
		client:   client,
		sessions: sessions,
		host:     host,
		logger:   log.WithHost(host).With().Str("component", "coordination.node").Logger(),
	}
}

// Publish writes the node descriptor, acquired with the current
// session. Returns a *Precondition error if no session is held yet
// (spec.md §4.2 "no session" semantics).
func (nr *NodeReporter) Publish(node *types.Node) error {
	sessionID := nr.sessions.ID()
	if sessionID == "" {
		return precondition("node.Publish", "no session")
	}

	doc := nodeDocument{
		Appmesh: node.AppmeshProxyURL,
		Label:   node.Label,
		Resource: types.NodeResource{
			CPUCores:      node.Cores,
			MemTotalBytes: node.TotalBytes,
			MemFreeBytes:  node.FreeBytes,
		},
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return protocolf("node.Publish", err)
	}

	query := url.Values{}
	query.Set("acquire", sessionID)

	status, _, err := nr.client.Put(pathf("appmesh/cluster/nodes/%s", nr.host), query, body)
	if err != nil || !Success(status) {
		return transientf("node.Publish", "publish node %s: status=%d err=%v", nr.host, status, err)
	}
	return nil
}

// Remove deletes this node's descriptor explicitly (graceful offline, as
// opposed to passive removal via session expiry).
func (nr *NodeReporter) Remove() error {
	status, err := nr.client.Delete(pathf("appmesh/cluster/nodes/%s", nr.host), nil)
	if err != nil || !Success(status) {
		return transientf("node.Remove", "remove node %s: status=%d err=%v", nr.host, status, err)
	}
	return nil
}

// ListNodes fetches every published node under cluster/nodes (recursive
// GET), for the leader's scheduling snapshot (spec.md §4.5 input).
func (nr *NodeReporter) ListNodes() (map[string]*types.Node, error) {
	query := url.Values{}
	query.Set("recurse", "true")

	status, body, _, err := nr.client.Get("appmesh/cluster/nodes", query)
	if err != nil {
		return nil, transientf("node.ListNodes", "list nodes: %w", err)
	}
	if status == 404 {
		return map[string]*types.Node{}, nil
	}
	if !Success(status) {
		return nil, transientf("node.ListNodes", "list nodes: status=%d", status)
	}

	return decodeKVEntries(body, func(key string, value []byte) (*types.Node, error) {
		var doc nodeDocument
		if err := json.Unmarshal(value, &doc); err != nil {
			return nil, err
		}
		return &types.Node{
			HostName:        key,
			Label:           doc.Label,
			AppmeshProxyURL: doc.Appmesh,
			Cores:           doc.Resource.CPUCores,
			TotalBytes:      doc.Resource.MemTotalBytes,
			FreeBytes:       doc.Resource.MemFreeBytes,
		}, nil
	})
}
