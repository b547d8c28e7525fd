/*
Package securitysync implements Security Sync (spec.md §4.8): a single
writer publishes the base64-encoded security document under
appmesh/security, and every agent watches the key and reloads it on
change, rejecting any document that carries no users.
*/
package securitysync

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/appltini/app-mesh/pkg/coordination"
	"github.com/appltini/app-mesh/pkg/log"
	"github.com/appltini/app-mesh/pkg/metrics"
	"github.com/appltini/app-mesh/pkg/types"
	"github.com/rs/zerolog"
)

const securityPath = "appmesh/security"

// OnUpdate is invoked with a freshly fetched, non-empty security
// document whenever appmesh/security changes.
type OnUpdate func(doc *types.SecurityDocument)

// Sync watches the security key and fans out validated updates.
type Sync struct {
	client *coordination.Client
	onUp   OnUpdate
	logger zerolog.Logger
}

// New constructs a Sync. onUpdate is called at most once per observed
// change, and never with an empty document.
func New(client *coordination.Client, onUpdate OnUpdate) *Sync {
	return &Sync{
		client: client,
		onUp:   onUpdate,
		logger: log.WithComponent("securitysync"),
	}
}

// NewWatch builds the long-poll watch for appmesh/security, gated by
// enabled (spec.md §2 "security (all roles when security sync
// enabled)").
func (s *Sync) NewWatch(enabled func() bool) *coordination.Watch {
	return coordination.NewWatch(s.client, securityPath, false, enabled, s.onChange)
}

func (s *Sync) onChange(body []byte, index uint64) {
	var entries []struct {
		Value string `json:"Value"`
	}
	if err := json.Unmarshal(body, &entries); err != nil || len(entries) == 0 {
		s.logger.Warn().Err(err).Msg("security watch payload malformed, skipping")
		metrics.SecurityRejectionsTotal.WithLabelValues("malformed").Inc()
		return
	}

	raw, err := base64.StdEncoding.DecodeString(entries[0].Value)
	if err != nil {
		s.logger.Warn().Err(err).Msg("security document not valid base64, skipping")
		metrics.SecurityRejectionsTotal.WithLabelValues("malformed").Inc()
		return
	}

	doc := &types.SecurityDocument{Raw: raw, ModifyIndex: index}
	if !doc.HasUsers(json.Unmarshal) {
		s.logger.Warn().Msg("security document has no users, rejecting to prevent lockout")
		metrics.SecurityRejectionsTotal.WithLabelValues("no_users").Inc()
		return
	}

	metrics.SecurityUpdatesTotal.Inc()
	s.logger.Info().Uint64("index", index).Msg("security document updated")
	s.onUp(doc)
}

// SaveSecurity publishes a new security document. If checkExistence is
// true it first confirms the key is absent and refuses to overwrite an
// existing one (spec.md §4.8 "refuses to overwrite if checkExistence is
// true and the key already exists").
func (s *Sync) SaveSecurity(raw []byte, checkExistence bool) error {
	if checkExistence {
		status, _, _, err := s.client.Get(securityPath, nil)
		if err != nil {
			return err
		}
		if coordination.Success(status) {
			return &coordination.Precondition{Op: "securitysync.SaveSecurity", Reason: "key already exists"}
		}
	}

	status, _, err := s.client.Put(securityPath, nil, raw)
	if err != nil {
		return &coordination.Transient{Op: "securitysync.SaveSecurity", Err: err}
	}
	if !coordination.Success(status) {
		return &coordination.Transient{Op: "securitysync.SaveSecurity", Err: fmt.Errorf("status=%d", status)}
	}
	return nil
}
