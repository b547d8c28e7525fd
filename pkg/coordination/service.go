package coordination

import (
	"encoding/json"
	"net/url"

	"github.com/appltini/app-mesh/pkg/log"
	"github.com/rs/zerolog"
)

// ServiceCheck describes the HTTP health check attached to a registered
// service (spec.md §4.7 registerService).
type ServiceCheck struct {
	HTTP          string `json:"HTTP"`
	Interval      string `json:"Interval"`
	Timeout       string `json:"Timeout"`
	Method        string `json:"Method"`
	TLSSkipVerify bool   `json:"TLSSkipVerify"`
}

type serviceRegistration struct {
	ID      string        `json:"ID"`
	Name    string        `json:"Name"`
	Address string        `json:"Address"`
	Port    int           `json:"Port"`
	Check   *ServiceCheck `json:"Check,omitempty"`
}

// ServiceCatalog wraps the coordination store's agent-service
// register/deregister API (spec.md §4.7, §6 "Service catalog paths").
type ServiceCatalog struct {
	client *Client
	logger zerolog.Logger
}

// NewServiceCatalog constructs a ServiceCatalog.
func NewServiceCatalog(client *Client) *ServiceCatalog {
	return &ServiceCatalog{client: client, logger: log.WithComponent("coordination.service")}
}

// Register publishes a health-checked service entry for (host, name) at
// port, probing proxyURL + "/appmesh/app/<name>/health". Skipped if
// port == 0 (spec.md §4.7).
func (sc *ServiceCatalog) Register(host, name string, port int, proxyURL string) error {
	if port == 0 {
		return nil
	}

	reg := serviceRegistration{
		ID:      host + ":" + name,
		Name:    name,
		Address: host,
		Port:    port,
		Check: &ServiceCheck{
			HTTP:          proxyURL + "/appmesh/app/" + name + "/health",
			Interval:      "15s",
			Timeout:       "5s",
			Method:        "GET",
			TLSSkipVerify: true,
		},
	}

	body, err := json.Marshal(reg)
	if err != nil {
		return protocolf("service.Register", err)
	}

	query := url.Values{}
	query.Set("replace-existing-checks", "true")

	status, _, err := sc.client.Put("agent/service/register", query, body)
	if err != nil || !Success(status) {
		return transientf("service.Register", "register %s: status=%d err=%v", reg.ID, status, err)
	}
	sc.logger.Debug().Str("service_id", reg.ID).Msg("service registered")
	return nil
}

// Deregister removes a previously registered service entry for
// (host, name).
func (sc *ServiceCatalog) Deregister(host, name string) error {
	id := host + ":" + name
	status, _, err := sc.client.Put(pathf("agent/service/deregister/%s", id), nil, nil)
	if err != nil || !Success(status) {
		return transientf("service.Deregister", "deregister %s: status=%d err=%v", id, status, err)
	}
	sc.logger.Debug().Str("service_id", id).Msg("service deregistered")
	return nil
}
