package coordination

import (
	"crypto/tls"
	"net/http"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
)

// defaultCallTimeout bounds every non-watch KV call.
const defaultCallTimeout = 5 * time.Second

// watchTimeout bounds a long-poll watch call; it must stay in sync with
// the wait= query parameter the watch engine appends (spec.md 4.1/4.3).
const watchTimeout = 30 * time.Second

// newTransport builds the *http.Client the KV client issues requests
// with. Certificate validation is disabled by design: the coordination
// store is addressed via an internal URL and TLS trust is delegated to
// the deployment, not to this client (spec.md 4.1). cleanhttp gives us a
// pooled, non-shared transport the way the rest of this codebase's
// ancestry (HashiCorp tooling) always does, rather than mutating
// http.DefaultTransport.
func newTransport(timeout time.Duration) *http.Client {
	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // deliberate, see doc comment
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
