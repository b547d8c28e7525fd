package coordination

import (
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/appltini/app-mesh/pkg/log"
	"github.com/appltini/app-mesh/pkg/metrics"
	"github.com/rs/zerolog"
)

// backoffInterval is how long a watch sleeps after a store-unavailable
// iteration before retrying (spec.md §4.3 step 3).
const backoffInterval = 3 * time.Second

// OnChange is invoked synchronously whenever a watch observes an index
// advance. It receives the raw response body and the new index.
type OnChange func(body []byte, index uint64)

// Watch is a long-running long-poll loop bound to a single KV path.
// Three instances exist per agent per spec.md §4.3: security (all
// roles), topology/<host> (node role), cluster/ with recurse (master
// role). They run concurrently and share nothing but the Client.
type Watch struct {
	client  *Client
	path    string
	recurse bool
	onChg   OnChange
	enabled func() bool // role flag; watch exits once this returns false

	lastIndex uint64
	logger    zerolog.Logger

	done chan struct{}
}

// NewWatch constructs a Watch. enabled is polled once per iteration
// boundary; when it returns false the watch exits (spec.md §4.3 step 4,
// §5 Cancellation).
func NewWatch(client *Client, path string, recurse bool, enabled func() bool, onChg OnChange) *Watch {
	return &Watch{
		client:  client,
		path:    path,
		recurse: recurse,
		enabled: enabled,
		onChg:   onChg,
		logger:  log.WithComponent("coordination.watch").With().Str("path", path).Logger(),
		done:    make(chan struct{}),
	}
}

// Run blocks, executing the watch loop until enabled() returns false.
// Callers typically invoke it in its own goroutine.
func (w *Watch) Run() {
	defer close(w.done)
	for w.enabled() {
		w.iterate()
	}
	w.logger.Debug().Msg("watch exiting: role disabled")
}

// Done is closed once Run returns, for callers that want to wait for a
// clean exit after flipping the role flag.
func (w *Watch) Done() <-chan struct{} { return w.done }

// LastIndex returns the most recently observed index. Non-decreasing
// across iterations that invoked onChange, per spec.md §8 property 7.
func (w *Watch) LastIndex() uint64 {
	return atomic.LoadUint64(&w.lastIndex)
}

func (w *Watch) iterate() {
	query := url.Values{}
	query.Set("index", strconv.FormatUint(w.LastIndex(), 10))
	query.Set("wait", "30000ms")
	query.Set("stale", "false")
	if w.recurse {
		query.Set("recurse", "true")
	}

	status, body, newIndex, err := w.client.WatchGet(w.path, query)
	if err != nil {
		w.logger.Warn().Err(err).Msg("watch request failed")
		metrics.WatchCyclesTotal.WithLabelValues(w.path, "error").Inc()
		time.Sleep(backoffInterval)
		return
	}

	changed := newIndex != w.LastIndex() && newIndex > 0
	if Success(status) || changed {
		if newIndex > 0 {
			atomic.StoreUint64(&w.lastIndex, newIndex)
		}
		metrics.WatchCyclesTotal.WithLabelValues(w.path, "changed").Inc()
		w.onChg(body, newIndex)
		return
	}

	metrics.WatchCyclesTotal.WithLabelValues(w.path, "unchanged").Inc()
	time.Sleep(backoffInterval)
}
