package coordination

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchCallsOnChangeWhenIndexAdvances(t *testing.T) {
	var reqN int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&reqN, 1)
		if n == 1 {
			w.Header().Set("X-Consul-Index", "5")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`[]`))
			return
		}
		// second iteration: role disabled, should not be reached
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})

	var calls int32
	var enabledCalls int32
	enabled := func() bool {
		return atomic.AddInt32(&enabledCalls, 1) == 1
	}

	w := NewWatch(c, "appmesh/security", false, enabled, func(body []byte, index uint64) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, uint64(5), index)
	})

	w.Run()
	<-w.Done()

	assert.Equal(t, int32(1), calls)
	assert.Equal(t, uint64(5), w.LastIndex())
}

func TestWatchExitsWhenDisabled(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"})
	w := NewWatch(c, "x", false, func() bool { return false }, func([]byte, uint64) {
		t.Fatal("onChange should not be called")
	})
	w.Run()
	<-w.Done()
}
