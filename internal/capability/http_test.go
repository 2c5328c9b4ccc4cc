package capability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientDoGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bar", r.Header.Get("X-Foo"))
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second)
	resp, err := c.Do(http.MethodGet, srv.URL, map[string]string{"X-Foo": "bar"}, 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "hi", resp.Body)
	assert.Equal(t, "text/plain", resp.Header["Content-Type"])
	assert.GreaterOrEqual(t, resp.DurationMs, int64(0))
}

func TestHTTPClientRejectsNonGet(t *testing.T) {
	c := NewHTTPClient(time.Second)
	_, err := c.Do(http.MethodPost, "http://example.com", nil, 0)
	assert.Error(t, err)
}

func TestHTTPClientTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second)
	_, err := c.Do(http.MethodGet, srv.URL, nil, 5*time.Millisecond)
	assert.Error(t, err)
}
