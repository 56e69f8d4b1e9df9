package httpx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// statusHandler echoes method, path and body so both adapters can be checked
// against identical expectations.
func statusHandler(w ResponseWriter, r *Request) {
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Echo-Method", r.Method)
	if r.Path == "/missing" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"path":"` + r.Path + `","body":"` + string(body) + `"}`))
}

func TestNetHTTPAdapter(t *testing.T) {
	srv := httptest.NewServer(NetHTTPAdapter(statusHandler))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/healthz", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.Equal(t, "POST", resp.Header.Get("X-Echo-Method"))
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"path":"/healthz","body":""}`, string(b))
}

func TestNetHTTPAdapterStatusPropagates(t *testing.T) {
	srv := httptest.NewServer(NetHTTPAdapter(statusHandler))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdapterImplicitOKOnWrite(t *testing.T) {
	h := func(w ResponseWriter, r *Request) {
		// no explicit WriteHeader; first Write must imply 200
		_, _ = w.Write([]byte("ok"))
	}
	srv := httptest.NewServer(NetHTTPAdapter(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	require.Equal(t, "ok", string(b))
}
