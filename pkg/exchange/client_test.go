package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendExtractsFirstPopulatedReplyField(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"text":"from text"}`, "from text"},
		{`{"answer":"from answer"}`, "from answer"},
		{`{"message":"from message"}`, "from message"},
		{`{"response":"from response"}`, "from response"},
		{`{"text":"wins","answer":"loses"}`, "wins"},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, tc.body)
		}))
		c := New(srv.URL, time.Second)
		got, err := c.Send(context.Background(), "q", "session-1")
		srv.Close()
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "body %s", tc.body)
	}
}

func TestSendCarriesQuestionAndSessionID(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text":"ok"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Send(context.Background(), "what causes migraines?", "abc-123")
	require.NoError(t, err)
	require.Equal(t, "what causes migraines?", got.Question)
	require.Equal(t, "abc-123", got.OverrideConfig.SessionID)
}

func TestSendMissingSessionIDRejectedBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Send(context.Background(), "q", "")
	require.ErrorIs(t, err, ErrNoSession)
	_, err = c.Send(context.Background(), "q", "   ")
	require.ErrorIs(t, err, ErrNoSession)
	require.False(t, called)
}

func TestSendNonSuccessStatusReturnsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	got, err := c.Send(context.Background(), "q", "s1")
	require.NoError(t, err)
	require.Equal(t, FallbackUnavailable, got)
}

func TestSendTimeoutReturnsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text":"too slow"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, 50*time.Millisecond)
	got, err := c.Send(context.Background(), "q", "s1")
	require.NoError(t, err)
	require.Equal(t, FallbackTimeout, got)
}

func TestSendNonJSONContentTypeReturnsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>maintenance</html>")
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	got, err := c.Send(context.Background(), "q", "s1")
	require.NoError(t, err)
	require.Equal(t, FallbackGeneric, got)
}

func TestSendMalformedBodyReturnsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{broken`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	got, err := c.Send(context.Background(), "q", "s1")
	require.NoError(t, err)
	require.Equal(t, FallbackGeneric, got)
}

func TestSendEmptyReplyFieldsReturnsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"unrelated":"field"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	got, err := c.Send(context.Background(), "q", "s1")
	require.NoError(t, err)
	require.Equal(t, FallbackGeneric, got)
}

func TestSendTransportFailureReturnsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := New(srv.URL, time.Second)
	got, err := c.Send(context.Background(), "q", "s1")
	require.NoError(t, err)
	require.Equal(t, FallbackUnavailable, got)
}
