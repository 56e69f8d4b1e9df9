// Package exchange talks to the remote question-answering service. Failures
// are normalized into fixed user-presentable fallback strings so the caller
// can always file an assistant message; the only hard error is a missing
// session id, rejected before any network attempt.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"carechat/pkg/logger"
	"carechat/pkg/telemetry"
)

// ErrNoSession is returned when Send is called without a session id. This is
// a precondition violation, not a transport failure.
var ErrNoSession = errors.New("exchange: session id required")

// Fallback replies surfaced as ordinary assistant messages. Wording is a
// product concern; the contract is only that they are non-empty.
const (
	FallbackTimeout     = "The assistant took too long to respond. Please try again."
	FallbackUnavailable = "The assistant service is unavailable right now. Please try again in a moment."
	FallbackGeneric     = "Something went wrong while reaching the assistant. Please try again."
)

// DefaultTimeout is the client-side hard cap on one exchange. It must stay
// below whatever deadline the remote service enforces on itself.
const DefaultTimeout = 25 * time.Second

// Client performs one request/response round trip per Send.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a client for the given endpoint. A non-positive timeout falls
// back to DefaultTimeout.
func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type request struct {
	Question       string         `json:"question"`
	OverrideConfig overrideConfig `json:"overrideConfig"`
}

type overrideConfig struct {
	SessionID string `json:"sessionId"`
}

// response covers the reply-field names the collaborator is known to use.
type response struct {
	Text     string `json:"text"`
	Answer   string `json:"answer"`
	Message  string `json:"message"`
	Response string `json:"response"`
}

func (r response) replyText() string {
	for _, s := range []string{r.Text, r.Answer, r.Message, r.Response} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Send posts the question tagged with the conversation id and returns the
// reply text. On timeout, non-2xx status, non-JSON payload or transport
// failure it returns the matching fallback string with a nil error.
func (c *Client) Send(ctx context.Context, question, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrNoSession
	}

	start := time.Now()
	reply, outcome := c.roundTrip(ctx, question, sessionID)
	telemetry.ExchangeResult(outcome, time.Since(start))
	if outcome != "ok" {
		logger.Warn("exchange_fallback", "outcome", outcome, "session", sessionID)
	}
	return reply, nil
}

func (c *Client) roundTrip(ctx context.Context, question, sessionID string) (string, string) {
	body, err := json.Marshal(request{Question: question, OverrideConfig: overrideConfig{SessionID: sessionID}})
	if err != nil {
		return FallbackGeneric, "error"
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return FallbackGeneric, "error"
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return FallbackTimeout, "timeout"
		}
		return FallbackUnavailable, "unavailable"
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("exchange_bad_status", "status", resp.StatusCode)
		return FallbackUnavailable, "unavailable"
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "json") {
		logger.Warn("exchange_bad_content_type", "content_type", ct)
		return FallbackGeneric, "error"
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return FallbackTimeout, "timeout"
		}
		return FallbackGeneric, "error"
	}

	var out response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return FallbackGeneric, "error"
	}
	reply := out.replyText()
	if reply == "" {
		return FallbackGeneric, "error"
	}
	return reply, "ok"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
