// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/jpillora/backoff"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const defaultMaxAttempts = 3

// HTTPService invokes remote functions as JSON-RPC 2.0 calls over HTTP. The
// function name travels as the JSON-RPC method and the argument document as
// its params. Transient network failures are retried with jittered backoff;
// remote execution failures are surfaced as service errors without retry.
type HTTPService struct {
	endpoint    *url.URL
	client      *http.Client
	headers     http.Header
	queryParams url.Values
	maxAttempts int
}

// ServiceOption configures an HTTPService.
type ServiceOption func(*HTTPService)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) ServiceOption {
	return func(s *HTTPService) { s.client = client }
}

// WithHeader adds a header to every outgoing request.
func WithHeader(key, value string) ServiceOption {
	return func(s *HTTPService) { s.headers.Add(key, value) }
}

// WithQueryParam adds a query parameter to every outgoing request.
func WithQueryParam(key, value string) ServiceOption {
	return func(s *HTTPService) { s.queryParams.Add(key, value) }
}

// WithMaxAttempts sets how many times a transient failure is attempted
// before giving up.
func WithMaxAttempts(n int) ServiceOption {
	return func(s *HTTPService) { s.maxAttempts = n }
}

// NewHTTPService returns a service posting function invocations to endpoint.
func NewHTTPService(endpoint string, opts ...ServiceOption) (*HTTPService, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "parsing endpoint")
	}
	s := &HTTPService{
		endpoint: u,
		client: &http.Client{
			Timeout: 30 * time.Second,
			// Disable connection reuse to avoid EOF errors from stale
			// pooled connections in complex process hierarchies.
			Transport: &http.Transport{DisableKeepAlives: true},
		},
		headers:     http.Header{},
		queryParams: url.Values{},
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CallFunction implements FunctionService. The callback runs on its own
// goroutine once the remote invocation completes or fails.
func (s *HTTPService) CallFunction(ctx context.Context, name string, argumentsJSON string, complete CallFunctionCallback) {
	go func() {
		complete(s.call(ctx, name, argumentsJSON))
	}()
}

func (s *HTTPService) call(ctx context.Context, name, argumentsJSON string) (string, error) {
	body, err := json2.EncodeClientRequest(name, json.RawMessage(argumentsJSON))
	if err != nil {
		return "", newServiceError(errors.Wrap(err, "encoding request").Error())
	}

	u := *s.endpoint
	u.RawQuery = s.queryParams.Encode()

	b := &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", newServiceError(ctx.Err().Error())
			case <-time.After(b.Duration()):
			}
			grip.Debug(message.Fields{
				"message":  "retrying function call",
				"function": name,
				"attempt":  attempt,
			})
		}

		// The body buffer is consumed on each attempt, so each request is
		// built fresh.
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
		if err != nil {
			return "", newServiceError(errors.Wrap(err, "creating request").Error())
		}
		for key, values := range s.headers {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			if isRetryable(err) {
				continue
			}
			return "", newServiceError(errors.Wrap(err, "issuing request").Error())
		}

		return decodeFunctionResponse(resp)
	}

	return "", newServiceError(errors.Wrapf(lastErr, "calling %q after %d attempts", name, s.maxAttempts).Error())
}

func decodeFunctionResponse(resp *http.Response) (string, error) {
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newServiceError(fmt.Sprintf("received status code %d", resp.StatusCode))
	}

	var raw json.RawMessage
	if err := json2.DecodeClientResponse(resp.Body, &raw); err != nil {
		if err == json2.ErrNullResult {
			// Void reply: the function completed without a value.
			return "", nil
		}
		if remote, ok := err.(*json2.Error); ok {
			return "", newServiceError(remote.Message)
		}
		return "", newServiceError(errors.Wrap(err, "decoding response").Error())
	}
	return string(raw), nil
}

// drainAndClose reads the remaining body before closing to prevent HTTP/2
// GOAWAY errors caused by closing bodies with unread data.
// See: https://github.com/golang/go/issues/46071
func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// isRetryable reports whether an error looks like a transient connection
// issue worth another attempt.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe")
}
