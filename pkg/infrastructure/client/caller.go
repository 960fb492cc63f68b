// Package client calls the quest, mission, reward and quest builder services
// over HTTP. Every call is bounded by a timeout; idempotent reads are retried
// with exponential backoff on transport failures only.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/muses-project/progress/pkg/contract"
)

const maxResponseBytes = 1 << 20

type response struct {
	code int
	body []byte
}

// caller sends requests to one service.
type caller struct {
	service string
	baseURL string
	opts    options
}

func newCaller(service, baseURL string, opts []Option) caller {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return caller{service: service, baseURL: strings.TrimRight(baseURL, "/"), opts: o}
}

func (c *caller) get(ctx context.Context, op, path string) (*response, error) {
	return c.do(ctx, op, http.MethodGet, path, nil, true)
}

func (c *caller) post(ctx context.Context, op, path string, body any) (*response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("%s %s: marshal: %w", c.service, op, err)
		}
	}
	return c.do(ctx, op, http.MethodPost, path, payload, false)
}

// do returns ErrUnavailable for transport failures and timeouts, and a
// *contract.StatusError alongside the response for non-2xx answers.
func (c *caller) do(ctx context.Context, op, method, path string, payload []byte, idempotent bool) (*response, error) {
	send := func(ctx context.Context) (*response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		if id := middleware.GetReqID(ctx); id != "" {
			req.Header.Set(middleware.RequestIDHeader, id)
		}

		resp, err := c.opts.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}
		return &response{code: resp.StatusCode, body: body}, nil
	}

	t := timeout.New[*response](timeout.Config{DefaultTimeout: c.opts.timeout})
	res, err := t.Execute(ctx, c.opts.timeout, func(ctx context.Context) (*response, error) {
		if !idempotent || c.opts.maxAttempts <= 1 {
			return send(ctx)
		}
		r := retry.New[*response](retry.Config{
			MaxAttempts:   c.opts.maxAttempts,
			InitialDelay:  c.opts.initialDelay,
			BackoffPolicy: retry.BackoffExponential,
		})
		return r.Do(ctx, send)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", contract.ErrUnavailable, c.service, op, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %s %s: no response", contract.ErrUnavailable, c.service, op)
	}
	if res.code < 200 || res.code >= 300 {
		return res, &contract.StatusError{
			Service: c.service,
			Op:      op,
			Code:    res.code,
			Message: errorMessage(res.body),
		}
	}
	return res, nil
}

func decodeJSON[T any](service, op string, res *response) (T, error) {
	var v T
	if err := json.Unmarshal(res.body, &v); err != nil {
		return v, fmt.Errorf("%s %s: decode response: %w", service, op, err)
	}
	return v, nil
}

func errorMessage(body []byte) string {
	var eb contract.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
