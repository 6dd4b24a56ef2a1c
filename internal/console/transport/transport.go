// Package transport authenticates outgoing backend requests with the console
// session and recovers once from an expired access token.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aussiebroadwan/bartab-console/internal/console/obs"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/idx"
	"github.com/aussiebroadwan/bartab-console/pkg/slogx"
)

// maxDrain bounds how much of a 401 body is read before the connection is
// given back to the pool.
const maxDrain = 4 << 10

// Session is the part of session.Manager the pipeline needs.
type Session interface {
	AccessToken() string
	// Refresh must collapse concurrent calls onto one backend refresh and
	// clear the session when it fails.
	Refresh(ctx context.Context) error
}

// SessionExpiredError is returned for a request whose 401 could not be
// recovered because the refresh failed. The session has already been ended.
type SessionExpiredError struct {
	Err error
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("transport: session expired: %v", e.Err)
}

func (e *SessionExpiredError) Unwrap() error { return e.Err }

// Transport is an http.RoundTripper that attaches the session's bearer token
// and a request id to every request. On a 401 it refreshes the session (or
// picks up a token another request already refreshed) and resends the
// request exactly once. A second 401 is returned to the caller as is.
type Transport struct {
	// Base performs the actual requests. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	Session Session

	// OnSessionExpired, when set, is called for every request that fails
	// because the refresh failed.
	OnSessionExpired func(req *http.Request, err error)

	Metrics *obs.Metrics
}

// Client returns an *http.Client sending through t.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	out := req.Clone(ctx)
	reqID := idx.EnsureRequestID(out.Header)

	sent := t.Session.AccessToken()
	resp, err := t.send(out, getBody, sent)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	drain(resp)

	fresh := t.Session.AccessToken()
	if fresh == "" || fresh == sent {
		err := t.Session.Refresh(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			t.Metrics.ObserveSessionExpired()
			slogx.FromContext(ctx).Info("backend request failed, session expired",
				"req_id", reqID,
				"method", req.Method,
				"path", req.URL.Path,
				"error", err,
			)
			if t.OnSessionExpired != nil {
				t.OnSessionExpired(req, err)
			}
			return nil, &SessionExpiredError{Err: err}
		}
		fresh = t.Session.AccessToken()
	}

	t.Metrics.ObserveRetry()
	return t.send(out.Clone(ctx), getBody, fresh)
}

// send issues r with token as its bearer credential.
func (t *Transport) send(r *http.Request, getBody func() (io.ReadCloser, error), token string) (*http.Response, error) {
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, fmt.Errorf("transport: rewind body: %w", err)
		}
		r.Body = body
		r.GetBody = getBody
	}

	if token != "" {
		r.Header.Set("Authorization", authsdk.BearerHeader(token))
	} else {
		r.Header.Del("Authorization")
	}

	return t.base().RoundTrip(r)
}

// replayableBody returns a function producing a fresh copy of req's body, or
// nil when there is no body. Bodies without GetBody are read into memory.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		_ = req.Body.Close()
		return req.GetBody, nil
	}

	buf, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("transport: buffer body: %w", err)
	}

	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	_ = resp.Body.Close()
}

// IsSessionExpired reports whether err, possibly wrapped in a *url.Error by
// http.Client, came from a failed refresh.
func IsSessionExpired(err error) bool {
	var expired *SessionExpiredError
	return errors.As(err, &expired)
}
