package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/aussiebroadwan/bartab-console/internal/console/transport"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/httpx"
	"github.com/aussiebroadwan/bartab-console/pkg/slogx"
)

// NewBackendProxy forwards console requests to the backend at target through
// rt, which is expected to be a *transport.Transport carrying the session.
// Credentials sent by the browser are dropped; the session's token is the
// only one the backend sees.
func NewBackendProxy(target *url.URL, rt http.RoundTripper) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.Host = target.Host
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
			pr.SetXForwarded()
		},
		Transport:    rt,
		ErrorHandler: proxyError,
	}
}

func proxyError(w http.ResponseWriter, r *http.Request, err error) {
	if transport.IsSessionExpired(err) {
		writeSignInRequired(w, r, returnToFromReferer(r))
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}

	slogx.FromContext(r.Context()).Warn("backend proxy failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	httpx.WriteError(w, r, http.StatusBadGateway, authsdk.ErrorCodeServerError, "backend unreachable")
}

// returnToFromReferer recovers the console page that issued an API call so
// the operator lands there again after signing in.
func returnToFromReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" {
		return ""
	}
	if ref.Host != "" && ref.Host != r.Host {
		return ""
	}
	return ref.RequestURI()
}
