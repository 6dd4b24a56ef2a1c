package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the BarTab admin backend.
//
// The client itself never attaches credentials. Public operations (sign-in,
// refresh, registration) go out as-is; admin operations expect HTTPClient to
// carry a RoundTripper that authenticates them.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a backend client with a 10s request timeout.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithHTTPClient returns a copy of c that sends requests through hc.
func (c *SDKClient) WithHTTPClient(hc *http.Client) *SDKClient {
	cp := *c
	cp.HTTPClient = hc
	return &cp
}
