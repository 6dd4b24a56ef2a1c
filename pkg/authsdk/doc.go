/*
Package authsdk is the client for the BarTab admin backend: sign-in, refresh,
revocation, registration, the current principal and the approvals queue.

# Envelope

Every backend response is wrapped in an Envelope:

	{"success": true, "code": 200, "data": {...}, "message": "", "timestamp": "..."}

Errors add path, method and error fields. The SDK decodes the data into the
operation's result type and turns error envelopes into *APIError. Failures to
reach the backend at all come back as *NetworkError, whose Message is safe to
show to an operator.

	pair, err := client.Refresh(ctx, refreshToken)
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
		// refresh token rejected
	}

# Credentials

SDKClient never attaches an Authorization header itself. Public operations
(Login, Register, Refresh, Logout, GetLiveness) need none. Admin operations
(CurrentPrincipal, PendingApprovals, Decide) must be sent through an
http.Client whose RoundTripper authenticates requests:

	public := authsdk.NewSDKClient("http://localhost:8080")
	admin := public.WithHTTPClient(&http.Client{Transport: pipeline})

	entries, err := admin.PendingApprovals(ctx)

Keep refresh on the public client so a failing refresh can never recurse into
the pipeline that triggered it.

# Testing

Package authsdktest provides an in-process fake backend with call counters.
*/
package authsdk
