package authsdk

import (
	"context"
	"net/http"
)

// Login exchanges an identifier and secret for a principal and credential pair.
func (c *SDKClient) Login(ctx context.Context, identifier, secret string) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, "sign-in", http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Identifier: identifier,
		Secret:     secret,
	})
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeEnvelope(resp, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Register applies for a new administrator account. No session results.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	resp, err := c.doRequest(ctx, "register", http.MethodPost, "/api/v1/auth/register", req)
	if err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := decodeEnvelope(resp, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Refresh exchanges a refresh token for a new credential pair. The old
// refresh token should be considered spent whether or not this succeeds.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*CredentialPair, error) {
	resp, err := c.doRequest(ctx, "refresh", http.MethodPost, "/api/v1/auth/refresh", RefreshRequest{
		RefreshToken: refreshToken,
	})
	if err != nil {
		return nil, err
	}

	var out RefreshResponse
	if err := decodeEnvelope(resp, &out); err != nil {
		return nil, err
	}

	return &out.Tokens, nil
}

// Logout revokes refreshToken on the backend.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	resp, err := c.doRequest(ctx, "sign-out", http.MethodPost, "/api/v1/auth/logout", LogoutRequest{
		RefreshToken: refreshToken,
	})
	if err != nil {
		return err
	}

	return decodeEnvelope(resp, nil)
}
