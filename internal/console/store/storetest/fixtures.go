package storetest

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
)

// SamplePair is the credential pair used across store tests.
func SamplePair() authsdk.CredentialPair {
	accessExp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	refreshExp := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	return authsdk.CredentialPair{
		AccessToken:      "A1",
		RefreshToken:     "R1",
		AccessExpiresAt:  &accessExp,
		RefreshExpiresAt: &refreshExp,
	}
}

// SamplePrincipal is an active super admin.
func SamplePrincipal() authsdk.Principal {
	return authsdk.Principal{
		ID:        "1",
		Role:      authsdk.RoleSuperAdmin,
		Status:    authsdk.StatusActive,
		Email:     "admin@x.com",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

// ErrUnavailable is what FailingKV returns.
var ErrUnavailable = errors.New("storetest: unavailable")

// FailingKV fails every operation.
type FailingKV struct{}

func (FailingKV) Get(context.Context, string) (string, error) { return "", ErrUnavailable }
func (FailingKV) Set(context.Context, string, string) error   { return ErrUnavailable }
func (FailingKV) Delete(context.Context, ...string) error     { return ErrUnavailable }
func (FailingKV) Ping(context.Context) error                  { return ErrUnavailable }
func (FailingKV) Close() error                                { return nil }
