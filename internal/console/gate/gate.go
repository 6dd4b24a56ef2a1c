// Package gate decides, before a console page is shown, whether the current
// session may see it or where it should be sent instead.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/aussiebroadwan/bartab-console/internal/console/session"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/slogx"
)

// ReturnToParam carries the originally intended destination on redirects to
// the sign-in page.
const ReturnToParam = "redirect"

const (
	PathLogin           = "/login"
	PathRegister        = "/register"
	PathDashboard       = "/dashboard"
	PathProfile         = "/profile"
	PathAdmins          = "/admins"
	PathApprovals       = "/approvals"
	PathPendingApproval = "/pending-approval"
	PathRejected        = "/rejected"
	PathInactive        = "/inactive"
	PathForbidden       = "/forbidden"
	PathNotFound        = "/not-found"
)

// Session is the part of session.Manager the predicates consult.
type Session interface {
	Restore(ctx context.Context) bool
	IsAuthenticated() bool
	Principal() (authsdk.Principal, bool)
	CanApprove() bool
	RefreshIfExpiringSoon(ctx context.Context) error
}

// Decision is the outcome of a predicate. The zero value lets the navigation
// continue.
type Decision struct {
	Redirect string
}

func (d Decision) Allowed() bool { return d.Redirect == "" }

func redirect(to string) Decision { return Decision{Redirect: to} }

// Navigation is a requested destination.
type Navigation struct {
	Path  string
	Query url.Values
}

// ErrInvalidTarget is returned for navigation targets that are not local
// paths.
var ErrInvalidTarget = errors.New("gate: target must be a local path")

// ParseNavigation splits target into path and query.
func ParseNavigation(target string) (Navigation, error) {
	if !isLocalPath(target) {
		return Navigation{}, ErrInvalidTarget
	}
	u, err := url.Parse(target)
	if err != nil {
		return Navigation{}, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	return Navigation{Path: u.Path, Query: u.Query()}, nil
}

// Intended is the destination as it should be carried in a return-to
// parameter: path plus query.
func (n Navigation) Intended() string {
	if len(n.Query) == 0 {
		return n.Path
	}
	return n.Path + "?" + n.Query.Encode()
}

// SignInRedirect is the sign-in destination that returns to intended
// afterwards.
func SignInRedirect(intended string) string {
	if intended == "" || intended == PathLogin {
		return PathLogin
	}
	return PathLogin + "?" + url.Values{ReturnToParam: {intended}}.Encode()
}

// isLocalPath accepts "/x" but not "//host/x" or absolute URLs, so a
// return-to value can never send the user off-site.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}

// Predicate inspects a navigation and either lets it continue or redirects
// it. An error means the predicate could not decide.
type Predicate func(ctx context.Context, nav Navigation) (Decision, error)

// Chain evaluates preds left to right. The first redirect or error stops the
// chain.
func Chain(preds ...Predicate) Predicate {
	return func(ctx context.Context, nav Navigation) (Decision, error) {
		for _, p := range preds {
			d, err := p(ctx, nav)
			if err != nil || !d.Allowed() {
				return d, err
			}
		}
		return Decision{}, nil
	}
}

// Public lets every navigation through.
func Public(context.Context, Navigation) (Decision, error) { return Decision{}, nil }

// RequireAuth sends anonymous visitors to sign-in after trying to restore a
// persisted session. An access token close to expiry is refreshed on the
// way; if that fails the session is gone and the visitor signs in again.
func RequireAuth(s Session) Predicate {
	return func(ctx context.Context, nav Navigation) (Decision, error) {
		if !s.IsAuthenticated() && !s.Restore(ctx) {
			return redirect(SignInRedirect(nav.Intended())), nil
		}

		err := s.RefreshIfExpiringSoon(ctx)
		switch {
		case err == nil:
			return Decision{}, nil
		case errors.Is(err, session.ErrRefreshRejected), errors.Is(err, session.ErrNoRefreshToken):
			slogx.FromContext(ctx).Info("session ended during navigation", "path", nav.Path, "error", err)
			return redirect(SignInRedirect(nav.Intended())), nil
		default:
			return Decision{}, err
		}
	}
}

// RequireGuest keeps signed-in users off the sign-in and registration pages,
// sending them to the return-to parameter if there is a usable one and to
// landing otherwise.
func RequireGuest(s Session, landing string) Predicate {
	return func(ctx context.Context, nav Navigation) (Decision, error) {
		if !s.IsAuthenticated() {
			return Decision{}, nil
		}
		if to := nav.Query.Get(ReturnToParam); isLocalPath(to) && !isGuestPath(to) {
			return redirect(to), nil
		}
		return redirect(landing), nil
	}
}

// isGuestPath reports whether target is one of the pages RequireGuest guards,
// which a signed-in user must never be sent back to.
func isGuestPath(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return true
	}
	switch strings.TrimSuffix(u.Path, "/") {
	case PathLogin, PathRegister:
		return true
	}
	return false
}

// RequireActive sends principals whose account is not active to the page
// explaining their status.
func RequireActive(s Session) Predicate {
	return func(ctx context.Context, nav Navigation) (Decision, error) {
		p, ok := s.Principal()
		if !ok {
			return redirect(SignInRedirect(nav.Intended())), nil
		}

		switch p.Status {
		case authsdk.StatusActive:
			return Decision{}, nil
		case authsdk.StatusPending:
			return redirect(PathPendingApproval), nil
		case authsdk.StatusRejected:
			return redirect(PathRejected), nil
		default:
			return redirect(PathInactive), nil
		}
	}
}

// RequireRole forbids principals whose role is not one of roles.
func RequireRole(s Session, roles ...authsdk.Role) Predicate {
	return func(ctx context.Context, nav Navigation) (Decision, error) {
		p, ok := s.Principal()
		if !ok {
			return redirect(SignInRedirect(nav.Intended())), nil
		}
		if !slices.Contains(roles, p.Role) {
			return redirect(PathForbidden), nil
		}
		return Decision{}, nil
	}
}

// RequireApprover forbids principals who may not decide applications.
func RequireApprover(s Session) Predicate {
	return func(ctx context.Context, nav Navigation) (Decision, error) {
		if !s.CanApprove() {
			return redirect(PathForbidden), nil
		}
		return Decision{}, nil
	}
}
