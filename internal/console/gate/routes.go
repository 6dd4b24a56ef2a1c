package gate

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
)

// ErrSuperseded is returned by Navigate when a later navigation started
// before this one was decided. Its decision must not be applied.
var ErrSuperseded = errors.New("gate: navigation superseded")

// Table maps console paths to the predicate guarding them.
type Table map[string]Predicate

// Routes builds the console's route table. landing is where signed-in users
// are sent from guest-only pages.
func Routes(s Session, landing string) Table {
	if landing == "" {
		landing = PathDashboard
	}

	auth := RequireAuth(s)
	active := Chain(auth, RequireActive(s))

	return Table{
		PathLogin:    RequireGuest(s, landing),
		PathRegister: RequireGuest(s, landing),

		PathDashboard: active,
		PathProfile:   active,
		PathAdmins:    Chain(active, RequireRole(s, authsdk.RoleSuperAdmin)),
		PathApprovals: Chain(active, RequireApprover(s)),

		PathPendingApproval: auth,
		PathRejected:        auth,
		PathInactive:        auth,

		PathForbidden: Public,
		PathNotFound:  Public,
	}
}

// Evaluate runs the predicate for nav.Path. Unknown paths go to the
// not-found page.
func (t Table) Evaluate(ctx context.Context, nav Navigation) (Decision, error) {
	pred, ok := t[nav.Path]
	if !ok {
		return redirect(PathNotFound), nil
	}
	return pred(ctx, nav)
}

// Navigator evaluates navigations against a route table. Only the most
// recently started navigation may produce a decision; earlier ones still
// running when it starts return ErrSuperseded.
type Navigator struct {
	Routes Table

	generation atomic.Uint64
}

func NewNavigator(routes Table) *Navigator {
	return &Navigator{Routes: routes}
}

// Navigate decides whether target may be shown.
func (n *Navigator) Navigate(ctx context.Context, target string) (Decision, error) {
	gen := n.generation.Add(1)

	nav, err := ParseNavigation(target)
	if err != nil {
		return Decision{}, err
	}

	d, err := n.Routes.Evaluate(ctx, nav)
	if n.generation.Load() != gen {
		return Decision{}, ErrSuperseded
	}
	return d, err
}
