// Package routegate decides whether a navigation to a guarded route may
// proceed. The decision is pure so it can be reused by any transport
// adapter and tested as a table.
package routegate

// Decision is the outcome of evaluating a navigation request.
type Decision int

const (
	// Allow lets the navigation proceed.
	Allow Decision = iota
	// Abort cancels the navigation without a target, used when the whole
	// feature is switched off. Adapters typically answer 404.
	Abort
	// Deny403 blocks the navigation with "Not Authorized".
	Deny403
	// RedirectToLogin sends an unauthenticated visitor to the login path.
	RedirectToLogin
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Abort:
		return "abort"
	case Deny403:
		return "deny"
	case RedirectToLogin:
		return "redirect_to_login"
	default:
		return "unknown"
	}
}

// DefaultLoginPath is where unauthenticated visitors are redirected.
const DefaultLoginPath = "/auth/login"

// RBACMeta models a route's permission annotation. A route either allows
// everyone, denies everyone, or requires at least one grant from a list.
type RBACMeta struct {
	denied bool
	grants []string
}

// AllowAll marks the route as open to any authenticated user.
func AllowAll() RBACMeta { return RBACMeta{} }

// Denied marks the route as closed regardless of grants.
func Denied() RBACMeta { return RBACMeta{denied: true} }

// RequireAny marks the route as requiring at least one of the named grants.
// An empty list behaves like Denied.
func RequireAny(grants ...string) RBACMeta {
	if len(grants) == 0 {
		return Denied()
	}
	return RBACMeta{grants: grants}
}

// Permits reports whether the given grants satisfy the meta.
func (m RBACMeta) Permits(userGrants []string) bool {
	if m.denied {
		return false
	}
	if len(m.grants) == 0 {
		return true
	}
	for _, need := range m.grants {
		for _, have := range userGrants {
			if need == have {
				return true
			}
		}
	}
	return false
}

// Request carries everything the gate needs to decide a navigation.
type Request struct {
	// FeatureEnabled is the achievement feature flag value.
	FeatureEnabled bool
	// Meta is the target route's permission annotation.
	Meta RBACMeta
	// Authenticated reports whether the visitor carries a valid identity.
	Authenticated bool
	// Grants are the visitor's permission grants, if authenticated.
	Grants []string
	// TargetPath is the path being navigated to.
	TargetPath string
	// LoginPath overrides DefaultLoginPath when non-empty.
	LoginPath string
}

// Result is the gate's decision plus the redirect target when applicable.
type Result struct {
	Decision Decision
	// Location is set for RedirectToLogin.
	Location string
}

// Evaluate applies the gate rules in order: the feature flag wins over
// everything, an explicitly closed route is denied outright, an anonymous
// visitor is sent to login, and only then are grants compared.
func Evaluate(req Request) Result {
	if !req.FeatureEnabled {
		return Result{Decision: Abort}
	}
	if req.Meta.denied {
		return Result{Decision: Deny403}
	}

	login := req.LoginPath
	if login == "" {
		login = DefaultLoginPath
	}
	if !req.Authenticated && req.TargetPath != login {
		return Result{Decision: RedirectToLogin, Location: login}
	}
	if !req.Meta.Permits(req.Grants) {
		return Result{Decision: Deny403}
	}
	return Result{Decision: Allow}
}
