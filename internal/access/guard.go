package access

import (
	"net/url"

	"go.uber.org/zap"
)

// Outcome is what the guard wants the caller to do.
type Outcome int

const (
	OutcomeAllow Outcome = iota
	OutcomeLoading
	OutcomeRedirectLogin
	OutcomeRedirectLanding
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirectLogin:
		return "redirect_login"
	case OutcomeRedirectLanding:
		return "redirect_landing"
	default:
		return "unknown"
	}
}

// GuardInput describes one navigation attempt.
type GuardInput struct {
	Path          string
	AuthLoading   bool
	Authenticated bool
	RawRole       string
	// AllowedRoles is the route's static allow-list, compared against the
	// raw role. Empty means any authenticated role.
	AllowedRoles []string
}

// GuardDecision is the guard's verdict. Location is set for redirects.
type GuardDecision struct {
	Outcome  Outcome
	Location string
	Check    *Decision
}

// Guard layers the dynamic matrix check on top of a route's static
// allow-list. The matrix can only narrow access.
type Guard struct {
	evaluator *Evaluator
	store     *Store
	loginPath string
	audit     *zap.Logger
	onDeny    func(GuardInput, GuardDecision)
}

// GuardOption customises a Guard.
type GuardOption func(*Guard)

// WithLoginPath sets the unauthenticated redirect target.
func WithLoginPath(path string) GuardOption {
	return func(g *Guard) {
		if path != "" {
			g.loginPath = path
		}
	}
}

// WithAuditLogger sets the diagnostic channel for matrix denials.
func WithAuditLogger(l *zap.Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.audit = l
		}
	}
}

// WithDenyHook registers a callback for every redirecting decision.
func WithDenyHook(fn func(GuardInput, GuardDecision)) GuardOption {
	return func(g *Guard) {
		g.onDeny = fn
	}
}

// NewGuard constructs a guard reading from store through evaluator.
func NewGuard(store *Store, evaluator *Evaluator, opts ...GuardOption) *Guard {
	g := &Guard{
		evaluator: evaluator,
		store:     store,
		loginPath: "/login",
		audit:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide evaluates, in order: loading, authentication, static allow-list,
// dynamic matrix.
func (g *Guard) Decide(in GuardInput) GuardDecision {
	if in.AuthLoading || !g.store.Loaded() {
		return GuardDecision{Outcome: OutcomeLoading}
	}
	if !in.Authenticated {
		d := GuardDecision{Outcome: OutcomeRedirectLogin, Location: g.loginLocation(in.Path)}
		g.denied(in, d)
		return d
	}
	if len(in.AllowedRoles) > 0 && !contains(in.AllowedRoles, in.RawRole) {
		d := GuardDecision{Outcome: OutcomeRedirectLanding, Location: LandingPath(in.RawRole)}
		g.denied(in, d)
		return d
	}

	check := g.evaluator.Check(in.Path, in.RawRole)
	if !check.Enabled {
		d := GuardDecision{Outcome: OutcomeRedirectLanding, Location: LandingPath(in.RawRole), Check: &check}
		g.audit.Debug("module access denied",
			zap.String("path", in.Path),
			zap.String("role", in.RawRole),
			zap.String("module", check.ModuleID),
			zap.String("reason", string(check.Reason)),
		)
		g.denied(in, d)
		return d
	}
	return GuardDecision{Outcome: OutcomeAllow, Check: &check}
}

func (g *Guard) loginLocation(from string) string {
	if from == "" {
		return g.loginPath
	}
	return g.loginPath + "?from=" + url.QueryEscape(from)
}

func (g *Guard) denied(in GuardInput, d GuardDecision) {
	if g.onDeny != nil {
		g.onDeny(in, d)
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
