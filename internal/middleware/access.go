package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/service"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/response"
)

// ContextAccessDecisionKey stores the allowing access.Decision.
const ContextAccessDecisionKey = "accessDecision"

// AccessGuardConfig tunes the route guard middleware.
type AccessGuardConfig struct {
	// AllowedRoles is the static allow-list compared against the raw role.
	AllowedRoles []string
	// RetryAfter is advertised while the access matrix is still loading.
	RetryAfter time.Duration
	Metrics    *service.MetricsService
}

// AccessGuard runs the route guard for the request path. It must run after
// JWT or OptionalJWT. Loading answers 503 with Retry-After; redirects
// answer 401 or 403 with meta.redirect naming the target.
func AccessGuard(guard *access.Guard, cfg AccessGuardConfig) gin.HandlerFunc {
	retryAfter := cfg.RetryAfter
	if retryAfter <= 0 {
		retryAfter = time.Second
	}
	return func(c *gin.Context) {
		in := access.GuardInput{Path: c.Request.URL.Path, AllowedRoles: cfg.AllowedRoles}
		if claims := Claims(c); claims != nil {
			in.Authenticated = true
			in.RawRole = string(claims.Role)
		}

		decision := guard.Decide(in)
		module := ""
		if decision.Check != nil {
			module = decision.Check.ModuleID
		}
		cfg.Metrics.RecordAccessDecision(decision.Outcome.String(), module)

		switch decision.Outcome {
		case access.OutcomeAllow:
			if decision.Check != nil {
				c.Set(ContextAccessDecisionKey, *decision.Check)
			}
			c.Next()
		case access.OutcomeLoading:
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds()+0.5)))
			response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "access configuration is loading"))
			c.Abort()
		case access.OutcomeRedirectLogin:
			response.Redirect(c, appErrors.ErrUnauthorized, decision.Location)
		default:
			response.Redirect(c, appErrors.Clone(appErrors.ErrForbidden, "module is not enabled for your role"), decision.Location)
		}
	}
}

// AccessDecision returns the decision that admitted the request.
func AccessDecision(c *gin.Context) (access.Decision, bool) {
	value, ok := c.Get(ContextAccessDecisionKey)
	if !ok {
		return access.Decision{}, false
	}
	d, ok := value.(access.Decision)
	return d, ok
}
