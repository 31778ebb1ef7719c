package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Lec-res/web-register-system-backend/internal/core/domain"
)

// requirement is what a matched route demands from the caller.
type requirement int

const (
	public requirement = iota
	authenticated
	requireAdmin
)

// rule pairs a path pattern with its requirement. Patterns are either exact
// paths or a prefix followed by "/**".
type rule struct {
	pattern string
	req     requirement
}

// policyRules is evaluated top to bottom, first match wins. Ordering is
// load-bearing: the broad "/api/users/**" admin rule would shadow the public
// login/register/check-username entries if it came first.
var policyRules = []rule{
	{"/api/users/login", public},
	{"/api/users/register", public},
	{"/api/users/check-username", public},

	{"/health", public},
	{"/health/**", public},
	{"/metrics", public},
	{"/swagger/**", public},
	{"/favicon.ico", public},
	{"/css/**", public},
	{"/js/**", public},
	{"/images/**", public},

	{"/api/users/statistics", requireAdmin},
	{"/api/users/role/**", requireAdmin},
	{"/api/users/search", requireAdmin},
	{"/api/users/**", requireAdmin},
}

// resolve walks the table and returns the requirement for path. Anything not
// matched by a rule requires an authenticated caller of any role.
func resolve(path string) requirement {
	for _, r := range policyRules {
		if matchPattern(r.pattern, path) {
			return r.req
		}
	}
	return authenticated
}

// matchPattern reports whether path matches pattern. A pattern ending in
// "/**" matches the base path itself and everything below it; any other
// pattern must match exactly.
func matchPattern(pattern, path string) bool {
	if base, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == base || strings.HasPrefix(path, base+"/")
	}
	return path == pattern
}

// AccessPolicy enforces the route authorization table. It runs after Auth,
// which has already injected the caller's role when a valid token was sent.
func AccessPolicy() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Match the escaped form, which is the path the router itself
			// sees. A percent-encoded variant of a public path therefore does
			// not resolve to the public rule; it falls through to the
			// admin/authenticated rules and fails closed.
			req := resolve(c.Request().URL.EscapedPath())
			if req == public {
				return next(c)
			}

			role, _ := c.Get(ContextKeyRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if req == requireAdmin && domain.Role(role) != domain.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}
			return next(c)
		}
	}
}
