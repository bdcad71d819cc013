package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"icu-monitor/internal/service"
)

type principalKey struct{}

// WithPrincipal 把身份写入 context
func WithPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom 取出当前身份；未认证为 nil
func PrincipalFrom(ctx context.Context) *service.Principal {
	p, _ := ctx.Value(principalKey{}).(*service.Principal)
	return p
}

// publicPrefixes 不需要 token 的路径
var publicPrefixes = []string{
	"/health",
	"/metrics",
	"/ws",
	"/auth/login",
	"/auth/register-hospital",
	"/monitor-data/",
	"/test-ingest",
	"/api/disease-model-status",
	"/api/wound-model-status",
}

func isPublic(path string) bool {
	if path == "/auth/register" || path == "/auth/register/" {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// adminOnly /admin/* 与 register-staff 仅限 admin
func adminOnly(path string) bool {
	return strings.HasPrefix(path, "/admin/") || path == "/admin" || strings.HasPrefix(path, "/auth/register-staff")
}

// AuthMiddleware Bearer token 认证 + admin 路由拦截
type AuthMiddleware struct {
	auth   service.AuthService
	bypass bool
	logger *zap.Logger
}

// NewAuthMiddleware bypass=true 时无有效 token 的请求按 bypass 医生处理
func NewAuthMiddleware(auth service.AuthService, bypass bool, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, bypass: bypass, logger: logger}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		public := isPublic(r.URL.Path)

		var p *service.Principal
		if token != "" {
			var err error
			p, err = m.auth.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case m.bypass:
					p = service.BypassPrincipal()
				case public:
					p = nil
				default:
					m.logger.Debug("Authentication failed", zap.String("path", r.URL.Path), zap.Error(err))
					writeError(w, m.logger, "Authenticate", err)
					return
				}
			}
		} else if m.bypass {
			p = service.BypassPrincipal()
		}

		if p == nil && !public {
			writeJSON(w, http.StatusUnauthorized, Fail("Not authenticated"))
			return
		}
		if adminOnly(r.URL.Path) && !p.IsAdmin() {
			writeJSON(w, http.StatusForbidden, Fail("Admin access required"))
			return
		}
		if p != nil {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}
