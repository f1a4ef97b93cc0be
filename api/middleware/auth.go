package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Maiconloureiro96-cyber/distribuidora/api/responses"
	pkgauth "github.com/Maiconloureiro96-cyber/distribuidora/pkg/auth"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/config"
	pkgerrors "github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
)

type ctxKey string

const ctxOperator ctxKey = "operator"

// Operator returns the operator name seeded by AdminAuth, or "".
func Operator(ctx context.Context) string {
	if v, ok := ctx.Value(ctxOperator).(string); ok {
		return v
	}
	return ""
}

// AdminAuth validates a bearer token minted for dashboard operators and
// seeds the request context with the operator name.
func AdminAuth(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAdminToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxOperator, claims.Operator)
			if logg != nil {
				ctx = logg.WithField(ctx, "operator", claims.Operator)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
