package controllers

import (
	"net/http"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/api/responses"
	"github.com/Maiconloureiro96-cyber/distribuidora/api/validators"
	pkgauth "github.com/Maiconloureiro96-cyber/distribuidora/pkg/auth"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/config"
	pkgerrors "github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
)

type mintTokenRequest struct {
	Operator string `json:"operator" validate:"required,min=2,max=60"`
}

// MintAdminToken issues an operator JWT. The route is only mounted
// outside production, where operators are provisioned by hand.
func MintAdminToken(cfg config.AdminConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req mintTokenRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		token, err := pkgauth.MintAdminToken(cfg, time.Now(), req.Operator)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"token": token})
	}
}
