package controllers

import (
	"net/http"

	"github.com/Maiconloureiro96-cyber/distribuidora/api/responses"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/reports"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/session"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
)

// GeneralStats combines persisted order statistics with the in-memory
// conversation counters.
func GeneralStats(svc *reports.Service, store *session.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stats, err := svc.General(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := map[string]any{"orders": stats}
		if store != nil {
			sessions := store.Stats()
			payload["sessions"] = map[string]int{
				"active_sessions": sessions.Sessions,
				"open_carts":      sessions.Carts,
				"items_in_carts":  sessions.ItemsInCart,
			}
		}
		responses.WriteSuccess(w, payload)
	}
}
