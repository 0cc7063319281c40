package app

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jeongsan/jeongsan/pkg/operator"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {

	// Propagate X-Operator-Id header into context for downstream services
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			operatorIdHeader := req.Header.Get("X-Operator-Id")
			ctx := req.Context()

			if operatorIdHeader != "" {
				op, err := deps.OperatorService.GetByUid(ctx, operatorIdHeader)
				if err != nil {
					if errors.Is(err, operator.ErrOperatorNotFound) {
						log.Debugf("operator not found: %s", operatorIdHeader)
						http.Error(w, "operator not found", http.StatusForbidden)
						return
					}
					log.Errorf("failed to get operator: %v", err)
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				ctx = operator.WithOperator(ctx, op)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
