package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

// Recovery перехватывает panic в обработчиках и отвечает 500
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				log.Error("Panic in HTTP handler", fmt.Errorf("%v", recovered),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				WriteJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "internal server error",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
