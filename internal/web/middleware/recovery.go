package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/leaderboard/internal/middleware"
)

// Recovery creates panic recovery middleware for the widget
// Returns an HTML error page on panic
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, widgetPanicHandler)
}

func widgetPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Error</title></head>
<body>
<div class="ox-lib-code">
<p class="ox-leaderboard-error">The leaderboard is not available right now. Please, try again later.</p>
</div>
</body>
</html>`))
}
