package handler

import (
	"html/template"
	"net/http"
)

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>Error</title></head>
<body>
<p class="ox-leaderboard-error">{{.}}</p>
</body>
</html>`))

// writeErrorPage writes a minimal HTML page carrying message
func writeErrorPage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = errorPage.Execute(w, message)
}
