package httpserver

import (
	"html/template"
	"net/http"
)

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Name}}</title>
</head>
<body>
  <h1>{{.Name}}</h1>
  <p>Status: <strong>running</strong> (version {{.Version}})</p>
  <h2>Endpoints</h2>
  <ul>
    <li><code>POST /analyze</code> analyze a single base64 encoded document (PDF, DOCX or TXT)</li>
    <li><code>POST /batch-analyze</code> analyze several documents in one request</li>
    <li><code>GET /health</code> liveness check</li>
    <li><code>GET|POST /test</code> connectivity test</li>
  </ul>
  <p>Generated at {{.Timestamp}}</p>
</body>
</html>
`))

type homeView struct {
	Name      string
	Version   string
	Timestamp string
}

// GET /
func (r *Router) handleHome(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := homeTemplate.Execute(w, homeView{
		Name:      Info.Name,
		Version:   Info.Version,
		Timestamp: r.now(),
	})
	if err != nil {
		r.logger.Error("http.home_render", "error", err)
	}
}
