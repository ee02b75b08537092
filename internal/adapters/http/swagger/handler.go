// Package swagger serves the OpenAPI document and a ReDoc page for it.
package swagger

import (
	"context"
	"net/http"
	"strings"
)

// RedocVersion is the ReDoc release the docs page loads.
const RedocVersion = "2.1.5"

// RedocBundleURL is the versioned standalone bundle.
const RedocBundleURL = "https://cdn.redoc.ly/redoc/v" + RedocVersion + "/bundles/redoc.standalone.js"

// Register attaches the API docs routes to mux.
// Routes:
//
//	GET /api-docs      -> ReDoc HTML
//	GET /openapi.yaml  -> Embedded OpenAPI spec
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/api-docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexPage))
	})

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

var indexPage = strings.ReplaceAll(indexHTML, "{{bundle}}", RedocBundleURL)

const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>compass API Docs</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <div id="redoc-container"></div>
    <script src="{{bundle}}" crossorigin="anonymous"></script>
    <script>
      Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));
    </script>
  </body>
</html>`
