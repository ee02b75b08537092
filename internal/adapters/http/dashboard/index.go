package dashboard

import (
	"bytes"
	"net/http"

	"github.com/okian/compass/pkg/errkind"
	"github.com/okian/compass/pkg/logger"
)

type indexData struct {
	Title       string
	RestartMode string
	PollSeconds float64
	PollMillis  int64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	mode := "disabled"
	if s.restarter != nil {
		mode = s.restarter.Mode()
	}
	data := indexData{
		Title:       s.title,
		RestartMode: mode,
		PollSeconds: s.poll.Seconds(),
		PollMillis:  s.poll.Milliseconds(),
	}

	var buf bytes.Buffer
	err := s.tmplErr
	if err == nil && s.tmpl == nil {
		err = ErrTemplate
	}
	if err == nil {
		err = s.tmpl.ExecuteTemplate(&buf, "index.html", data)
	}
	if err != nil {
		logger.Named("dashboard").Error(r.Context(), "index render failed",
			logger.Error(errkind.Wrap("dashboard.index", ErrTemplate, err)))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(templateFallback))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
