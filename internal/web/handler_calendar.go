package web

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/vbonduro/clawmap/internal/identity"
	"github.com/vbonduro/clawmap/internal/projection"
	"github.com/vbonduro/clawmap/internal/render"
)

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := identity.FromContext(ctx)

	month := projection.MonthOf(time.Now().In(s.app.Location()))
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := projection.ParseMonth(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		month = m
	}

	_ = s.app.Meetups.Ensure(ctx)
	events := s.app.Calendar(month)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.Events(w, events, viewer.ID); err != nil {
			s.logger.Error("render events", "error", err)
		}
		return
	}

	var list bytes.Buffer
	if err := render.Events(&list, events, viewer.ID); err != nil {
		s.writeError(w, r, "render calendar", err)
		return
	}
	if err := s.renderPage(w,
		map[string]any{
			"ActiveNav": "calendar",
			"Viewer":    viewer,
			"Month":     month,
			"Prev":      month.Prev(),
			"Next":      month.Next(),
			"Count":     len(events),
			"Events":    template.HTML(list.String()),
		},
		"base.html", "pages/calendar.html",
	); err != nil {
		s.logger.Error("render page", "error", err)
	}
}
