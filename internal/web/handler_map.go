package web

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/vbonduro/clawmap/internal/domain"
	"github.com/vbonduro/clawmap/internal/identity"
	"github.com/vbonduro/clawmap/internal/mapview"
	"github.com/vbonduro/clawmap/internal/projection"
	"github.com/vbonduro/clawmap/internal/render"
)

// spotForm backs partials/spot_form.html for both new drafts and edits.
// New spots refresh the sidebar list; edits refresh the detail panel.
type spotForm struct {
	Spot   domain.Spot
	Action string
	Filter string
	Target string
	Swap   string
}

func newSpotForm(s domain.Spot, filter string) spotForm {
	if s.Category == "" {
		s.Category = domain.CategoryLobster
	}
	return spotForm{Spot: s, Action: "/spots", Filter: filter, Target: "#spot-list", Swap: "outerHTML"}
}

func editSpotForm(s domain.Spot, filter string) spotForm {
	return spotForm{Spot: s, Action: "/spots/" + s.ID, Filter: filter, Target: "#detail", Swap: "innerHTML"}
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := filterParam(r)
	viewer := identity.FromContext(ctx)
	_ = s.app.Spots.Ensure(ctx)

	// HTMX partial update: return only the sidebar list. The page redraws
	// its markers from the same filter on filter-changed.
	if isHTMX(r) {
		spots := s.app.SpotsView(filter)
		trigger(w, "filter-changed", map[string]any{"filter": filter, "count": len(spots)})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.List(w, spots, viewer.ID); err != nil {
			s.logger.Error("render spot list", "error", err)
		}
		return
	}

	var list bytes.Buffer
	view, err := s.app.RenderMap(ctx, &list, filter, viewer.ID)
	if err != nil {
		s.writeError(w, r, "render map", err)
		return
	}

	if err := s.renderPage(w,
		map[string]any{
			"ActiveNav": "map",
			"Viewer":    viewer,
			"Filter":    filter,
			"List":      template.HTML(list.String()),
			"Map":       view,
			"Form":      newSpotForm(domain.Spot{}, filter),
		},
		"base.html", "pages/map.html", "partials/spot_form.html",
	); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	_ = s.app.Spots.Ensure(r.Context())
	markers, err := s.app.Markers(filterParam(r))
	if err != nil {
		s.writeError(w, r, "build markers", err)
		return
	}
	s.writeJSON(w, http.StatusOK, markers)
}

// handleMapClick turns a click on empty map into a prefilled new-spot form.
// Clicks on an existing place get 204 so the widget opens its popup instead.
func (s *Server) handleMapClick(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseCoords(r)
	if err != nil {
		s.writeError(w, r, "read click", err)
		return
	}
	onPlace, _ := strconv.ParseBool(r.FormValue("on_place"))

	draft, ok := s.app.DraftFromClick(r.Context(), mapview.ClickEvent{Lat: lat, Lng: lng, OnPlace: onPlace})
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if isHTMX(r) {
		form := newSpotForm(domain.Spot{Lat: draft.Lat, Lng: draft.Lng, City: draft.City}, filterParam(r))
		if err := s.renderPartial(w, "partials/spot_form.html", "spot_form", form); err != nil {
			s.logger.Error("render partial", "error", err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseCoords(r)
	if err != nil {
		s.writeError(w, r, "geocode", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"lat":  lat,
		"lng":  lng,
		"city": s.app.ReverseGeocode(r.Context(), lat, lng),
	})
}

func (s *Server) handleSpotDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	viewer := identity.FromContext(ctx)
	_ = s.app.Spots.Ensure(ctx)

	if r.URL.Query().Get("edit") != "" {
		spot, ok := s.app.Spots.Lookup(id)
		if !ok || !domain.CanEdit(spot, viewer.ID) {
			notOwned(w, "spot")
			return
		}
		form := editSpotForm(spot.Projected(), filterParam(r))
		if err := s.renderPartial(w, "partials/spot_form.html", "spot_form", form); err != nil {
			s.logger.Error("render partial", "error", err)
		}
		return
	}

	var buf bytes.Buffer
	found, err := render.Detail(&buf, s.app.Spots, id, viewer.ID)
	if err != nil {
		s.writeError(w, r, "render spot", err)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleCreateSpot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spot, err := spotFromForm(r)
	if err != nil {
		s.writeError(w, r, "create spot", err)
		return
	}

	viewer := identity.FromContext(ctx)
	if _, err := s.app.Spots.Create(ctx, viewer, spot); err != nil {
		s.writeError(w, r, "create spot", err)
		return
	}

	w.Header().Set("HX-Trigger", "spots-changed")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.List(w, s.app.SpotsView(filterParam(r)), viewer.ID); err != nil {
		s.logger.Error("render spot list", "error", err)
	}
}

func (s *Server) handleUpdateSpot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	spot, err := spotFromForm(r)
	if err != nil {
		s.writeError(w, r, "update spot", err)
		return
	}

	viewer := identity.FromContext(ctx)
	ok, err := s.app.Spots.Update(ctx, viewer, id, spot)
	if err != nil {
		s.writeError(w, r, "update spot", err)
		return
	}
	if !ok {
		notOwned(w, "spot")
		return
	}

	w.Header().Set("HX-Trigger", "spots-changed")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := render.Detail(w, s.app.Spots, id, viewer.ID); err != nil {
		s.logger.Error("render spot", "error", err)
	}
}

func (s *Server) handleDeleteSpot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ok, err := s.app.Spots.Delete(ctx, identity.FromContext(ctx), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, "delete spot", err)
		return
	}
	if !ok {
		notOwned(w, "spot")
		return
	}

	w.Header().Set("HX-Redirect", "/map")
	w.WriteHeader(http.StatusOK)
}

func filterParam(r *http.Request) string {
	f := strings.TrimSpace(r.FormValue("filter"))
	if f == "" {
		return projection.All
	}
	return f
}

func parseCoords(r *http.Request) (float64, float64, error) {
	lat, err := parseFloat(r, "lat", "latitude")
	if err != nil {
		return 0, 0, err
	}
	lng, err := parseFloat(r, "lng", "longitude")
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

func parseFloat(r *http.Request, field, label string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue(field)), 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: field, Message: label + " must be a number"}
	}
	return v, nil
}

// spotFromForm reads the spot fields. Normalization and validation happen in
// the collection.
func spotFromForm(r *http.Request) (domain.Spot, error) {
	lat, lng, err := parseCoords(r)
	if err != nil {
		return domain.Spot{}, err
	}
	return domain.Spot{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		City:        r.FormValue("city"),
		Category:    domain.Category(r.FormValue("category")),
		Lat:         lat,
		Lng:         lng,
		ImageURL:    r.FormValue("image_url"),
		EventDate:   r.FormValue("event_date"),
		XProfile:    r.FormValue("x_profile"),
	}, nil
}
