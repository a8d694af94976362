// Package render turns projected entities into escaped HTML fragments and map
// markers.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/vbonduro/clawmap/internal/domain"
	"github.com/vbonduro/clawmap/internal/mapview"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"categoryIcon":  func(c domain.Category) string { return c.Icon() },
	"categoryLabel": func(c domain.Category) string { return c.Label() },
	"listingLabel":  func(t domain.ListingType) string { return t.Label() },
	"eventDate":     formatEventDate,
}

var fragments = template.Must(template.New("render").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

// Funcs exposes the helpers fragments use so page templates can share them.
func Funcs() template.FuncMap {
	out := make(template.FuncMap, len(funcs))
	for k, v := range funcs {
		out[k] = v
	}
	return out
}

func formatEventDate(date string) string {
	t, ok := domain.ParseEventDate(date, time.UTC)
	if !ok {
		return date
	}
	return t.Format("Mon, Jan 2, 2006")
}

// SpotRow pairs a spot with whether the viewer may edit it.
type SpotRow struct {
	domain.Spot
	Editable bool
}

type ListingRow struct {
	domain.HelpListing
	Editable bool
}

type CreationRow struct {
	domain.Creation
	Editable bool
}

func spotRows(spots []domain.Spot, viewerID string) []SpotRow {
	rows := make([]SpotRow, 0, len(spots))
	for _, s := range spots {
		rows = append(rows, SpotRow{Spot: s.Projected(), Editable: domain.CanEdit(s, viewerID)})
	}
	return rows
}

// List writes the sidebar rows for spots.
func List(w io.Writer, spots []domain.Spot, viewerID string) error {
	return execute(w, "spot_list", spotRows(spots, viewerID))
}

// Events writes the calendar rows for meetups.
func Events(w io.Writer, spots []domain.Spot, viewerID string) error {
	return execute(w, "event_list", spotRows(spots, viewerID))
}

func HelpList(w io.Writer, listings []domain.HelpListing, viewerID string) error {
	rows := make([]ListingRow, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, ListingRow{HelpListing: l, Editable: domain.CanEdit(l, viewerID)})
	}
	return execute(w, "help_list", rows)
}

func CreationList(w io.Writer, creations []domain.Creation, viewerID string) error {
	rows := make([]CreationRow, 0, len(creations))
	for _, c := range creations {
		rows = append(rows, CreationRow{Creation: c, Editable: domain.CanEdit(c, viewerID)})
	}
	return execute(w, "creation_list", rows)
}

// Lookup finds a spot by id in whatever snapshot is current when called.
type Lookup interface {
	Lookup(id string) (domain.Spot, bool)
}

// Detail writes the detail panel for id, resolving the spot from src at call
// time. It reports false when the id is not in the snapshot.
func Detail(w io.Writer, src Lookup, id, viewerID string) (bool, error) {
	s, ok := src.Lookup(id)
	if !ok {
		return false, nil
	}
	row := SpotRow{Spot: s.Projected(), Editable: domain.CanEdit(s, viewerID)}
	return true, execute(w, "spot_detail", row)
}

// Popup renders the marker popup for s.
func Popup(s domain.Spot) (template.HTML, error) {
	var buf bytes.Buffer
	if err := execute(&buf, "spot_popup", s.Projected()); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// MarkerFor builds the map marker for s.
func MarkerFor(s domain.Spot) (mapview.Marker, error) {
	popup, err := Popup(s)
	if err != nil {
		return mapview.Marker{}, err
	}
	return mapview.Marker{
		ID:    s.ID,
		Lat:   s.Lat,
		Lng:   s.Lng,
		Icon:  s.Category.Icon(),
		Title: s.Name,
		Popup: popup,
	}, nil
}

func execute(w io.Writer, name string, data any) error {
	if err := fragments.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}
