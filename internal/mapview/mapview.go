// Package mapview describes the map widget the pages drive and the marker
// state a render leaves on it.
package mapview

import (
	"context"
	"errors"
	"html/template"
)

// ErrUnavailable means the widget cannot be used and the page should show a
// static message instead.
var ErrUnavailable = errors.New("map widget unavailable")

type Marker struct {
	ID    string        `json:"id"`
	Lat   float64       `json:"lat"`
	Lng   float64       `json:"lng"`
	Icon  string        `json:"icon"`
	Title string        `json:"title"`
	Popup template.HTML `json:"popup"`
}

// ClickEvent is a click on the widget. OnPlace is set when the click hit an
// existing place or marker rather than empty map.
type ClickEvent struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	OnPlace bool    `json:"on_place"`
}

// WidgetConfig is what the browser needs to boot the widget.
type WidgetConfig struct {
	Provider    string     `json:"provider"`
	ScriptURL   string     `json:"script_url"`
	StyleURL    string     `json:"style_url,omitempty"`
	TileURL     string     `json:"tile_url,omitempty"`
	Attribution string     `json:"attribution,omitempty"`
	Center      [2]float64 `json:"center"`
	Zoom        int        `json:"zoom"`
}

type Provider interface {
	Init(ctx context.Context) error
	AddMarker(m Marker)
	RemoveAllMarkers()
	Markers() []Marker
	ShowPopup(id string) (Marker, bool)
	OnClick(fn func(ClickEvent))
	Click(ev ClickEvent)
	Config() WidgetConfig
}

// Factory returns a fresh provider, one per render.
type Factory func() Provider

// DefaultCenter frames the whole world.
var DefaultCenter = [2]float64{20, 0}

const DefaultZoom = 2
