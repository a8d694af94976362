// Package leaflet is the OpenStreetMap map backend. It needs no key and no
// network probe.
package leaflet

import (
	"context"

	"github.com/vbonduro/clawmap/internal/mapview"
)

const (
	ScriptURL   = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"
	StyleURL    = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"
	TileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	Attribution = "&copy; OpenStreetMap contributors"
)

type Provider struct {
	mapview.Layer
}

func New() *Provider {
	return &Provider{}
}

// Factory builds a leaflet provider per render.
func Factory() mapview.Factory {
	return func() mapview.Provider { return New() }
}

func (p *Provider) Init(context.Context) error { return nil }

func (p *Provider) Config() mapview.WidgetConfig {
	return mapview.WidgetConfig{
		Provider:    "leaflet",
		ScriptURL:   ScriptURL,
		StyleURL:    StyleURL,
		TileURL:     TileURL,
		Attribution: Attribution,
		Center:      mapview.DefaultCenter,
		Zoom:        mapview.DefaultZoom,
	}
}
