package render

import (
	"io"

	"github.com/vbonduro/clawmap/internal/domain"
	"github.com/vbonduro/clawmap/internal/mapview"
)

// Renderer is the display side of the load, project, render cycle.
type Renderer interface {
	RenderList(spots []domain.Spot) error
	RenderMarkers(spots []domain.Spot) error
}

// Draw renders spots as both list and markers.
func Draw(r Renderer, spots []domain.Spot) error {
	if err := r.RenderList(spots); err != nil {
		return err
	}
	return r.RenderMarkers(spots)
}

// Emitter owns the markers on one provider. Every Render tears down all
// markers and adds one per spot; nothing is diffed.
type Emitter struct {
	provider mapview.Provider
}

func NewEmitter(p mapview.Provider) *Emitter {
	return &Emitter{provider: p}
}

func (e *Emitter) Render(spots []domain.Spot) error {
	e.provider.RemoveAllMarkers()
	for _, s := range spots {
		m, err := MarkerFor(s)
		if err != nil {
			return err
		}
		e.provider.AddMarker(m)
	}
	return nil
}

// HTMLRenderer writes list rows to w and markers to a provider.
type HTMLRenderer struct {
	w        io.Writer
	viewerID string
	emitter  *Emitter
}

func NewHTMLRenderer(w io.Writer, p mapview.Provider, viewerID string) *HTMLRenderer {
	return &HTMLRenderer{w: w, viewerID: viewerID, emitter: NewEmitter(p)}
}

func (r *HTMLRenderer) RenderList(spots []domain.Spot) error {
	return List(r.w, spots, r.viewerID)
}

func (r *HTMLRenderer) RenderMarkers(spots []domain.Spot) error {
	return r.emitter.Render(spots)
}

// Recorder captures render calls without drawing anything.
type Recorder struct {
	Lists   [][]domain.Spot
	Markers [][]domain.Spot
}

func (r *Recorder) RenderList(spots []domain.Spot) error {
	r.Lists = append(r.Lists, append([]domain.Spot(nil), spots...))
	return nil
}

func (r *Recorder) RenderMarkers(spots []domain.Spot) error {
	r.Markers = append(r.Markers, append([]domain.Spot(nil), spots...))
	return nil
}
