package mapview

import "slices"

// Layer is the marker and click state shared by every backend. It is not safe
// for concurrent use; each render owns its provider.
type Layer struct {
	markers []Marker
	onClick func(ClickEvent)
}

func (l *Layer) AddMarker(m Marker) {
	l.markers = append(l.markers, m)
}

func (l *Layer) RemoveAllMarkers() {
	l.markers = nil
}

// Markers returns the markers in the order they were added.
func (l *Layer) Markers() []Marker {
	return slices.Clone(l.markers)
}

func (l *Layer) ShowPopup(id string) (Marker, bool) {
	for _, m := range l.markers {
		if m.ID == id {
			return m, true
		}
	}
	return Marker{}, false
}

func (l *Layer) OnClick(fn func(ClickEvent)) {
	l.onClick = fn
}

// Click delivers ev to the click handler. Clicks on an existing place are
// ignored so they open that place instead of starting a new one.
func (l *Layer) Click(ev ClickEvent) {
	if ev.OnPlace || l.onClick == nil {
		return
	}
	l.onClick(ev)
}
