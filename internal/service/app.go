package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/vbonduro/clawmap/internal/cache"
	"github.com/vbonduro/clawmap/internal/domain"
	"github.com/vbonduro/clawmap/internal/geocode"
	"github.com/vbonduro/clawmap/internal/mapview"
	"github.com/vbonduro/clawmap/internal/projection"
	"github.com/vbonduro/clawmap/internal/render"
	"github.com/vbonduro/clawmap/internal/store"
)

// App owns all application state. Handlers reach it through the server, never
// through package variables.
type App struct {
	Spots     *Collection[domain.Spot]
	Meetups   *Collection[domain.Spot]
	Help      *Collection[domain.HelpListing]
	Creations *Collection[domain.Creation]

	geocoder geocode.Geocoder
	maps     mapview.Factory
	loc      *time.Location
	logger   *slog.Logger
}

type Options struct {
	Geocoder geocode.Geocoder
	Maps     mapview.Factory
	// Location is the viewer locale event dates are read in. Defaults to
	// time.Local.
	Location *time.Location
	Observer cache.Observer
}

func NewApp(repo repository, opts Options, logger *slog.Logger) *App {
	newest := &store.Order{Column: "created_at", Descending: true}

	a := &App{
		Spots: NewCollection[domain.Spot]("spots", repo, store.TableSpots,
			store.Query{Order: newest}, opts.Observer, logger),
		Meetups: NewCollection[domain.Spot]("meetups", repo, store.TableSpots,
			store.Query{
				Filters: []store.Filter{store.Eq("category", string(domain.CategoryMeetup))},
				Order:   &store.Order{Column: "event_date"},
			}, opts.Observer, logger),
		Help: NewCollection[domain.HelpListing]("help", repo, store.TableHelpSkills,
			store.Query{Order: newest}, opts.Observer, logger),
		Creations: NewCollection[domain.Creation]("creations", repo, store.TableCreations,
			store.Query{Order: newest}, opts.Observer, logger),
		geocoder: opts.Geocoder,
		maps:     opts.Maps,
		loc:      opts.Location,
		logger:   logger,
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	a.Spots.Also(a.Meetups)
	a.Meetups.Also(a.Spots)
	return a
}

func (a *App) collections() []loader {
	return []loader{a.Spots, a.Meetups, a.Help, a.Creations}
}

// LoadAll reloads every collection and joins their errors.
func (a *App) LoadAll(ctx context.Context) error {
	var errs []error
	for _, c := range a.collections() {
		if err := c.Load(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) Location() *time.Location {
	return a.loc
}

// SpotsView is the map sidebar for filter.
func (a *App) SpotsView(filter string) []domain.Spot {
	return projection.SpotsView(a.Spots.Snapshot(), filter)
}

// Calendar is the meetup list for one month.
func (a *App) Calendar(m projection.Month) []domain.Spot {
	return projection.EventsInMonth(a.Meetups.Snapshot(), m, a.loc)
}

func (a *App) HelpView(filter string) []domain.HelpListing {
	return projection.ByKind(a.Help.Snapshot(), filter, projection.ListingType)
}

// MapView is what a map page needs after a render.
type MapView struct {
	Available bool
	Widget    mapview.WidgetConfig
	Markers   []mapview.Marker
	Count     int
}

// RenderMap draws the spots for filter: list rows go to w and markers onto a
// fresh provider. When the widget cannot load the list is still drawn and
// Available is false.
func (a *App) RenderMap(ctx context.Context, w io.Writer, filter, viewerID string) (MapView, error) {
	spots := a.SpotsView(filter)
	provider := a.maps()

	view := MapView{Available: true, Widget: provider.Config(), Count: len(spots)}
	if err := provider.Init(ctx); err != nil {
		a.logger.Warn("map widget unavailable", "error", err)
		view.Available = false
	}

	if err := render.Draw(render.NewHTMLRenderer(w, provider, viewerID), spots); err != nil {
		return view, err
	}
	view.Markers = provider.Markers()
	return view, nil
}

// Markers returns the markers for filter without list output.
func (a *App) Markers(filter string) ([]mapview.Marker, error) {
	provider := a.maps()
	if err := render.NewEmitter(provider).Render(a.SpotsView(filter)); err != nil {
		return nil, err
	}
	return provider.Markers(), nil
}

// Draft is a new spot prefilled from a map click.
type Draft struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	City string  `json:"city"`
}

// DraftFromClick routes ev through the widget's click handling. It reports
// false when the click landed on an existing place.
func (a *App) DraftFromClick(ctx context.Context, ev mapview.ClickEvent) (Draft, bool) {
	var draft Draft
	var started bool

	provider := a.maps()
	provider.OnClick(func(ev mapview.ClickEvent) {
		started = true
		draft = Draft{Lat: ev.Lat, Lng: ev.Lng, City: a.ReverseGeocode(ctx, ev.Lat, ev.Lng)}
	})
	provider.Click(ev)
	return draft, started
}

// ReverseGeocode names the place at lat/lng, or "" when unknown.
func (a *App) ReverseGeocode(ctx context.Context, lat, lng float64) string {
	if a.geocoder == nil {
		return ""
	}
	return a.geocoder.ReverseGeocode(ctx, lat, lng)
}
