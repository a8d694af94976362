package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/clawmap/internal/domain"
)

func ids(spots []domain.Spot) []string {
	out := make([]string, 0, len(spots))
	for _, s := range spots {
		out = append(out, s.ID)
	}
	return out
}

func scenario() []domain.Spot {
	return []domain.Spot{
		{ID: "1", Category: domain.CategoryLobster, Lat: 10, Lng: 20},
		{ID: "2", Category: domain.CategoryMeetup, EventDate: "2024-03-01"},
		{ID: "3", Category: domain.CategoryBusiness},
	}
}

func TestByKind_Scenario(t *testing.T) {
	spots := scenario()

	assert.Equal(t, []string{"2"}, ids(ByKind(spots, "meetup", SpotCategory)))
	assert.Equal(t, []string{"1", "2", "3"}, ids(ByKind(spots, All, SpotCategory)))
	assert.Equal(t, []string{"1", "2", "3"}, ids(ByKind(spots, "", SpotCategory)))
	assert.Empty(t, ByKind(spots, "castle", SpotCategory))
}

func TestByKind_PreservesRelativeOrder(t *testing.T) {
	listings := []domain.HelpListing{
		{ID: "a", Type: domain.ListingOffer},
		{ID: "b", Type: domain.ListingHelp},
		{ID: "c", Type: domain.ListingOffer},
		{ID: "d", Type: domain.ListingBounty},
		{ID: "e", Type: domain.ListingOffer},
	}
	got := ByKind(listings, "offer", ListingType)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "e", got[2].ID)
}

func TestByKind_DoesNotAlias(t *testing.T) {
	spots := scenario()
	got := ByKind(spots, All, SpotCategory)
	got[0].ID = "changed"
	assert.Equal(t, "1", spots[0].ID)
}

func TestSpotsView_ClearsNonMeetupEventDates(t *testing.T) {
	spots := []domain.Spot{
		{ID: "1", Category: domain.CategoryLobster, EventDate: "2024-03-01"},
		{ID: "2", Category: domain.CategoryMeetup, EventDate: "2024-03-01"},
		{ID: "3", Category: domain.CategoryBusiness, EventDate: "2024-05-09"},
	}
	got := SpotsView(spots, All)
	assert.Empty(t, got[0].EventDate)
	assert.Equal(t, "2024-03-01", got[1].EventDate)
	assert.Empty(t, got[2].EventDate)
	assert.Equal(t, "2024-03-01", spots[0].EventDate)
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2024, Month: time.March}, m)
	assert.Equal(t, "2024-03", m.String())
	assert.Equal(t, "March 2024", m.Label())

	_, err = ParseMonth("March")
	assert.Error(t, err)
	_, err = ParseMonth("2024-13")
	assert.Error(t, err)
}

func TestMonthNextPrev(t *testing.T) {
	dec := Month{Year: 2023, Month: time.December}
	assert.Equal(t, Month{Year: 2024, Month: time.January}, dec.Next())
	assert.Equal(t, dec, dec.Next().Prev())
	assert.Equal(t, Month{Year: 2023, Month: time.November}, dec.Prev())
}

func TestEventsInMonth_OnlyItsMonth(t *testing.T) {
	spots := []domain.Spot{{ID: "ides", Category: domain.CategoryMeetup, EventDate: "2024-03-15"}}

	for m := time.January; m <= time.December; m++ {
		got := EventsInMonth(spots, Month{Year: 2024, Month: m}, time.UTC)
		if m == time.March {
			assert.Equal(t, []string{"ides"}, ids(got))
		} else {
			assert.Empty(t, got, m.String())
		}
	}
	assert.Empty(t, EventsInMonth(spots, Month{Year: 2023, Month: time.March}, time.UTC))
}

func TestEventsInMonth_UndatedInEveryMonthAfterDated(t *testing.T) {
	spots := []domain.Spot{
		{ID: "undated-1", Category: domain.CategoryMeetup},
		{ID: "late", Category: domain.CategoryMeetup, EventDate: "2024-03-28"},
		{ID: "undated-2", Category: domain.CategoryMeetup},
		{ID: "early", Category: domain.CategoryMeetup, EventDate: "2024-03-02"},
		{ID: "april", Category: domain.CategoryMeetup, EventDate: "2024-04-01"},
		{ID: "early-too", Category: domain.CategoryMeetup, EventDate: "2024-03-02"},
	}

	got := EventsInMonth(spots, Month{Year: 2024, Month: time.March}, time.UTC)
	assert.Equal(t, []string{"early", "early-too", "late", "undated-1", "undated-2"}, ids(got))

	got = EventsInMonth(spots, Month{Year: 2025, Month: time.July}, time.UTC)
	assert.Equal(t, []string{"undated-1", "undated-2"}, ids(got))
}

func TestEventsInMonth_NoonAvoidsDayDrift(t *testing.T) {
	spots := []domain.Spot{{ID: "first", Category: domain.CategoryMeetup, EventDate: "2024-03-01"}}

	for _, loc := range []*time.Location{
		time.FixedZone("UTC-11", -11*60*60),
		time.FixedZone("UTC+14", 14*60*60),
	} {
		got := EventsInMonth(spots, Month{Year: 2024, Month: time.March}, loc)
		assert.Equal(t, []string{"first"}, ids(got), loc.String())
		assert.Empty(t, EventsInMonth(spots, Month{Year: 2024, Month: time.February}, loc), loc.String())
	}
}

func TestEventsInMonth_MalformedAndNonMeetup(t *testing.T) {
	spots := []domain.Spot{
		{ID: "bad", Category: domain.CategoryMeetup, EventDate: "soon"},
		{ID: "shop", Category: domain.CategoryBusiness, EventDate: "2024-03-10"},
	}
	got := EventsInMonth(spots, Month{Year: 2024, Month: time.March}, time.UTC)
	assert.Equal(t, []string{"shop"}, ids(got))
	assert.Empty(t, got[0].EventDate)
}
