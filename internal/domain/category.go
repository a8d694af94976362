package domain

// Category distinguishes spot kinds on the map.
type Category string

const (
	CategoryLobster  Category = "lobster"
	CategoryMeetup   Category = "meetup"
	CategoryBusiness Category = "business"
)

type categoryInfo struct {
	label string
	icon  string
}

var categories = map[Category]categoryInfo{
	CategoryLobster:  {label: "Human Lobster / Builder", icon: "🦞"},
	CategoryMeetup:   {label: "Meetup & IRL Event", icon: "🏠"},
	CategoryBusiness: {label: "Business", icon: "💰"},
}

// Categories returns every spot category in display order.
func Categories() []Category {
	return []Category{CategoryLobster, CategoryMeetup, CategoryBusiness}
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Label falls back to the raw value for categories this build does not know.
func (c Category) Label() string {
	if info, ok := categories[c]; ok {
		return info.label
	}
	return string(c)
}

func (c Category) Icon() string {
	if info, ok := categories[c]; ok {
		return info.icon
	}
	return "📍"
}

// ListingType distinguishes help board posts.
type ListingType string

const (
	ListingHelp   ListingType = "help"
	ListingOffer  ListingType = "offer"
	ListingBounty ListingType = "bounty"
)

var listingLabels = map[ListingType]string{
	ListingHelp:   "Ask for help",
	ListingOffer:  "Offer services",
	ListingBounty: "Post bounty",
}

func ListingTypes() []ListingType {
	return []ListingType{ListingHelp, ListingOffer, ListingBounty}
}

func (t ListingType) Valid() bool {
	_, ok := listingLabels[t]
	return ok
}

func (t ListingType) Label() string {
	if label, ok := listingLabels[t]; ok {
		return label
	}
	return string(t)
}
