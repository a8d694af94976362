package domain

import "time"

// Entity is implemented by every row kind that carries an owner.
type Entity interface {
	EntityID() string
	Owner() string
}

type Spot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=4000"`
	City        string    `json:"city"`
	Category    Category  `json:"category" validate:"oneof=lobster meetup business"`
	Lat         float64   `json:"lat" validate:"latitude"`
	Lng         float64   `json:"lng" validate:"longitude"`
	ImageURL    string    `json:"image_url" validate:"omitempty,http_url"`
	EventDate   string    `json:"event_date" validate:"omitempty,datetime=2006-01-02"`
	XProfile    string    `json:"x_profile"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s Spot) EntityID() string { return s.ID }
func (s Spot) Owner() string    { return s.CreatedBy }

type HelpListing struct {
	ID          string      `json:"id"`
	Type        ListingType `json:"type" validate:"oneof=help offer bounty"`
	Title       string      `json:"title" validate:"required,max=200"`
	Description string      `json:"description" validate:"max=4000"`
	Skills      string      `json:"skills"`
	Contact     string      `json:"contact"`
	CreatedBy   string      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (l HelpListing) EntityID() string { return l.ID }
func (l HelpListing) Owner() string    { return l.CreatedBy }

type Creation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url" validate:"omitempty,http_url"`
	Link        string    `json:"link" validate:"omitempty,http_url"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c Creation) EntityID() string { return c.ID }
func (c Creation) Owner() string    { return c.CreatedBy }

// CanEdit reports whether viewerID may see edit and delete actions for e.
// It is a display guard only; the store enforces ownership on writes.
func CanEdit(e Entity, viewerID string) bool {
	return viewerID != "" && e.Owner() == viewerID
}
