package domain

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError names the offending form field so callers can report it inline.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// DateLayout is the stored form of event dates.
const DateLayout = "2006-01-02"

var validate = newValidator()

// newValidator reports fields by their json name so errors line up with
// form inputs and store columns.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct runs the struct tag rules and converts the first failure into
// a *ValidationError.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return fmt.Errorf("failed to validate: %w", err)
	}
	fe := fields[0]
	return &ValidationError{Field: fe.Field(), Message: ruleMessage(fe)}
}

func ruleMessage(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return field + " is too long"
	case "oneof":
		return fmt.Sprintf("unknown %s %q", field, fe.Value())
	case "latitude":
		return "latitude must be between -90 and 90"
	case "longitude":
		return "longitude must be between -180 and 180"
	case "http_url":
		return "must be an http or https URL"
	case "datetime":
		return "event date must be YYYY-MM-DD"
	}
	return field + " is invalid"
}

var xHandleRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

var xHosts = map[string]bool{
	"x.com":              true,
	"www.x.com":          true,
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
}

// NormalizeXProfile maps "@handle", "handle", "x.com/handle" and
// "https://twitter.com/handle" to "https://x.com/handle". The second return is
// false when raw is non-empty but no handle could be extracted.
func NormalizeXProfile(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", true
	}
	if xHandleRe.MatchString(strings.TrimPrefix(s, "@")) {
		return "https://x.com/" + strings.TrimPrefix(s, "@"), true
	}

	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || !xHosts[strings.ToLower(u.Host)] {
		return strings.TrimSpace(raw), false
	}
	handle, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	handle = strings.TrimPrefix(handle, "@")
	if !xHandleRe.MatchString(handle) {
		return strings.TrimSpace(raw), false
	}
	return "https://x.com/" + handle, true
}

// Normalized trims every text field and clears the event date for
// categories other than meetup.
func (s Spot) Normalized() Spot {
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	s.City = strings.TrimSpace(s.City)
	s.ImageURL = strings.TrimSpace(s.ImageURL)
	s.EventDate = strings.TrimSpace(s.EventDate)
	if s.Category != CategoryMeetup {
		s.EventDate = ""
	}
	if x, ok := NormalizeXProfile(s.XProfile); ok {
		s.XProfile = x
	} else {
		s.XProfile = strings.TrimSpace(s.XProfile)
	}
	return s
}

// Projected returns the spot as it should be displayed: an event date is only
// meaningful for meetups, whatever the store holds.
func (s Spot) Projected() Spot {
	if s.Category != CategoryMeetup {
		s.EventDate = ""
	}
	return s
}

func (s Spot) Validate() error {
	if err := checkStruct(s); err != nil {
		return err
	}
	if s.EventDate != "" && s.Category != CategoryMeetup {
		return invalid("event_date", "only meetups have an event date")
	}
	if s.XProfile != "" && !strings.HasPrefix(s.XProfile, "https://x.com/") {
		return invalid("x_profile", "not a recognizable X profile")
	}
	return nil
}

// Fields returns the writable columns; empty optional values become NULL.
func (s Spot) Fields() map[string]any {
	return map[string]any{
		"name":        s.Name,
		"description": nullable(s.Description),
		"city":        s.City,
		"category":    string(s.Category),
		"lat":         s.Lat,
		"lng":         s.Lng,
		"image_url":   nullable(s.ImageURL),
		"event_date":  nullable(s.EventDate),
		"x_profile":   nullable(s.XProfile),
	}
}

// EventTime interprets the stored local date at noon in loc so the day never
// shifts across a timezone boundary.
func (s Spot) EventTime(loc *time.Location) (time.Time, bool) {
	return ParseEventDate(s.EventDate, loc)
}

func ParseEventDate(date string, loc *time.Location) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc), true
}

func (l HelpListing) Normalized() HelpListing {
	l.Title = strings.TrimSpace(l.Title)
	l.Description = strings.TrimSpace(l.Description)
	l.Skills = strings.TrimSpace(l.Skills)
	l.Contact = strings.TrimSpace(l.Contact)
	return l
}

func (l HelpListing) Validate() error {
	return checkStruct(l)
}

func (l HelpListing) Fields() map[string]any {
	return map[string]any{
		"type":        string(l.Type),
		"title":       l.Title,
		"description": nullable(l.Description),
		"skills":      nullable(l.Skills),
		"contact":     nullable(l.Contact),
	}
}

func (c Creation) Normalized() Creation {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	c.ImageURL = strings.TrimSpace(c.ImageURL)
	c.Link = strings.TrimSpace(c.Link)
	return c
}

func (c Creation) Validate() error {
	return checkStruct(c)
}

func (c Creation) Fields() map[string]any {
	return map[string]any{
		"title":       c.Title,
		"description": nullable(c.Description),
		"image_url":   nullable(c.ImageURL),
		"link":        nullable(c.Link),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
