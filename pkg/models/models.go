package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tag is a dietary or meat classification of a dish
type Tag int

const (
	TagBeef Tag = iota + 1
	TagPork
	TagPoultry
	TagFish
	TagVegetarian
	TagVegan
)

// AllTags lists every classification in display-table order
var AllTags = []Tag{TagBeef, TagPork, TagPoultry, TagFish, TagVegetarian, TagVegan}

var tagNames = map[Tag]string{
	TagBeef:       "beef",
	TagPork:       "pork",
	TagPoultry:    "poultry",
	TagFish:       "fish",
	TagVegetarian: "vegetarian",
	TagVegan:      "vegan",
}

// String returns the lower-case tag name
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

// ParseTag parses a tag name as produced by String
func ParseTag(name string) (Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for tag, n := range tagNames {
		if n == name {
			return tag, nil
		}
	}
	return 0, fmt.Errorf("unknown classification tag %q", name)
}

// MarshalJSON encodes the tag by name
func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tag name
func (t *Tag) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseTag(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Dish represents one menu item
type Dish struct {
	Category   string   `json:"category"`
	Main       string   `json:"main"`
	Components []string `json:"components,omitempty"`
	Tags       []Tag    `json:"tags,omitempty"`
}

// Menu holds the dishes served on one day
type Menu struct {
	Date       Date   `json:"date"`
	MainDishes []Dish `json:"main_dishes"`
	SideDishes []Dish `json:"side_dishes"`
}

// Date is a calendar day without time or location
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf returns the calendar date of t in t's location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// In returns midnight of the date in loc
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Format formats the date with a time layout
func (d Date) Format(layout string) string {
	return d.In(time.UTC).Format(layout)
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON encodes the date as YYYY-MM-DD
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Message is a rendered chat message ready for delivery
type Message struct {
	Subject string
	Body    string
}
