package messages

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/korjavin/mensaplan/pkg/models"
)

// ErrUnrecognizedClassification is matched when a dish carries a tag with no icon
var ErrUnrecognizedClassification = errors.New("unrecognized classification")

// ClassificationError names the dish and tag that could not be displayed
type ClassificationError struct {
	Category string
	Main     string
	Tag      models.Tag
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("no icon for classification %s on dish %q (%s)", e.Tag, e.Main, e.Category)
}

// Is reports whether target is ErrUnrecognizedClassification
func (e *ClassificationError) Is(target error) bool { return target == ErrUnrecognizedClassification }

const (
	datePlaceholder = "{date}"
	tableHeader     = "| | Gericht | Fleisch |\n|---|---|---|\n"
	componentSep    = " • "
	alternativeSep  = " oder "
)

// Config is the fixed layout of the announcement
type Config struct {
	// ExcludedCategories are main-dish categories left out of the table
	ExcludedCategories []string
	Icons              map[models.Tag]string
	// SideGroups are the two side-dish categories summarised below the table
	SideGroups [2]string
	// Heading, Subject and CallToAction may contain {date}
	Heading      string
	Subject      string
	CallToAction string
	DateFormat   string
}

// DefaultConfig returns the layout used for Mensa Academica Aachen
func DefaultConfig() Config {
	return Config{
		ExcludedCategories: []string{"Pizza Classics", "Burger Classics", "Fingerfood", "Ofenkartoffel"},
		Icons: map[models.Tag]string{
			models.TagBeef:       "🐂",
			models.TagPork:       "🐖",
			models.TagPoultry:    "🐔",
			models.TagVegetarian: "🧀",
			models.TagVegan:      "🥦",
			models.TagFish:       "🐟",
		},
		SideGroups:   [2]string{"Hauptbeilagen", "Nebenbeilage"},
		Heading:      "# Speiseplan Mensa Academica {date}",
		Subject:      "Mensa Speiseplan {date}",
		CallToAction: "@all Wer kommt mit essen? Bitte mit 👍 oder 👎 reagieren.",
		DateFormat:   "02.01.2006",
	}
}

// Renderer turns a day's menu into chat messages
type Renderer struct {
	cfg      Config
	excluded map[string]bool
}

// NewRenderer creates a renderer for the given layout
func NewRenderer(cfg Config) *Renderer {
	excluded := make(map[string]bool, len(cfg.ExcludedCategories))
	for _, category := range cfg.ExcludedCategories {
		excluded[category] = true
	}
	return &Renderer{cfg: cfg, excluded: excluded}
}

// Render returns the menu message followed by the call to action, both
// under the same subject.
func (r *Renderer) Render(menu models.Menu, date models.Date) ([]models.Message, error) {
	table, err := r.Table(r.Filter(menu.MainDishes))
	if err != nil {
		return nil, err
	}

	subject := r.withDate(r.cfg.Subject, date)
	body := r.withDate(r.cfg.Heading, date) + "\n\n" + table + r.SideSummary(menu.SideDishes)

	return []models.Message{
		{Subject: subject, Body: body},
		{Subject: subject, Body: r.withDate(r.cfg.CallToAction, date)},
	}, nil
}

// Filter drops main dishes in excluded categories, preserving order
func (r *Renderer) Filter(dishes []models.Dish) []models.Dish {
	kept := make([]models.Dish, 0, len(dishes))
	for _, dish := range dishes {
		if !r.excluded[dish.Category] {
			kept = append(kept, dish)
		}
	}
	return kept
}

// Icons returns the dish's classification icons joined by spaces. The
// vegetarian icon is hidden on vegan dishes.
func (r *Renderer) Icons(dish models.Dish) (string, error) {
	vegan := false
	for _, tag := range dish.Tags {
		if tag == models.TagVegan {
			vegan = true
		}
	}

	seen := make(map[models.Tag]bool, len(dish.Tags))
	icons := make([]string, 0, len(dish.Tags))
	for _, tag := range dish.Tags {
		icon, ok := r.cfg.Icons[tag]
		if !ok {
			return "", &ClassificationError{Category: dish.Category, Main: dish.Main, Tag: tag}
		}
		if seen[tag] || (vegan && tag == models.TagVegetarian) {
			continue
		}
		seen[tag] = true
		icons = append(icons, icon)
	}
	return strings.Join(icons, " "), nil
}

// Table renders the markdown table of main dishes
func (r *Renderer) Table(dishes []models.Dish) (string, error) {
	rows := make([]string, 0, len(dishes))
	for _, dish := range dishes {
		icons, err := r.Icons(dish)
		if err != nil {
			return "", err
		}
		rows = append(rows, fmt.Sprintf("| **%s** | %s | %s |", dish.Category, DishTitle(dish), icons))
	}
	return tableHeader + strings.Join(rows, "\n"), nil
}

// DishTitle returns the main component followed by the bracketed components
func DishTitle(dish models.Dish) string {
	if len(dish.Components) == 0 {
		return dish.Main
	}
	return fmt.Sprintf("%s 〈%s〉", dish.Main, strings.Join(dish.Components, componentSep))
}

// SideSummary lists the two side-dish groups as alternatives. A group
// without dishes yields an empty line.
func (r *Renderer) SideSummary(sides []models.Dish) string {
	groups := [2][]string{}
	for _, side := range sides {
		for i, category := range r.cfg.SideGroups {
			if side.Category == category {
				groups[i] = append(groups[i], side.Main)
			}
		}
	}
	return fmt.Sprintf("\n\n Dazu:\n\n* %s, sowie\n* %s",
		strings.Join(groups[0], alternativeSep),
		strings.Join(groups[1], alternativeSep))
}

func (r *Renderer) withDate(template string, date models.Date) string {
	return strings.ReplaceAll(template, datePlaceholder, date.Format(r.cfg.DateFormat))
}
