package openmensa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/korjavin/mensaplan/pkg/logger"
	"github.com/korjavin/mensaplan/pkg/models"
)

// Client fetches canteen menus from an OpenMensa v2 API
type Client struct {
	baseURL    string
	httpClient *http.Client
	sides      map[string]bool
	logger     *logger.Logger
}

// New creates a new OpenMensa client. Meals in sideCategories are returned
// as side dishes, all others as main dishes.
func New(baseURL string, timeout time.Duration, sideCategories []string) *Client {
	sides := make(map[string]bool, len(sideCategories))
	for _, category := range sideCategories {
		sides[category] = true
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		sides:      sides,
		logger:     logger.New("openmensa"),
	}
}

type day struct {
	Date   string `json:"date"`
	Closed bool   `json:"closed"`
	Meals  []meal `json:"meals"`
}

type meal struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Notes    []string `json:"notes"`
}

// noteKeywords maps lower-case note fragments to classifications, checked in order
var noteKeywords = []struct {
	keyword string
	tag     models.Tag
}{
	{"rind", models.TagBeef},
	{"schwein", models.TagPork},
	{"geflügel", models.TagPoultry},
	{"fisch", models.TagFish},
	{"vegetarisch", models.TagVegetarian},
	{"vegan", models.TagVegan},
}

// Menus returns the upcoming menus of a canteen keyed by date. Closed days
// are left out.
func (c *Client) Menus(ctx context.Context, canteen string) (map[models.Date]models.Menu, error) {
	endpoint := fmt.Sprintf("%s/canteens/%s/meals", c.baseURL, url.PathEscape(canteen))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build openmensa request")
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Info("Fetching menus for canteen %s", canteen)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "openmensa request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("openmensa returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var days []day
	if err := json.NewDecoder(resp.Body).Decode(&days); err != nil {
		return nil, errors.Wrap(err, "decode openmensa response")
	}

	menus := make(map[models.Date]models.Menu, len(days))
	for _, d := range days {
		if d.Closed {
			continue
		}
		date, err := models.ParseDate(d.Date)
		if err != nil {
			return nil, errors.Wrap(err, "openmensa day")
		}
		menus[date] = c.toMenu(date, d.Meals)
	}

	c.logger.Info("Fetched %d menus for canteen %s", len(menus), canteen)
	return menus, nil
}

func (c *Client) toMenu(date models.Date, meals []meal) models.Menu {
	menu := models.Menu{Date: date}
	for _, m := range meals {
		dish := ToDish(m.Category, m.Name, m.Notes)
		if c.sides[m.Category] {
			menu.SideDishes = append(menu.SideDishes, dish)
		} else {
			menu.MainDishes = append(menu.MainDishes, dish)
		}
	}
	return menu
}

// ToDish splits a meal name on "|" into the main component and further
// components, and derives classifications from the notes.
func ToDish(category, name string, notes []string) models.Dish {
	var parts []string
	for _, part := range strings.Split(name, "|") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	dish := models.Dish{Category: strings.TrimSpace(category)}
	if len(parts) > 0 {
		dish.Main = parts[0]
		dish.Components = parts[1:]
	}
	dish.Tags = tagsFromNotes(notes)
	return dish
}

func tagsFromNotes(notes []string) []models.Tag {
	var tags []models.Tag
	seen := make(map[models.Tag]bool)
	for _, note := range notes {
		lower := strings.ToLower(note)
		for _, kw := range noteKeywords {
			if strings.Contains(lower, kw.keyword) && !seen[kw.tag] {
				seen[kw.tag] = true
				tags = append(tags, kw.tag)
			}
		}
	}
	return tags
}
