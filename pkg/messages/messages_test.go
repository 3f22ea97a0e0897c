package messages

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/korjavin/mensaplan/pkg/models"
)

var monday = models.Date{Year: 2024, Month: 5, Day: 6}

func sampleMenu() models.Menu {
	return models.Menu{
		MainDishes: []models.Dish{
			{Category: "Tellergericht", Main: "Currywurst", Components: []string{"Pommes frites"}, Tags: []models.Tag{models.TagPork}},
			{Category: "Vegetarisch", Main: "Gemüselasagne", Tags: []models.Tag{models.TagVegetarian}},
			{Category: "Pizza Classics", Main: "Pizza Margherita", Tags: []models.Tag{models.TagVegetarian}},
			{Category: "Klassiker", Main: "Rinderbraten", Components: []string{"Kartoffeln", "Karotten"}, Tags: []models.Tag{models.TagBeef}},
			{Category: "Burger Classics", Main: "Cheeseburger", Tags: []models.Tag{models.TagBeef}},
		},
		SideDishes: []models.Dish{
			{Category: "Hauptbeilagen", Main: "Reis"},
			{Category: "Nebenbeilage", Main: "Salat"},
			{Category: "Hauptbeilagen", Main: "Pommes frites"},
			{Category: "Nebenbeilage", Main: "Erbsen"},
		},
	}
}

func TestRenderSingleVeganDish(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	menu := models.Menu{
		MainDishes: []models.Dish{
			{Category: "Tagesgericht", Main: "Linsensuppe", Tags: []models.Tag{models.TagVegan}},
		},
	}

	msgs, err := r.Render(menu, monday)
	if err != nil {
		t.Fatalf("Render returned %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	want := "# Speiseplan Mensa Academica 06.05.2024\n\n" +
		"| | Gericht | Fleisch |\n|---|---|---|\n" +
		"| **Tagesgericht** | Linsensuppe | 🥦 |" +
		"\n\n Dazu:\n\n* , sowie\n* "
	if msgs[0].Body != want {
		t.Fatalf("body mismatch\ngot:  %q\nwant: %q", msgs[0].Body, want)
	}
	if msgs[0].Subject != "Mensa Speiseplan 06.05.2024" || msgs[1].Subject != msgs[0].Subject {
		t.Fatalf("unexpected subjects %q / %q", msgs[0].Subject, msgs[1].Subject)
	}
	if msgs[1].Body != "@all Wer kommt mit essen? Bitte mit 👍 oder 👎 reagieren." {
		t.Fatalf("unexpected call to action %q", msgs[1].Body)
	}
}

func TestRenderFullMenu(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	msgs, err := r.Render(sampleMenu(), monday)
	if err != nil {
		t.Fatalf("Render returned %v", err)
	}

	want := "# Speiseplan Mensa Academica 06.05.2024\n\n" +
		"| | Gericht | Fleisch |\n|---|---|---|\n" +
		"| **Tellergericht** | Currywurst 〈Pommes frites〉 | 🐖 |\n" +
		"| **Vegetarisch** | Gemüselasagne | 🧀 |\n" +
		"| **Klassiker** | Rinderbraten 〈Kartoffeln • Karotten〉 | 🐂 |" +
		"\n\n Dazu:\n\n* Reis oder Pommes frites, sowie\n* Salat oder Erbsen"
	if msgs[0].Body != want {
		t.Fatalf("body mismatch\ngot:  %q\nwant: %q", msgs[0].Body, want)
	}
}

func TestDishTitle(t *testing.T) {
	tests := []struct {
		dish models.Dish
		want string
	}{
		{models.Dish{Main: "Haupt", Components: []string{"Kartoffeln", "Karotten"}}, "Haupt 〈Kartoffeln • Karotten〉"},
		{models.Dish{Main: "Haupt", Components: []string{"Reis"}}, "Haupt 〈Reis〉"},
		{models.Dish{Main: "Haupt"}, "Haupt"},
		{models.Dish{Main: "Haupt", Components: []string{}}, "Haupt"},
	}
	for _, tt := range tests {
		if got := DishTitle(tt.dish); got != tt.want {
			t.Fatalf("DishTitle(%+v) = %q, want %q", tt.dish, got, tt.want)
		}
	}
}

func TestIconsVeganHidesVegetarian(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	orders := [][]models.Tag{
		{models.TagVegan, models.TagVegetarian},
		{models.TagVegetarian, models.TagVegan},
		{models.TagVegetarian, models.TagFish, models.TagVegan},
	}
	for _, tags := range orders {
		got, err := r.Icons(models.Dish{Tags: tags})
		if err != nil {
			t.Fatalf("Icons(%v) returned %v", tags, err)
		}
		if strings.Contains(got, "🧀") {
			t.Fatalf("Icons(%v) = %q shows the vegetarian icon", tags, got)
		}
		if !strings.Contains(got, "🥦") {
			t.Fatalf("Icons(%v) = %q lacks the vegan icon", tags, got)
		}
	}
}

func TestIconsKeepTagOrder(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	got, err := r.Icons(models.Dish{Tags: []models.Tag{models.TagPork, models.TagBeef, models.TagPork}})
	if err != nil {
		t.Fatal(err)
	}
	if got != "🐖 🐂" {
		t.Fatalf("Icons = %q, want %q", got, "🐖 🐂")
	}
	if got, _ := r.Icons(models.Dish{}); got != "" {
		t.Fatalf("Icons of untagged dish = %q", got)
	}
}

func TestIconsUnrecognizedClassification(t *testing.T) {
	cfg := DefaultConfig()
	delete(cfg.Icons, models.TagFish)
	r := NewRenderer(cfg)

	menu := models.Menu{MainDishes: []models.Dish{
		{Category: "Aktion", Main: "Seelachs", Tags: []models.Tag{models.TagFish}},
	}}
	msgs, err := r.Render(menu, monday)
	if !errors.Is(err, ErrUnrecognizedClassification) {
		t.Fatalf("expected ErrUnrecognizedClassification, got %v", err)
	}
	if msgs != nil {
		t.Fatalf("expected no messages, got %v", msgs)
	}

	var classification *ClassificationError
	if !errors.As(err, &classification) || classification.Main != "Seelachs" || classification.Tag != models.TagFish {
		t.Fatalf("error lacks detail: %#v", err)
	}

	if _, err := r.Icons(models.Dish{Tags: []models.Tag{models.Tag(42)}}); !errors.Is(err, ErrUnrecognizedClassification) {
		t.Fatalf("out-of-range tag accepted: %v", err)
	}
}

func TestFilterNeverKeepsExcludedCategories(t *testing.T) {
	cfg := DefaultConfig()
	r := NewRenderer(cfg)
	categories := append([]string{"Tellergericht", "Klassiker", "Vegetarisch", "Wok"}, cfg.ExcludedCategories...)
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		var dishes []models.Dish
		for i := 0; i < rng.Intn(12); i++ {
			dishes = append(dishes, models.Dish{
				Category: categories[rng.Intn(len(categories))],
				Main:     "Gericht",
			})
		}

		table, err := r.Table(r.Filter(dishes))
		if err != nil {
			t.Fatal(err)
		}
		for _, excluded := range cfg.ExcludedCategories {
			if strings.Contains(table, "**"+excluded+"**") {
				t.Fatalf("excluded category %q rendered:\n%s", excluded, table)
			}
		}
	}
}

func TestSideDishesAreNeverFiltered(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExcludedCategories = append(cfg.ExcludedCategories, "Hauptbeilagen")
	r := NewRenderer(cfg)

	summary := r.SideSummary([]models.Dish{{Category: "Hauptbeilagen", Main: "Reis"}})
	if !strings.Contains(summary, "* Reis, sowie") {
		t.Fatalf("side dish dropped: %q", summary)
	}
}

func TestSideSummaryIgnoresOtherCategories(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	got := r.SideSummary([]models.Dish{
		{Category: "Dessert", Main: "Pudding"},
		{Category: "Nebenbeilage", Main: "Brokkoli"},
	})
	if got != "\n\n Dazu:\n\n* , sowie\n* Brokkoli" {
		t.Fatalf("SideSummary = %q", got)
	}
}

func TestSideSummaryExactText(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	got := r.SideSummary([]models.Dish{{Category: "Hauptbeilagen", Main: "Reis"}})
	if want := "\n\n Dazu:\n\n* Reis, sowie\n* "; got != want {
		t.Fatalf("SideSummary = %q, want %q", got, want)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	first, err := r.Render(sampleMenu(), monday)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := NewRenderer(DefaultConfig()).Render(sampleMenu(), monday)
		if err != nil {
			t.Fatal(err)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("render %d differs in message %d", i, j)
			}
		}
	}
}

func TestRenderCustomTemplates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Heading = "## Menu {date}"
	cfg.Subject = "lunch {date}"
	cfg.CallToAction = "Who joins on {date}?"
	cfg.DateFormat = "2006-01-02"

	msgs, err := NewRenderer(cfg).Render(models.Menu{}, monday)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(msgs[0].Body, "## Menu 2024-05-06\n\n| | Gericht | Fleisch |") {
		t.Fatalf("heading not applied: %q", msgs[0].Body)
	}
	if msgs[0].Subject != "lunch 2024-05-06" || msgs[1].Body != "Who joins on 2024-05-06?" {
		t.Fatalf("templates not applied: %+v", msgs)
	}
}
