package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTag(t *testing.T) {
	for _, tag := range AllTags {
		got, err := ParseTag(tag.String())
		if err != nil || got != tag {
			t.Fatalf("ParseTag(%q) = %v, %v", tag.String(), got, err)
		}
	}
	if _, err := ParseTag("lamb"); err == nil {
		t.Fatal("expected error for unknown tag")
	}
	if got := Tag(99).String(); got != "tag(99)" {
		t.Fatalf("String() of unknown tag = %q", got)
	}
}

func TestDishJSONUsesTagNames(t *testing.T) {
	dish := Dish{Category: "Tagesgericht", Main: "Linsensuppe", Tags: []Tag{TagVegan, TagVegetarian}}
	data, err := json.Marshal(dish)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"category":"Tagesgericht","main":"Linsensuppe","tags":["vegan","vegetarian"]}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}

	var decoded Dish
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Tags) != 2 || decoded.Tags[0] != TagVegan || decoded.Tags[1] != TagVegetarian {
		t.Fatalf("tags lost order: %v", decoded.Tags)
	}
}

func TestDate(t *testing.T) {
	loc := time.FixedZone("CEST", 2*3600)
	d := DateOf(time.Date(2024, 5, 6, 23, 30, 0, 0, loc))
	if d.String() != "2024-05-06" {
		t.Fatalf("DateOf = %s", d)
	}
	if got := d.Format("02.01.2006"); got != "06.05.2024" {
		t.Fatalf("Format = %s", got)
	}

	parsed, err := ParseDate("2024-05-06")
	if err != nil || parsed != d {
		t.Fatalf("ParseDate = %v, %v", parsed, err)
	}
	if _, err := ParseDate("06.05.2024"); err == nil {
		t.Fatal("expected error for wrong layout")
	}

	var fromJSON Date
	if err := json.Unmarshal([]byte(`"2024-05-06"`), &fromJSON); err != nil || fromJSON != d {
		t.Fatalf("UnmarshalJSON = %v, %v", fromJSON, err)
	}
}
