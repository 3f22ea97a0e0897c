package menu

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/korjavin/mensaplan/pkg/models"
)

var monday = models.Date{Year: 2024, Month: 5, Day: 6}

func staticProvider(menus map[models.Date]models.Menu) Provider {
	return ProviderFunc(func(context.Context, string) (map[models.Date]models.Menu, error) {
		return menus, nil
	})
}

func TestLookupFound(t *testing.T) {
	p := staticProvider(map[models.Date]models.Menu{
		monday: {MainDishes: []models.Dish{{Category: "Tagesgericht", Main: "Linsensuppe"}}},
	})

	m, err := Lookup(context.Background(), p, "187", monday)
	if err != nil {
		t.Fatalf("Lookup returned %v", err)
	}
	if m.Date != monday || len(m.MainDishes) != 1 {
		t.Fatalf("unexpected menu %+v", m)
	}
}

func TestLookupMissingDate(t *testing.T) {
	p := staticProvider(map[models.Date]models.Menu{
		{Year: 2024, Month: 5, Day: 7}: {},
	})

	_, err := Lookup(context.Background(), p, "187", monday)
	if !errors.Is(err, ErrMenuUnavailable) {
		t.Fatalf("expected ErrMenuUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "2024-05-06") {
		t.Fatalf("error lacks the date: %v", err)
	}
}

func TestLookupProviderFailure(t *testing.T) {
	cause := errors.New("connection refused")
	p := ProviderFunc(func(context.Context, string) (map[models.Date]models.Menu, error) {
		return nil, cause
	})

	_, err := Lookup(context.Background(), p, "187", monday)
	if !errors.Is(err, ErrMenuUnavailable) {
		t.Fatalf("expected ErrMenuUnavailable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("provider error not wrapped: %v", err)
	}
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) || unavailable.Canteen != "187" {
		t.Fatalf("expected *UnavailableError for canteen 187, got %#v", err)
	}
}

type dayOnlyProvider struct {
	menus map[models.Date]models.Menu
	calls int
}

func (p *dayOnlyProvider) Menus(context.Context, string) (map[models.Date]models.Menu, error) {
	return nil, errors.New("full listing not supported")
}

func (p *dayOnlyProvider) Menu(_ context.Context, _ string, date models.Date) (models.Menu, error) {
	p.calls++
	m, ok := p.menus[date]
	if !ok {
		return models.Menu{}, errors.Errorf("nothing stored for %s", date)
	}
	return m, nil
}

func TestLookupUsesDayProvider(t *testing.T) {
	p := &dayOnlyProvider{menus: map[models.Date]models.Menu{
		monday: {MainDishes: []models.Dish{{Category: "Tagesgericht", Main: "Linsensuppe"}}},
	}}

	m, err := Lookup(context.Background(), p, "187", monday)
	if err != nil {
		t.Fatalf("Lookup returned %v", err)
	}
	if p.calls != 1 || m.Date != monday || m.MainDishes[0].Main != "Linsensuppe" {
		t.Fatalf("unexpected menu %+v after %d calls", m, p.calls)
	}

	_, err = Lookup(context.Background(), p, "187", models.Date{Year: 2024, Month: 5, Day: 7})
	if !errors.Is(err, ErrMenuUnavailable) || !strings.Contains(err.Error(), "nothing stored") {
		t.Fatalf("expected unavailable with cause, got %v", err)
	}
}
