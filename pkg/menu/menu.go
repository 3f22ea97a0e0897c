// Package menu defines the menu data provider contract and the lookup of a
// single day's menu from it.
package menu

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/korjavin/mensaplan/pkg/models"
)

// ErrMenuUnavailable is matched by every failure to obtain a day's menu
var ErrMenuUnavailable = errors.New("menu unavailable")

// Provider returns the menus a canteen has published, keyed by date
type Provider interface {
	Menus(ctx context.Context, canteen string) (map[models.Date]models.Menu, error)
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context, canteen string) (map[models.Date]models.Menu, error)

// Menus calls f
func (f ProviderFunc) Menus(ctx context.Context, canteen string) (map[models.Date]models.Menu, error) {
	return f(ctx, canteen)
}

// DayProvider is implemented by providers that can serve a single day
// without returning every published menu
type DayProvider interface {
	Menu(ctx context.Context, canteen string, date models.Date) (models.Menu, error)
}

// UnavailableError describes why a day's menu could not be obtained
type UnavailableError struct {
	Canteen string
	Date    models.Date
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("menu for canteen %s on %s unavailable: %v", e.Canteen, e.Date, e.Err)
	}
	return fmt.Sprintf("no menu for canteen %s on %s", e.Canteen, e.Date)
}

// Unwrap returns the provider error, if any
func (e *UnavailableError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMenuUnavailable
func (e *UnavailableError) Is(target error) bool { return target == ErrMenuUnavailable }

// Lookup returns the canteen's menu for date. Providers that implement
// DayProvider are asked for that day only.
func Lookup(ctx context.Context, p Provider, canteen string, date models.Date) (models.Menu, error) {
	if dp, ok := p.(DayProvider); ok {
		m, err := dp.Menu(ctx, canteen, date)
		if err != nil {
			return models.Menu{}, &UnavailableError{Canteen: canteen, Date: date, Err: err}
		}
		m.Date = date
		return m, nil
	}

	menus, err := p.Menus(ctx, canteen)
	if err != nil {
		return models.Menu{}, &UnavailableError{Canteen: canteen, Date: date, Err: err}
	}

	m, ok := menus[date]
	if !ok {
		return models.Menu{}, &UnavailableError{Canteen: canteen, Date: date}
	}
	m.Date = date
	return m, nil
}
