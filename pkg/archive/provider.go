package archive

import (
	"context"

	"github.com/korjavin/mensaplan/pkg/logger"
	"github.com/korjavin/mensaplan/pkg/menu"
	"github.com/korjavin/mensaplan/pkg/models"
)

// Archiving wraps a provider so that every successful fetch is written to
// the store. Archive failures are logged and never fail the fetch.
func Archiving(p menu.Provider, s *Store) menu.Provider {
	return &archivingProvider{next: p, store: s, logger: logger.New("archive")}
}

type archivingProvider struct {
	next   menu.Provider
	store  *Store
	logger *logger.Logger
}

func (a *archivingProvider) Menus(ctx context.Context, canteen string) (map[models.Date]models.Menu, error) {
	menus, err := a.next.Menus(ctx, canteen)
	if err != nil {
		return nil, err
	}
	if err := a.store.PutAll(canteen, menus); err != nil {
		a.logger.Warn("Failed to archive %d menus of canteen %s: %v", len(menus), canteen, err)
	} else {
		a.logger.Debug("Archived %d menus of canteen %s", len(menus), canteen)
	}
	return menus, nil
}

// Offline returns a provider that serves menus from the archive only. Single
// days are read directly with Get.
func Offline(s *Store) menu.Provider {
	return &offlineProvider{store: s}
}

type offlineProvider struct {
	store *Store
}

func (o *offlineProvider) Menus(_ context.Context, canteen string) (map[models.Date]models.Menu, error) {
	return o.store.Menus(canteen)
}

func (o *offlineProvider) Menu(_ context.Context, canteen string, date models.Date) (models.Menu, error) {
	return o.store.Get(canteen, date)
}
