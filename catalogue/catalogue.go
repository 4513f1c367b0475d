// Package catalogue implements the list/get/delete/stats endpoints spec §6
// groups as "catalogue endpoints", a thin wrapper over store.FingerprintStore.
package catalogue

import (
	"context"

	"shazoom/models"
	"shazoom/store"
)

// Catalogue exposes read/delete operations over the fingerprint store
// without touching the extraction or matching pipeline.
type Catalogue struct {
	store store.FingerprintStore
}

func New(s store.FingerprintStore) *Catalogue {
	return &Catalogue{store: s}
}

func (c *Catalogue) List(ctx context.Context) ([]models.Recording, error) {
	return c.store.List(ctx)
}

func (c *Catalogue) Get(ctx context.Context, id uint64) (models.Recording, error) {
	return c.store.Get(ctx, id)
}

func (c *Catalogue) Delete(ctx context.Context, id uint64) error {
	return c.store.DeleteRecording(ctx, id)
}

func (c *Catalogue) Stats(ctx context.Context) (models.Stats, error) {
	return c.store.Stats(ctx)
}
