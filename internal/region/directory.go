package region

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rsilvagit/go-vacancies/internal/model"
)

// Directory keeps the last successfully fetched list of sub-regions for one root.
// A failed refresh keeps the previous list.
type Directory struct {
	client *AreaClient
	rootID string

	mu        sync.RWMutex
	areas     []model.Area
	updatedAt time.Time
}

func NewDirectory(client *AreaClient, rootID string) *Directory {
	return &Directory{client: client, rootID: rootID}
}

// RootID returns the hierarchy root this directory enumerates.
func (d *Directory) RootID() string {
	return d.rootID
}

// Refresh re-reads the hierarchy and replaces the cached list.
func (d *Directory) Refresh(ctx context.Context) error {
	tree, err := d.client.Tree(ctx, d.rootID)
	if err != nil {
		slog.Warn("region directory refresh failed", "component", "region", "root", d.rootID, "err", err)
		return err
	}
	areas := Flatten(tree)

	d.mu.Lock()
	d.areas = areas
	d.updatedAt = time.Now()
	d.mu.Unlock()

	slog.Info("region directory refreshed", "component", "region", "root", d.rootID, "areas", len(areas))
	return nil
}

// Areas returns a copy of the cached list and when it was fetched. The zero
// time means no refresh has succeeded yet.
func (d *Directory) Areas() ([]model.Area, time.Time) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.Area, len(d.areas))
	copy(out, d.areas)
	return out, d.updatedAt
}

// Lookup finds a cached area by id.
func (d *Directory) Lookup(id string) (model.Area, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range d.areas {
		if a.ID == id {
			return a, true
		}
	}
	return model.Area{}, false
}
