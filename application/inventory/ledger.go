package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Digiaroficial/digi-reparaciones-app/common"
	"github.com/Digiaroficial/digi-reparaciones-app/internal/store"
)

// Ledger is the read side of the inventory collection: it answers
// lookups from the mirrored snapshot and never writes. An owner that
// has not been mirrored yet (fresh process) is warmed from the store
// once, after which the snapshot feed keeps the mirror current.
type Ledger struct {
	mirror *store.Mirror[common.Item]
	repo   *Repository
}

func NewLedger(mirror *store.Mirror[common.Item], repo *Repository) *Ledger {
	return &Ledger{mirror: mirror, repo: repo}
}

// FindByID returns the item as last mirrored, or common.ErrNotFound.
func (l *Ledger) FindByID(ctx context.Context, owner, id string) (common.Item, error) {
	if err := l.warm(ctx, owner); err != nil {
		return common.Item{}, err
	}
	item, ok := l.mirror.Find(owner, id)
	if !ok {
		return common.Item{}, common.ErrNotFound
	}
	return item, nil
}

// HasStock reports whether the item exists and has at least one unit
// left, according to the last mirrored snapshot.
func (l *Ledger) HasStock(ctx context.Context, owner, id string) (bool, error) {
	item, err := l.FindByID(ctx, owner, id)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return item.Stock > 0, nil
}

// Snapshot returns the owner's full mirrored set.
func (l *Ledger) Snapshot(ctx context.Context, owner string) ([]common.Item, error) {
	if err := l.warm(ctx, owner); err != nil {
		return nil, err
	}
	set, _ := l.mirror.Snapshot(owner)
	return set, nil
}

func (l *Ledger) warm(ctx context.Context, owner string) error {
	if _, ok := l.mirror.Snapshot(owner); ok {
		return nil
	}
	set, err := l.repo.List(ctx, owner)
	if err != nil {
		return fmt.Errorf("warm ledger: %w", err)
	}
	l.mirror.Replace(owner, set)
	return nil
}
