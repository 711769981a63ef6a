package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digiaroficial/digi-reparaciones-app/common"
	"github.com/Digiaroficial/digi-reparaciones-app/internal/store"
)

// Repository is the gateway side of the inventory collection. Every
// accepted write re-reads the owner's full record set and publishes it
// as a replacement snapshot, so mirrors and stream listeners stay in
// step without diffing.
type Repository struct {
	db     *gorm.DB
	hub    *store.Hub[common.Item]
	mirror *store.Mirror[common.Item]
	log    *zap.Logger
}

func NewRepository(db *gorm.DB, hub *store.Hub[common.Item], mirror *store.Mirror[common.Item], log *zap.Logger) *Repository {
	return &Repository{db: db, hub: hub, mirror: mirror, log: log}
}

func (r *Repository) List(ctx context.Context, owner string) ([]common.Item, error) {
	var items []common.Item
	err := r.db.WithContext(ctx).Where("owner_id = ?", owner).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return items, nil
}

func (r *Repository) Get(ctx context.Context, owner, id string) (common.Item, error) {
	var item common.Item
	err := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", owner, id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.Item{}, common.ErrNotFound
	}
	if err != nil {
		return common.Item{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Create persists the item under a store-assigned identifier.
func (r *Repository) Create(ctx context.Context, owner string, item common.Item) (common.Item, error) {
	item.ID = uuid.New().String()
	item.OwnerID = owner

	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return common.Item{}, fmt.Errorf("create item: %w", err)
	}
	r.publish(ctx, owner)
	return item, nil
}

func (r *Repository) Delete(ctx context.Context, owner, id string) error {
	res := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", owner, id).Delete(&common.Item{})
	if res.Error != nil {
		return fmt.Errorf("delete item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	r.publish(ctx, owner)
	return nil
}

// DecrementStock takes exactly one unit off the item, refusing to go
// below zero. The stock floor lives in this single conditional UPDATE,
// so concurrent ticket creations cannot both win the last unit.
func (r *Repository) DecrementStock(ctx context.Context, owner, id string) error {
	res := r.db.WithContext(ctx).Model(&common.Item{}).
		Where("owner_id = ? AND id = ? AND stock > 0", owner, id).
		UpdateColumn("stock", gorm.Expr("stock - 1"))
	if res.Error != nil {
		return fmt.Errorf("decrement stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing item from one that is simply out of
		// stock; both refuse the decrement.
		if _, err := r.Get(ctx, owner, id); errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return common.ErrInsufficientStock
	}
	r.publish(ctx, owner)
	return nil
}

// publish refreshes the owner's mirrored set and notifies listeners.
// It runs after the write committed, so a failed refresh is logged
// instead of reported as a write failure; the next accepted write
// republishes the full set.
func (r *Repository) publish(ctx context.Context, owner string) {
	set, err := r.List(ctx, owner)
	if err != nil {
		r.log.Warn("inventory snapshot refresh failed after write",
			zap.String("owner", owner),
			zap.Error(err),
		)
		return
	}
	r.mirror.Replace(owner, set)
	r.hub.Publish(owner, set)
}

// Subscribe opens a snapshot feed for the owner's inventory.
func (r *Repository) Subscribe(owner string) (<-chan []common.Item, func()) {
	return r.hub.Subscribe(owner)
}
