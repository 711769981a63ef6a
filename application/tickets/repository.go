package tickets

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

// Repository is the gateway side of the tickets collection. Writes
// publish a full replacement snapshot of the owner's set afterwards,
// same contract as the inventory repository.
type Repository struct {
	db     *gorm.DB
	hub    *store.Hub[common.Ticket]
	mirror *store.Mirror[common.Ticket]
	log    *zap.Logger
}

func NewRepository(db *gorm.DB, hub *store.Hub[common.Ticket], mirror *store.Mirror[common.Ticket], log *zap.Logger) *Repository {
	return &Repository{db: db, hub: hub, mirror: mirror, log: log}
}

func (r *Repository) List(ctx context.Context, owner string) ([]common.Ticket, error) {
	var tickets []common.Ticket
	err := r.db.WithContext(ctx).Where("owner_id = ?", owner).Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

func (r *Repository) Get(ctx context.Context, owner, id string) (common.Ticket, error) {
	var ticket common.Ticket
	err := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", owner, id).First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.Ticket{}, common.ErrNotFound
	}
	if err != nil {
		return common.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

// Create persists the ticket under a store-assigned identifier.
func (r *Repository) Create(ctx context.Context, owner string, ticket common.Ticket) (common.Ticket, error) {
	ticket.ID = uuid.New().String()
	ticket.OwnerID = owner

	if err := r.db.WithContext(ctx).Create(&ticket).Error; err != nil {
		return common.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}
	r.publish(ctx, owner)
	return ticket, nil
}

// UpdateEstado writes the new status unconditionally; there is no
// ordering constraint between states.
func (r *Repository) UpdateEstado(ctx context.Context, owner, id string, estado common.Status) error {
	res := r.db.WithContext(ctx).Model(&common.Ticket{}).
		Where("owner_id = ? AND id = ?", owner, id).
		Update("estado", estado)
	if res.Error != nil {
		return fmt.Errorf("update estado: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// The UPDATE matches on identity only, so zero rows means the
		// ticket vanished, not that the value was already set.
		if _, err := r.Get(ctx, owner, id); errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
	}
	r.publish(ctx, owner)
	return nil
}

func (r *Repository) Delete(ctx context.Context, owner, id string) error {
	res := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", owner, id).Delete(&common.Ticket{})
	if res.Error != nil {
		return fmt.Errorf("delete ticket: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	r.publish(ctx, owner)
	return nil
}

// SearchByCliente is a one-shot equality query: exact match,
// case-sensitive, no normalization. The post-filter keeps the match
// case-sensitive even on MySQL's case-insensitive default collation.
func (r *Repository) SearchByCliente(ctx context.Context, owner, cliente string) ([]common.Ticket, error) {
	var tickets []common.Ticket
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND cliente = ?", owner, cliente).
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("search by cliente: %w", err)
	}

	exact := tickets[:0]
	for _, t := range tickets {
		if t.Cliente == cliente {
			exact = append(exact, t)
		}
	}
	return exact, nil
}

// publish refreshes the owner's mirrored set and notifies listeners.
// It runs after the write committed, so a failed refresh is logged
// instead of reported as a write failure; the next accepted write
// republishes the full set.
func (r *Repository) publish(ctx context.Context, owner string) {
	set, err := r.List(ctx, owner)
	if err != nil {
		r.log.Warn("ticket snapshot refresh failed after write",
			zap.String("owner", owner),
			zap.Error(err),
		)
		return
	}
	r.mirror.Replace(owner, set)
	r.hub.Publish(owner, set)
}

// Subscribe opens a snapshot feed for the owner's tickets.
func (r *Repository) Subscribe(owner string) (<-chan []common.Ticket, func()) {
	return r.hub.Subscribe(owner)
}

// Snapshot serves reads from the mirror, warming it from the store for
// owners this process has not seen yet.
func (r *Repository) Snapshot(ctx context.Context, owner string) ([]common.Ticket, error) {
	if set, ok := r.mirror.Snapshot(owner); ok {
		return set, nil
	}
	set, err := r.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	r.mirror.Replace(owner, set)
	return set, nil
}
