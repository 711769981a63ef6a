package inventory

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Digiaroficial/digi-reparaciones-app/common"
)

// ItemDraft is the operator's input for a new spare part.
type ItemDraft struct {
	Nombre string  `json:"nombre"`
	Stock  int     `json:"stock"`
	Costo  float64 `json:"costo"`
}

// Service owns the explicit item lifecycle: operators create and delete
// parts here; stock itself is only ever mutated by the ticket workflow
// through DecrementStock.
type Service struct {
	repo   *Repository
	ledger *Ledger
	log    *zap.Logger
}

func NewService(repo *Repository, ledger *Ledger, log *zap.Logger) *Service {
	return &Service{repo: repo, ledger: ledger, log: log}
}

func (s *Service) List(ctx context.Context, owner string) ([]common.Item, error) {
	return s.ledger.Snapshot(ctx, owner)
}

func (s *Service) CreateItem(ctx context.Context, owner string, draft ItemDraft) (common.Item, error) {
	if err := validateItemDraft(draft); err != nil {
		return common.Item{}, err
	}

	item, err := s.repo.Create(ctx, owner, common.Item{
		Nombre: strings.TrimSpace(draft.Nombre),
		Stock:  draft.Stock,
		Costo:  draft.Costo,
	})
	if err != nil {
		return common.Item{}, err
	}
	s.log.Info("item created",
		zap.String("itemId", item.ID),
		zap.String("nombre", item.Nombre),
		zap.Int("stock", item.Stock),
	)
	return item, nil
}

// DeleteItem removes the part. Tickets referencing it keep their
// snapshotted cost; their part lookup simply resolves to nothing from
// now on.
func (s *Service) DeleteItem(ctx context.Context, owner, id string) error {
	return s.repo.Delete(ctx, owner, id)
}

// FindByID exposes the ledger lookup to collaborating services.
func (s *Service) FindByID(ctx context.Context, owner, id string) (common.Item, error) {
	return s.ledger.FindByID(ctx, owner, id)
}

// DecrementStock exposes the gateway's conditional decrement to the
// ticket workflow.
func (s *Service) DecrementStock(ctx context.Context, owner, id string) error {
	return s.repo.DecrementStock(ctx, owner, id)
}

// Subscribe opens a snapshot feed plus the current set to seed it. The
// subscription opens before the seed read so a write landing in between
// arrives on the channel instead of being lost.
func (s *Service) Subscribe(ctx context.Context, owner string) ([]common.Item, <-chan []common.Item, func(), error) {
	ch, cancel := s.repo.Subscribe(owner)
	initial, err := s.ledger.Snapshot(ctx, owner)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return initial, ch, cancel, nil
}

func validateItemDraft(d ItemDraft) error {
	if strings.TrimSpace(d.Nombre) == "" {
		return fmt.Errorf("%w: nombre is required", common.ErrInvalidInput)
	}
	if d.Stock < 0 {
		return fmt.Errorf("%w: stock must be >= 0, got %d", common.ErrInvalidInput, d.Stock)
	}
	if d.Costo < 0 {
		return fmt.Errorf("%w: costo must be >= 0, got %v", common.ErrInvalidInput, d.Costo)
	}
	return nil
}
