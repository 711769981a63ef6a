package tickets

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Digiaroficial/digi-reparaciones-app/common"
	"github.com/Digiaroficial/digi-reparaciones-app/internal/notify"
)

// Inventory is what the workflow needs from the parts side: a mirrored
// lookup and the gateway's conditional decrement.
type Inventory interface {
	FindByID(ctx context.Context, owner, id string) (common.Item, error)
	DecrementStock(ctx context.Context, owner, id string) error
}

// Notifier delivers a composed customer message; fire-and-forget.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Service implements the ticket workflow: intake with the stock
// side effect, free status transitions, deletion, and the client
// history query.
type Service struct {
	repo     *Repository
	parts    Inventory
	notifier Notifier
	log      *zap.Logger
}

func NewService(repo *Repository, parts Inventory, notifier Notifier, log *zap.Logger) *Service {
	return &Service{repo: repo, parts: parts, notifier: notifier, log: log}
}

// CreateTicket validates the draft, deducts one unit of the referenced
// part (if any), snapshots that part's cost, and persists the ticket as
// Pendiente. The decrement is issued strictly before the insert: a
// failed decrement means nothing was written, while an insert failure
// after a successful decrement leaves a deducted unit with no ticket.
// That window is logged and not compensated.
func (s *Service) CreateTicket(ctx context.Context, owner string, draft TicketDraft) (common.Ticket, error) {
	if err := ValidateDraft(draft); err != nil {
		return common.Ticket{}, err
	}

	costoRepuesto := 0.0
	deducted := false
	if draft.HasRepuesto() {
		item, err := s.parts.FindByID(ctx, owner, draft.RepuestoID.String)
		if errors.Is(err, common.ErrNotFound) {
			return common.Ticket{}, common.ErrInsufficientStock
		}
		if err != nil {
			return common.Ticket{}, err
		}
		if item.Stock <= 0 {
			return common.Ticket{}, common.ErrInsufficientStock
		}

		if err := s.parts.DecrementStock(ctx, owner, item.ID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.Ticket{}, common.ErrInsufficientStock
			}
			return common.Ticket{}, err
		}
		deducted = true
		costoRepuesto = item.Costo
	}

	ticket, err := s.repo.Create(ctx, owner, common.Ticket{
		Cliente:          draft.Cliente,
		Dispositivo:      draft.Dispositivo,
		Problema:         draft.Problema,
		RepuestoID:       draft.RepuestoID,
		Estado:           common.StatusPendiente,
		FechaCreacion:    time.Now(),
		CostoRepuesto:    costoRepuesto,
		PrecioReparacion: draft.PrecioReparacion,
	})
	if err != nil {
		if deducted {
			s.log.Warn("ticket insert failed after stock deduction, unit not restored",
				zap.String("repuestoId", draft.RepuestoID.String),
				zap.Error(err),
			)
		}
		return common.Ticket{}, err
	}

	s.log.Info("ticket created",
		zap.String("ticketId", ticket.ID),
		zap.String("cliente", ticket.Cliente),
		zap.Bool("conRepuesto", deducted),
	)
	return ticket, nil
}

// UpdateStatus accepts any of the four states in any order and is
// idempotent.
func (s *Service) UpdateStatus(ctx context.Context, owner, id string, estado common.Status) error {
	if err := ValidateStatus(estado); err != nil {
		return err
	}
	return s.repo.UpdateEstado(ctx, owner, id, estado)
}

// DeleteTicket removes the ticket. Deliberately does not restore any
// deducted stock; the unit was consumed by the repair attempt.
func (s *Service) DeleteTicket(ctx context.Context, owner, id string) error {
	return s.repo.Delete(ctx, owner, id)
}

// SearchByClient is a one-shot history lookup by exact client name. An
// empty or blank term is a no-op and returns nothing.
func (s *Service) SearchByClient(ctx context.Context, owner, cliente string) ([]common.Ticket, error) {
	if cliente == "" {
		return []common.Ticket{}, nil
	}
	return s.repo.SearchByCliente(ctx, owner, cliente)
}

// List returns the owner's current ticket set from the mirror.
func (s *Service) List(ctx context.Context, owner string) ([]common.Ticket, error) {
	return s.repo.Snapshot(ctx, owner)
}

// Notify composes the status message for a ticket and queues it for
// delivery. The part name resolves through the ledger and may come back
// empty if the part was deleted after the ticket was created.
func (s *Service) Notify(ctx context.Context, owner, id string) (string, error) {
	ticket, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return "", err
	}

	repuestoNombre := ""
	if ticket.RepuestoID.Valid && ticket.RepuestoID.String != "" {
		if item, err := s.parts.FindByID(ctx, owner, ticket.RepuestoID.String); err == nil {
			repuestoNombre = item.Nombre
		}
	}

	message := notify.Compose(ticket, repuestoNombre)
	if err := s.notifier.Send(ctx, message); err != nil {
		return "", err
	}
	return message, nil
}

// Subscribe opens a snapshot feed plus the current set to seed it. The
// subscription opens before the seed read so a write landing in between
// arrives on the channel instead of being lost.
func (s *Service) Subscribe(ctx context.Context, owner string) ([]common.Ticket, <-chan []common.Ticket, func(), error) {
	ch, cancel := s.repo.Subscribe(owner)
	initial, err := s.repo.Snapshot(ctx, owner)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return initial, ch, cancel, nil
}
