package tickets

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v5"

	"github.com/Digiaroficial/digi-reparaciones-app/common"
)

// TicketDraft is the intake form for a new repair job. RepuestoID is
// optional; when present it must point at a part with stock left.
type TicketDraft struct {
	Cliente          string      `json:"cliente"`
	Dispositivo      string      `json:"dispositivo"`
	Problema         string      `json:"problema"`
	RepuestoID       null.String `json:"repuestoId"`
	PrecioReparacion float64     `json:"precioReparacion"`
}

// HasRepuesto reports whether the draft references a spare part.
func (d TicketDraft) HasRepuesto() bool {
	return d.RepuestoID.Valid && strings.TrimSpace(d.RepuestoID.String) != ""
}

// ValidateDraft checks the operator's input before anything is written.
func ValidateDraft(d TicketDraft) error {
	if strings.TrimSpace(d.Cliente) == "" {
		return fmt.Errorf("%w: cliente is required", common.ErrInvalidInput)
	}
	if strings.TrimSpace(d.Dispositivo) == "" {
		return fmt.Errorf("%w: dispositivo is required", common.ErrInvalidInput)
	}
	if strings.TrimSpace(d.Problema) == "" {
		return fmt.Errorf("%w: problema is required", common.ErrInvalidInput)
	}
	if d.PrecioReparacion < 0 {
		return fmt.Errorf("%w: precioReparacion must be >= 0, got %v", common.ErrInvalidInput, d.PrecioReparacion)
	}
	return nil
}

// ValidateStatus checks a requested status transition target. Any of
// the four states is acceptable in any order.
func ValidateStatus(s common.Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: unknown estado %q", common.ErrInvalidInput, string(s))
	}
	return nil
}
