package dashboard

import "github.com/Digiaroficial/digi-reparaciones-app/common"

// Stats are the dashboard counters, recomputed from the full ticket set
// on every read. Nothing here is cached or incremental.
type Stats struct {
	TotalTickets       int     `json:"totalTickets"`
	PendingTickets     int     `json:"pendingTickets"`
	ProgressTickets    int     `json:"progressTickets"`
	FinishedTickets    int     `json:"finishedTickets"`
	TotalRepuestosCost float64 `json:"totalRepuestosCost"`
	TotalIngresos      float64 `json:"totalIngresos"`
}

// Compute derives the counters from the current ticket mirror.
func Compute(tickets []common.Ticket) Stats {
	s := Stats{TotalTickets: len(tickets)}

	for _, t := range tickets {
		switch {
		case t.Estado == common.StatusPendiente:
			s.PendingTickets++
		case t.Estado == common.StatusEnProgreso:
			s.ProgressTickets++
		case t.Estado.Finished():
			s.FinishedTickets++
		}
		s.TotalRepuestosCost += t.CostoRepuesto
		s.TotalIngresos += t.PrecioReparacion
	}
	return s
}
