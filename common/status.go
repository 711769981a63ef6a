package common

// Status is the repair-ticket state. Wire values are kept in Spanish to
// stay compatible with the data already stored by the shop.
type Status string

const (
	StatusPendiente  Status = "Pendiente"
	StatusEnProgreso Status = "En Progreso"
	StatusListo      Status = "Listo"
	StatusEntregado  Status = "Entregado"
)

// Valid reports whether s is one of the four known states.
// Transitions are unconstrained: any valid state can follow any other.
func (s Status) Valid() bool {
	switch s {
	case StatusPendiente, StatusEnProgreso, StatusListo, StatusEntregado:
		return true
	}
	return false
}

// Finished reports whether the repair is done from the customer's point
// of view (ready for pickup or already delivered).
func (s Status) Finished() bool {
	return s == StatusListo || s == StatusEntregado
}
