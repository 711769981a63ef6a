package common

import (
	"time"

	"github.com/guregu/null/v5"
)

// Ticket is one repair job. CostoRepuesto is snapshotted from the
// referenced inventory item when the ticket is created and never
// recomputed afterwards, even if the item's price changes or the item
// is deleted.
type Ticket struct {
	ID               string      `gorm:"column:id;primaryKey" json:"id"`
	OwnerID          string      `gorm:"column:owner_id;index" json:"-"`
	Cliente          string      `gorm:"column:cliente;index" json:"cliente"`
	Dispositivo      string      `gorm:"column:dispositivo" json:"dispositivo"`
	Problema         string      `gorm:"column:problema" json:"problema"`
	RepuestoID       null.String `gorm:"column:repuesto_id" json:"repuestoId"`
	Estado           Status      `gorm:"column:estado" json:"estado"`
	FechaCreacion    time.Time   `gorm:"column:fecha_creacion" json:"fechaCreacion"`
	CostoRepuesto    float64     `gorm:"column:costo_repuesto" json:"costoRepuesto"`
	PrecioReparacion float64     `gorm:"column:precio_reparacion" json:"precioReparacion"`
}

func (Ticket) TableName() string {
	return "tickets"
}
