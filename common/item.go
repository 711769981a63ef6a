package common

// Item is a spare part in stock. Stock is only ever decremented by
// ticket creation; deleting a ticket does not give the unit back.
type Item struct {
	ID      string  `gorm:"column:id;primaryKey" json:"id"`
	OwnerID string  `gorm:"column:owner_id;index" json:"-"`
	Nombre  string  `gorm:"column:nombre" json:"nombre"`
	Stock   int     `gorm:"column:stock" json:"stock"`
	Costo   float64 `gorm:"column:costo" json:"costo"`
}

func (Item) TableName() string {
	return "inventory"
}
