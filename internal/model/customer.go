package model

import "time"

// Customer is an optional counterparty on an order. Deleting a customer keeps
// the orders and nulls the reference.
type Customer struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(256);not null" json:"name"`
	LocText   string    `gorm:"type:varchar(256)" json:"loc_text,omitempty"`
	Note      string    `gorm:"type:varchar(256)" json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
