package entity

import (
	"time"
)

type Equipment struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	TotalQuantity int       `json:"total_quantity" db:"total_quantity"`
	Category      string    `json:"category" db:"category"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// EquipmentAvailability is a catalog item with the units left for a date/time window.
type EquipmentAvailability struct {
	Equipment
	AvailableQuantity int `json:"available_quantity"`
}

// EquipmentUsage is a catalog item with the units held right now.
type EquipmentUsage struct {
	Equipment
	InUse        int     `json:"in_use"`
	Available    int     `json:"available"`
	UsagePercent float64 `json:"usage_percent"`
}

// Allocation is the (equipment, quantity) pair read back when computing usage.
type Allocation struct {
	BookingID   string `json:"booking_id"`
	EquipmentID string `json:"equipment_id"`
	Quantity    int    `json:"quantity"`
}
