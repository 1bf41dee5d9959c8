package models

import (
	"fmt"
	"time"
)

// Consumption is one logged food intake. IDs are minted on the client as
// "<userID>|<unix seconds>.<microseconds>", so they are globally unique
// without a central sequence or a device id. UpdatedAt is owned by the
// reconciler (it stores whichever side won), so gorm must not touch it.
type Consumption struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"index;not null" json:"user_id"`
	FoodID          uint      `gorm:"not null" json:"food_id"`
	UnitID          uint      `gorm:"not null" json:"unit_id"`
	DateReport      time.Time `json:"date_report"`
	PortionQuantity float64   `json:"portion_quantity"`
	Percentage      float64   `json:"percentage"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// NewConsumptionID derives a record id from the owning user and a
// timestamp. Uniqueness rests on no two records for the same user being
// created inside the same microsecond; client clocks with coarser
// resolution would break that assumption.
func NewConsumptionID(userID uint, t time.Time) string {
	return fmt.Sprintf("%d|%d.%06d", userID, t.Unix(), t.Nanosecond()/1000)
}
