package models

import "time"

// Gender codes used across the app and the mobile client.
const (
	GenderMale   = 1
	GenderFemale = 2
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Age      int    `json:"age"`
	Gender   int    `json:"gender"` // 1=male, 2=female
	Height   float64 `json:"height"` // cm
	Weight   float64 `json:"weight"` // kg
	Activity int    `json:"activity"` // 1-4

	// Consumption records accepted since the last recommendation
	// recompute. Reset to 0 when a task is dispatched.
	WMACounter int `gorm:"default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
