package models

import "time"

// Food is a catalog entry. The server is the sole writer; clients cache
// the catalog and pull deltas by updated_at.
type Food struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"not null" json:"name"`
	Energy       float64 `json:"energy"`       // kcal per 100g
	Protein      float64 `json:"protein"`      // g per 100g
	Fat          float64 `json:"fat"`          // g per 100g
	Carbohydrate float64 `json:"carbohydrate"` // g per 100g
	Bdd          float64 `json:"bdd"`          // edible portion, percent

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServingUnit is a household measure (glass, plate, spoon...) with its
// gram/ml equivalent.
type ServingUnit struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	Name            string  `gorm:"not null" json:"name"`
	GramsPerPortion float64 `json:"grams_per_portion"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FoodServingUnit links a food to the serving units it can be logged in.
type FoodServingUnit struct {
	FoodID        uint `gorm:"primaryKey" json:"food_id"`
	ServingUnitID uint `gorm:"primaryKey" json:"serving_unit_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
