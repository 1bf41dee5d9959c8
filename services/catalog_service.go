package services

import (
	"time"

	"backend/models"

	"gorm.io/gorm"
)

// CatalogService exports reference data to clients. One-way: the server
// is the only writer, so there is nothing to reconcile.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

type CatalogExport struct {
	Foods     []models.Food            `json:"foods"`
	Units     []models.ServingUnit     `json:"units"`
	Relations []models.FoodServingUnit `json:"relations"`

	SyncTimestamp  string `json:"sync_timestamp"`
	TotalFoods     int    `json:"total_foods"`
	TotalUnits     int    `json:"total_units"`
	TotalRelations int    `json:"total_relations"`
	IsFullSync     bool   `json:"is_full_sync"`
}

// Export returns the rows changed since the client's checkpoint, or the
// whole catalog when the checkpoint is absent or unreadable. Ordering is
// fixed so repeated exports are deterministic.
func (s *CatalogService) Export(lastSync string) (*CatalogExport, error) {
	since, delta := parseSyncTime(lastSync)

	foodsQ := s.db.Model(&models.Food{}).Order("id")
	unitsQ := s.db.Model(&models.ServingUnit{}).Order("id")
	relationsQ := s.db.Model(&models.FoodServingUnit{}).Order("food_id, serving_unit_id")
	if delta {
		foodsQ = foodsQ.Where("updated_at > ?", since)
		unitsQ = unitsQ.Where("updated_at > ?", since)
		relationsQ = relationsQ.Where("updated_at > ?", since)
	}

	out := &CatalogExport{
		Foods:     []models.Food{},
		Units:     []models.ServingUnit{},
		Relations: []models.FoodServingUnit{},
	}
	if err := foodsQ.Find(&out.Foods).Error; err != nil {
		return nil, err
	}
	if err := unitsQ.Find(&out.Units).Error; err != nil {
		return nil, err
	}
	if err := relationsQ.Find(&out.Relations).Error; err != nil {
		return nil, err
	}

	out.SyncTimestamp = timeNow().UTC().Format(time.RFC3339)
	out.TotalFoods = len(out.Foods)
	out.TotalUnits = len(out.Units)
	out.TotalRelations = len(out.Relations)
	out.IsFullSync = !delta
	return out, nil
}
