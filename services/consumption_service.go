package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backend/models"
	"backend/utils"

	"gorm.io/gorm"
)

// WMAThreshold is how many accepted consumption records accumulate
// before a recommendation recompute is dispatched to the worker pool.
const WMAThreshold = 30

// recentWindow is how many of the newest records ride along with a
// recompute job.
const recentWindow = 30

// ConsumptionService reconciles the append-mostly consumption log. Each
// incoming record is handled independently: a bad record is rejected and
// reported, it never aborts its siblings or the response.
type ConsumptionService struct {
	db    *gorm.DB
	tasks *TaskService
}

func NewConsumptionService(db *gorm.DB, tasks *TaskService) *ConsumptionService {
	return &ConsumptionService{db: db, tasks: tasks}
}

// ConsumptionChange is one locally-mutated record as the client sends
// it. Numeric fields are pointers so "absent" and "zero" stay distinct
// for structural validation.
type ConsumptionChange struct {
	ID              string   `json:"id"`
	UserID          *uint    `json:"user_id"`
	FoodID          *uint    `json:"food_id"`
	UnitID          *uint    `json:"unit_id"`
	DateReport      string   `json:"date_report"`
	PortionQuantity *float64 `json:"portion_quantity"`
	Percentage      *float64 `json:"percentage"`
	UpdatedAt       string   `json:"updated_at"`
}

type ConsumptionSyncRequest struct {
	LastSync     string              `json:"last_sync"`
	LocalChanges []ConsumptionChange `json:"local_changes"`
}

type RejectedRecord struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type ConsumptionSyncResult struct {
	ServerChanges  []models.Consumption `json:"server_changes"`
	Accepted       []string             `json:"accepted"`
	Rejected       []RejectedRecord     `json:"rejected"`
	Conflicts      []models.Consumption `json:"conflicts"`
	Recommendation []FoodRecommendation `json:"recommendation"`
	SyncTimestamp  string               `json:"sync_timestamp"`
}

// RecommendationFeatures is the snapshot the clustering model consumes.
// Field order matches the worker's feature_cols.
type RecommendationFeatures struct {
	Age        int     `json:"age"`
	BMI        float64 `json:"bmi"`
	Activity   int     `json:"activity"`
	Gender     int     `json:"gender"`
	CarbPct    float64 `json:"carb_pct"`
	ProteinPct float64 `json:"protein_pct"`
	FatPct     float64 `json:"fat_pct"`
}

// RecentRecord is the slim consumption row attached to a recompute job.
type RecentRecord struct {
	FoodID     uint      `json:"food_id"`
	DateReport time.Time `json:"date_report"`
}

// Reconcile runs one full sync cycle: pull server changes, apply local
// ones with per-record last-write-wins, bump the WMA counter by the
// accepted count, dispatch a recompute once it crosses the threshold,
// and attach any recommendation the worker finished earlier.
func (s *ConsumptionService) Reconcile(ctx context.Context, userID uint, req ConsumptionSyncRequest) (*ConsumptionSyncResult, error) {
	result := &ConsumptionSyncResult{
		ServerChanges:  []models.Consumption{},
		Accepted:       []string{},
		Rejected:       []RejectedRecord{},
		Conflicts:      []models.Consumption{},
		Recommendation: []FoodRecommendation{},
	}

	// Pull: everything newer than the client's checkpoint, or the whole
	// history when it has none.
	pullQ := s.db.Where("user_id = ?", userID).Order("date_report DESC")
	if since, ok := parseSyncTime(req.LastSync); ok {
		pullQ = pullQ.Where("updated_at > ?", since)
	}
	if err := pullQ.Find(&result.ServerChanges).Error; err != nil {
		return nil, err
	}

	// Push: each record stands alone.
	for _, change := range req.LocalChanges {
		if err := s.applyChange(change, result); err != nil {
			result.Rejected = append(result.Rejected, RejectedRecord{
				ID:     changeID(change),
				Reason: err.Error(),
			})
		}
	}

	s.maybeDispatchRecommendation(ctx, userID, len(result.Accepted))

	// Decoupled from the trigger above: the trigger produces a future
	// result, this surfaces a past one.
	recs, err := s.tasks.FetchRecommendation(ctx, userID)
	if err != nil {
		log.Printf("recommendation fetch unavailable for user %d: %v", userID, err)
	} else if recs != nil {
		result.Recommendation = recs
	}

	result.SyncTimestamp = timeNow().UTC().Format(time.RFC3339)
	return result, nil
}

func changeID(change ConsumptionChange) string {
	if change.ID == "" {
		return "unknown"
	}
	return change.ID
}

// applyChange validates and persists one record. A returned error means
// rejection; accepted records and conflicts are written into result.
func (s *ConsumptionService) applyChange(change ConsumptionChange, result *ConsumptionSyncResult) error {
	if change.ID == "" || change.UserID == nil || change.FoodID == nil ||
		change.UnitID == nil || change.DateReport == "" ||
		change.PortionQuantity == nil || change.Percentage == nil ||
		change.UpdatedAt == "" {
		return fmt.Errorf("invalid record structure")
	}
	if *change.PortionQuantity <= 0 {
		return fmt.Errorf("portion_quantity must be positive")
	}
	dateReport, ok := parseSyncTime(change.DateReport)
	if !ok {
		return fmt.Errorf("unparseable date_report")
	}
	// Missing/garbled timestamps already failed above; a client clock
	// stuck at epoch still loses every conflict below.
	clientTime, _ := parseSyncTime(change.UpdatedAt)

	var existing models.Consumption
	err := s.db.First(&existing, "id = ?", change.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record := models.Consumption{
			ID:              change.ID,
			UserID:          *change.UserID,
			FoodID:          *change.FoodID,
			UnitID:          *change.UnitID,
			DateReport:      dateReport,
			PortionQuantity: *change.PortionQuantity,
			Percentage:      *change.Percentage,
			UpdatedAt:       clientTime,
		}
		if err := s.db.Create(&record).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		// Ties favor the server: the client must be strictly newer to
		// overwrite, so resubmitting an already-accepted record reports
		// a conflict instead of rewriting the same row.
		if !clientTime.After(existing.UpdatedAt) {
			result.Conflicts = append(result.Conflicts, existing)
			return nil
		}
		existing.UserID = *change.UserID
		existing.FoodID = *change.FoodID
		existing.UnitID = *change.UnitID
		existing.DateReport = dateReport
		existing.PortionQuantity = *change.PortionQuantity
		existing.Percentage = *change.Percentage
		existing.UpdatedAt = clientTime
		if err := s.db.Save(&existing).Error; err != nil {
			return err
		}
	}

	result.Accepted = append(result.Accepted, change.ID)
	return nil
}

// maybeDispatchRecommendation advances the rolling counter by the batch's
// accepted count and fires a recompute once it crosses the threshold. A
// failed enqueue keeps the counter so the trigger re-fires next cycle;
// it never fails the sync.
func (s *ConsumptionService) maybeDispatchRecommendation(ctx context.Context, userID uint, accepted int) {
	if accepted == 0 {
		return
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		log.Printf("wma counter: load user %d: %v", userID, err)
		return
	}

	total := user.WMACounter + accepted
	if total >= WMAThreshold {
		job := map[string]interface{}{
			"user_id":        userID,
			"features":       s.buildFeatures(&user),
			"recent_records": s.recentRecords(userID),
		}
		if _, err := s.tasks.Dispatch(ctx, RecommendationTask, job); err != nil {
			log.Printf("recommendation dispatch failed for user %d: %v", userID, err)
		} else {
			total = 0
		}
	}

	// UpdateColumn on purpose: the counter must not advance the
	// profile's updated_at and trip the profile sync into conflicts.
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("wma_counter", total).Error; err != nil {
		log.Printf("wma counter: persist for user %d: %v", userID, err)
	}
}

func (s *ConsumptionService) buildFeatures(user *models.User) RecommendationFeatures {
	features := RecommendationFeatures{
		Age:      user.Age,
		Activity: user.Activity,
		Gender:   user.Gender,
		// Fallback macro split when the user has no usable history yet.
		CarbPct:    0.50,
		ProteinPct: 0.20,
		FatPct:     0.30,
	}
	if bmi, err := utils.CalculateBMI(user.Height, user.Weight); err == nil {
		features.BMI = bmi
	}

	carb, protein, fat, ok := s.macroBreakdown(user.ID)
	if ok {
		features.CarbPct = carb
		features.ProteinPct = protein
		features.FatPct = fat
	}
	return features
}

// macroBreakdown derives the calorie split of the user's recently logged
// foods (4 kcal/g for carbs and protein, 9 kcal/g for fat).
func (s *ConsumptionService) macroBreakdown(userID uint) (carb, protein, fat float64, ok bool) {
	var rows []struct {
		Carbohydrate float64
		Protein      float64
		Fat          float64
	}
	err := s.db.Table("consumptions").
		Select("foods.carbohydrate, foods.protein, foods.fat").
		Joins("JOIN foods ON foods.id = consumptions.food_id").
		Where("consumptions.user_id = ?", userID).
		Order("consumptions.date_report DESC").
		Limit(recentWindow).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return 0, 0, 0, false
	}

	var carbCal, proteinCal, fatCal float64
	for _, r := range rows {
		carbCal += r.Carbohydrate * 4
		proteinCal += r.Protein * 4
		fatCal += r.Fat * 9
	}
	total := carbCal + proteinCal + fatCal
	if total <= 0 {
		return 0, 0, 0, false
	}
	return carbCal / total, proteinCal / total, fatCal / total, true
}

func (s *ConsumptionService) recentRecords(userID uint) []RecentRecord {
	var rows []RecentRecord
	err := s.db.Model(&models.Consumption{}).
		Select("food_id, date_report").
		Where("user_id = ?", userID).
		Order("date_report DESC").
		Limit(recentWindow).
		Scan(&rows).Error
	if err != nil {
		log.Printf("recent records for user %d: %v", userID, err)
		return []RecentRecord{}
	}
	return rows
}

// Status summarizes the server side for a client deciding whether to
// sync at all.
type SyncStatus struct {
	ServerTime            string `json:"server_time"`
	LatestRecordTimestamp string `json:"latest_record_timestamp"`
	TotalRecords          int64  `json:"total_records"`
}

func (s *ConsumptionService) Status(userID uint) (*SyncStatus, error) {
	status := &SyncStatus{
		ServerTime: timeNow().UTC().Format(time.RFC3339),
	}

	if err := s.db.Model(&models.Consumption{}).
		Where("user_id = ?", userID).
		Count(&status.TotalRecords).Error; err != nil {
		return nil, err
	}

	var latest models.Consumption
	err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&latest).Error
	if err == nil {
		status.LatestRecordTimestamp = latest.UpdatedAt.UTC().Format(time.RFC3339)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return status, nil
}
