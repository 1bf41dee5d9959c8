package services

import (
	"errors"
	"time"

	"backend/apperror"
	"backend/models"

	"gorm.io/gorm"
)

// ProfileService runs the two-way profile sync. The policy is plain
// last-write-wins on updated_at, server dominating ties: profile fields
// are low-cardinality and rarely edited concurrently, so the occasional
// silent overwrite beats a distributed merge.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// ProfilePatch is the client-writable subset of the profile. Password,
// keys and counters are never accepted from a client; anything else the
// client sends is simply not representable here.
type ProfilePatch struct {
	Name     *string  `json:"name"`
	Age      *int     `json:"age"`
	Gender   *int     `json:"gender"`
	Height   *float64 `json:"height"`
	Weight   *float64 `json:"weight"`
	Activity *int     `json:"activity"`
}

// ProfileView is the profile as returned to clients: no credential
// digest, no internal counter.
type ProfileView struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	Gender    int       `json:"gender"`
	Height    float64   `json:"height"`
	Weight    float64   `json:"weight"`
	Activity  int       `json:"activity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProfileSyncResult struct {
	Profile    ProfileView `json:"profile"`
	Conflict   bool        `json:"conflict"`
	Resolution string      `json:"resolution,omitempty"`
}

func profileView(u *models.User) ProfileView {
	return ProfileView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		Gender:    u.Gender,
		Height:    u.Height,
		Weight:    u.Weight,
		Activity:  u.Activity,
		UpdatedAt: u.UpdatedAt,
	}
}

// Reconcile resolves one profile sync call. clientUpdatedAt == "" means
// the client only wants to read; an unreadable timestamp is treated as
// epoch zero, so the server wins.
func (s *ProfileService) Reconcile(userID uint, clientUpdatedAt string, patch *ProfilePatch) (*ProfileSyncResult, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, err
	}

	if clientUpdatedAt == "" {
		return &ProfileSyncResult{Profile: profileView(&user)}, nil
	}

	clientTime, _ := parseSyncTime(clientUpdatedAt)
	if user.UpdatedAt.After(clientTime) {
		// Server is newer: report the conflict, mutate nothing.
		return &ProfileSyncResult{
			Profile:    profileView(&user),
			Conflict:   true,
			Resolution: "server_wins",
		}, nil
	}

	if patch != nil {
		updates, err := validatePatch(patch)
		if err != nil {
			return nil, err
		}
		if len(updates) > 0 {
			// Updates also advances updated_at server-side.
			if err := s.db.Model(&user).Updates(updates).Error; err != nil {
				return nil, err
			}
			if err := s.db.First(&user, userID).Error; err != nil {
				return nil, err
			}
		}
	}

	return &ProfileSyncResult{Profile: profileView(&user)}, nil
}

func validatePatch(patch *ProfilePatch) (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Age != nil {
		if *patch.Age <= 0 {
			return nil, apperror.ValidationFailed("age", "Invalid age")
		}
		updates["age"] = *patch.Age
	}
	if patch.Gender != nil {
		if *patch.Gender != models.GenderMale && *patch.Gender != models.GenderFemale {
			return nil, apperror.ValidationFailed("gender", "Invalid gender value")
		}
		updates["gender"] = *patch.Gender
	}
	if patch.Activity != nil {
		if *patch.Activity < 1 || *patch.Activity > 4 {
			return nil, apperror.ValidationFailed("activity", "Invalid activity level")
		}
		updates["activity"] = *patch.Activity
	}
	if patch.Height != nil {
		if *patch.Height < 100 || *patch.Height > 250 {
			return nil, apperror.ValidationFailed("height", "Invalid height")
		}
		updates["height"] = *patch.Height
	}
	if patch.Weight != nil {
		if *patch.Weight < 20 || *patch.Weight > 300 {
			return nil, apperror.ValidationFailed("weight", "Invalid weight")
		}
		updates["weight"] = *patch.Weight
	}

	return updates, nil
}
