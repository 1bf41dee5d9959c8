package services

import (
	"context"
	"errors"
	"log"
	"time"

	"backend/apperror"
	"backend/models"
	"backend/utils"

	"gorm.io/gorm"
)

type AuthService struct {
	db     *gorm.DB
	tokens *TokenService
	ml     *MLClient
}

func NewAuthService(db *gorm.DB, tokens *TokenService, ml *MLClient) *AuthService {
	return &AuthService{db: db, tokens: tokens, ml: ml}
}

type RegisterInput struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required"`
	Age      int     `json:"age" binding:"required"`
	Gender   int     `json:"gender" binding:"required"`
	Height   float64 `json:"height" binding:"required"`
	Weight   float64 `json:"weight" binding:"required"`
	Activity int     `json:"activity"`
}

type RegisterResult struct {
	Token              string               `json:"token"`
	UserID             uint                 `json:"user_id"`
	UpdatedAt          time.Time            `json:"updated_at"`
	FoodRecommendation []FoodRecommendation `json:"food_recommendation"`
}

// Register creates the account, issues a session token and best-effort
// fetches a starter recommendation set from the ML peer. The ML call
// failing must not fail the registration.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if input.Gender != models.GenderMale && input.Gender != models.GenderFemale {
		return nil, apperror.ValidationFailed("gender", "Invalid gender value")
	}
	if input.Activity == 0 {
		input.Activity = 2
	}
	if input.Activity < 1 || input.Activity > 4 {
		return nil, apperror.ValidationFailed("activity", "Invalid activity level")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperror.Conflict("Email already registered")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashed,
		Age:      input.Age,
		Gender:   input.Gender,
		Height:   input.Height,
		Weight:   input.Weight,
		Activity: input.Activity,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Password)
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{
		Token:              token,
		UserID:             user.ID,
		UpdatedAt:          user.UpdatedAt,
		FoodRecommendation: []FoodRecommendation{},
	}

	features := RecommendationFeatures{
		Age:        user.Age,
		Activity:   user.Activity,
		Gender:     user.Gender,
		CarbPct:    0.50,
		ProteinPct: 0.20,
		FatPct:     0.30,
	}
	if bmi, err := utils.CalculateBMI(user.Height, user.Weight); err == nil {
		features.BMI = bmi
	}
	if recs, err := s.ml.PredictCluster(ctx, user.ID, features); err != nil {
		log.Printf("starter recommendation unavailable for user %d: %v", user.ID, err)
	} else {
		result.FoodRecommendation = recs
	}

	return result, nil
}

type LoginResult struct {
	Token  string `json:"token"`
	UserID uint   `json:"user_id"`
}

func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	var user models.User
	if err := s.db.First(&user, "email = ?", email).Error; err != nil {
		return nil, apperror.Unauthorized("Invalid credentials")
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Password)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, UserID: user.ID}, nil
}

func (s *AuthService) Me(userID uint) (*ProfileView, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, err
	}
	view := profileView(&user)
	return &view, nil
}
