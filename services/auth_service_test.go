package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend/apperror"
	"backend/models"
	"backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthFixture(t *testing.T, mlHandler http.HandlerFunc) (*AuthService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)

	mlURL := "http://127.0.0.1:1" // nothing listens here
	if mlHandler != nil {
		srv := httptest.NewServer(mlHandler)
		t.Cleanup(srv.Close)
		mlURL = srv.URL
	}

	return NewAuthService(db, newTestTokenService(t), NewMLClient(mlURL)), db
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Name:     "Dewi",
		Email:    email,
		Password: "s3cret-pass",
		Age:      28,
		Gender:   models.GenderFemale,
		Height:   162,
		Weight:   55,
		Activity: 2,
	}
}

func TestRegister_CreatesAccountAndToken(t *testing.T) {
	svc, db := newAuthFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict-cluster", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"foods":[{"user_id":1,"food_id":5,"recommendation_score":0.7}]}`))
	})

	result, err := svc.Register(context.Background(), registerInput("dewi@example.com"))
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "dewi@example.com").Error)
	assert.Equal(t, result.UserID, user.ID)
	assert.Equal(t, 0, user.WMACounter, "fresh account starts counting from zero")
	assert.True(t, utils.CheckPasswordHash("s3cret-pass", user.Password))
	assert.NotEqual(t, "s3cret-pass", user.Password, "only the digest is stored")

	claims, err := newTestTokenService(t).Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Password, claims.Set)

	require.Len(t, result.FoodRecommendation, 1)
	assert.Equal(t, uint(5), result.FoodRecommendation[0].FoodID)
}

func TestRegister_MLServiceDownStillSucceeds(t *testing.T) {
	svc, _ := newAuthFixture(t, nil)

	result, err := svc.Register(context.Background(), registerInput("offline@example.com"))
	require.NoError(t, err, "ML outage must not block registration")
	assert.NotEmpty(t, result.Token)
	assert.Empty(t, result.FoodRecommendation)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t, nil)

	_, err := svc.Register(context.Background(), registerInput("dup@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerInput("dup@example.com"))
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRegister_InvalidGender(t *testing.T) {
	svc, _ := newAuthFixture(t, nil)

	input := registerInput("gender@example.com")
	input.Gender = 3
	_, err := svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestRegister_ActivityDefaultsToLight(t *testing.T) {
	svc, db := newAuthFixture(t, nil)

	input := registerInput("default-activity@example.com")
	input.Activity = 0
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", input.Email).Error)
	assert.Equal(t, 2, user.Activity)
}

func TestLogin_RoundTrip(t *testing.T) {
	svc, _ := newAuthFixture(t, nil)
	_, err := svc.Register(context.Background(), registerInput("login@example.com"))
	require.NoError(t, err)

	result, err := svc.Login("login@example.com", "s3cret-pass")
	require.NoError(t, err)

	claims, err := newTestTokenService(t).Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.UserID, claims.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t, nil)
	_, err := svc.Register(context.Background(), registerInput("wrongpw@example.com"))
	require.NoError(t, err)

	_, err = svc.Login("wrongpw@example.com", "not-the-password")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t, nil)

	_, err := svc.Login("ghost@example.com", "whatever")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestMe_HidesCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t, nil)
	reg, err := svc.Register(context.Background(), registerInput("me@example.com"))
	require.NoError(t, err)

	view, err := svc.Me(reg.UserID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", view.Email)
	assert.Equal(t, 162.0, view.Height)
}

func TestMe_UnknownUser(t *testing.T) {
	svc, _ := newAuthFixture(t, nil)

	_, err := svc.Me(12345)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
