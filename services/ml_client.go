package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"backend/apperror"
)

// MLClient talks to the external ML service over plain HTTP. It is an
// opaque peer: we only know its request/response shapes, never its
// models. All calls are bounded by the client timeout.
type MLClient struct {
	client  *http.Client
	baseURL string
}

func NewMLClient(baseURL string) *MLClient {
	return &MLClient{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
	}
}

// PredictCluster asks for an initial recommendation set for a freshly
// registered user, before any history exists.
func (m *MLClient) PredictCluster(ctx context.Context, userID uint, features RecommendationFeatures) ([]FoodRecommendation, error) {
	payload := map[string]interface{}{
		"user_id":  userID,
		"features": features,
	}

	var out struct {
		Foods []FoodRecommendation `json:"foods"`
	}
	if err := m.postJSON(ctx, "/predict-cluster", payload, &out); err != nil {
		return nil, err
	}
	return out.Foods, nil
}

// ActivityAnalysis is the classifier's verdict on a free-text activity
// description.
type ActivityAnalysis struct {
	ActivityLevel int    `json:"activity_level"`
	Label         string `json:"label,omitempty"`
}

func (m *MLClient) AnalyzeActivity(ctx context.Context, description string) (*ActivityAnalysis, error) {
	payload := map[string]interface{}{
		"activity_description": description,
	}

	var out ActivityAnalysis
	if err := m.postJSON(ctx, "/api/analyze-activity", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MLClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return apperror.Downstream(fmt.Sprintf("ml service unreachable: %v", err))
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Downstream(fmt.Sprintf("read ml response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		preview := string(respBytes)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return apperror.Downstream(fmt.Sprintf("ml service error (%d): %s", resp.StatusCode, preview))
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return apperror.Downstream(fmt.Sprintf("decode ml response: %v", err))
	}
	return nil
}
