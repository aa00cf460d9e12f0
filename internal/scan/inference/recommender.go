package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/romariotrain/eyescan/internal/scan/models"
)

// Recommender calls POST /api/do_all for causes and treatments of a diagnosis.
type Recommender struct {
	client
}

func NewRecommender(cfg ClientConfig) (*Recommender, error) {
	c, err := newClient(cfg, "recommender")
	if err != nil {
		return nil, fmt.Errorf("recommender: %w", err)
	}
	return &Recommender{client: c}, nil
}

type doAllRequest struct {
	Diagnosis string `json:"diagnosis"`
	History   string `json:"history"`
	Language  string `json:"language"`
}

type doAllResponse struct {
	Causes     *string `json:"causes"`
	Treatments *string `json:"treatments"`
	Error      *string `json:"error"`
}

// Recommend fetches the recommendation for key. A non-empty "error" field in the
// body is returned as *models.ApplicationError regardless of status code.
func (r *Recommender) Recommend(ctx context.Context, key models.RecommendationKey) (models.RecommendationResult, error) {
	payload, err := json.Marshal(doAllRequest{
		Diagnosis: key.Label,
		History:   key.History,
		Language:  key.Language,
	})
	if err != nil {
		return models.RecommendationResult{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+"/api/do_all", bytes.NewReader(payload))
	if err != nil {
		return models.RecommendationResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, raw, err := r.do(req)
	if err != nil {
		return models.RecommendationResult{}, models.WrapTransport("do_all", err)
	}

	var out doAllResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if !isSuccess(resp.StatusCode) {
			return models.RecommendationResult{}, models.TransportErrorf("do_all status %d: %s", resp.StatusCode, snippet(raw))
		}
		return models.RecommendationResult{}, models.ParseErrorf("do_all body: %v", err)
	}

	if out.Error != nil && *out.Error != "" {
		return models.RecommendationResult{}, &models.ApplicationError{Message: *out.Error, Status: resp.StatusCode}
	}
	if !isSuccess(resp.StatusCode) {
		return models.RecommendationResult{}, models.TransportErrorf("do_all status %d", resp.StatusCode)
	}
	if out.Causes == nil || out.Treatments == nil {
		return models.RecommendationResult{}, models.ParseErrorf("do_all body lacks causes or treatments")
	}

	return models.ParseRecommendation(*out.Causes, *out.Treatments), nil
}
