package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carefinder/backend/internal/application/services"
)

// RecommendHandler handles facility recommendation HTTP requests
type RecommendHandler struct {
	recommendationService *services.RecommendationService
}

// NewRecommendHandler creates a new recommendation handler
func NewRecommendHandler(recommendationService *services.RecommendationService) *RecommendHandler {
	return &RecommendHandler{
		recommendationService: recommendationService,
	}
}

// Recommend handles POST /api/recommend
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req services.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.recommendationService.Recommend(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}
