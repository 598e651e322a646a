package api

import (
	"net/http"

	"parley/internal/interfaces"
)

// ModelHandler handles HTTP requests for the gateway's model table.
type ModelHandler struct {
	registry interfaces.ModelRegistry
}

func NewModelHandler(registry interfaces.ModelRegistry) *ModelHandler {
	return &ModelHandler{registry: registry}
}

// HandleListModels godoc
// @Summary      List available models
// @Description  Gets the model table from the gateway, one entry per provider-qualified model.
// @Tags         Models
// @Produce      json
// @Success      200  {object}  llm.ModelList
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/models [get]
func (h *ModelHandler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.registry.Models(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models)
}
