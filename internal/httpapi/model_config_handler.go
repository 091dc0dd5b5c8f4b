package httpapi

import (
	"net/http"

	"bqadmin/internal/analytics"
	"bqadmin/internal/logging"
	"bqadmin/internal/middleware"
	"bqadmin/internal/utils"
)

// handleSaveModelConfig stores the session user's model selection upstream.
// The route is wrapped in RequireSession.
func (d *Dependencies) handleSaveModelConfig(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		Provider  analytics.Provider `json:"provider"`
		ModelName string             `json:"model_name"`
		APIKey    string             `json:"api_key"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Provider == "" || body.ModelName == "" || body.APIKey == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "provider, model_name, and api_key are required")
		return
	}
	if !body.Provider.IsValid() {
		utils.RespondWithError(w, http.StatusBadRequest, "provider must be one of claude, openai, gemini")
		return
	}

	data, err := d.Analytics.SaveModelConfig(r.Context(), analytics.ModelConfig{
		UserID:    identity.UserID,
		Provider:  body.Provider,
		ModelName: body.ModelName,
		APIKey:    body.APIKey,
	})
	if err != nil {
		logging.Errorf("Error saving model config for user %s: %v", identity.UserID, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save model configuration")
		return
	}

	utils.RespondWithRawJSON(w, http.StatusOK, data)
}
