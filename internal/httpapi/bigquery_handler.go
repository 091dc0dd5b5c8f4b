package httpapi

import (
	"errors"
	"net/http"

	"bqadmin/internal/logging"
	"bqadmin/internal/utils"
)

// handleListDatasets relays the analytics backend's dataset list unchanged.
// project_id comes from the query string, or for POST from a JSON body.
func (d *Dependencies) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" && r.Method == http.MethodPost {
		var body struct {
			ProjectID string `json:"project_id"`
		}
		if err := decodeJSON(w, r, &body); err != nil && !errors.Is(err, errEmptyBody) {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		projectID = body.ProjectID
	}

	data, err := d.Analytics.ListDatasets(r.Context(), projectID)
	if err != nil {
		logging.Errorf("Error fetching datasets: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch datasets")
		return
	}

	utils.RespondWithRawJSON(w, http.StatusOK, data)
}
