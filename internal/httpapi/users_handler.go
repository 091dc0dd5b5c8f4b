package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"bqadmin/internal/logging"
	"bqadmin/internal/models"
	"bqadmin/internal/storage"
	"bqadmin/internal/utils"
)

type userResponse struct {
	User *models.User `json:"user"`
}

type usersResponse struct {
	Users []*models.User `json:"users"`
}

// rawFields decodes a JSON object keeping each value undecoded so the
// handlers can tell absent, null and wrongly typed fields apart.
func rawFields(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := decodeJSON(w, r, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// stringField reports the string value of key. ok is false when the field is
// absent, null or not a string.
func stringField(fields map[string]json.RawMessage, key string) (value string, ok bool) {
	raw, present := fields[key]
	if !present {
		return "", false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, raw[0] == '"'
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func (d *Dependencies) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := d.Users.List(r.Context())
	if err != nil {
		logging.Errorf("Error listing users: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, usersResponse{Users: users})
}

// handleCreateUser creates a user. The role is ADMIN only when the submitted
// role is exactly "ADMIN"; an empty name is stored as null.
func (d *Dependencies) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	fields, err := rawFields(w, r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email, ok := stringField(fields, "email")
	if !ok || email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	user := &models.User{Email: email, Role: models.RoleUser}

	if raw, present := fields["name"]; present && !isNull(raw) {
		name, ok := stringField(fields, "name")
		if !ok {
			utils.RespondWithError(w, http.StatusBadRequest, "name must be a string")
			return
		}
		if name != "" {
			user.Name = &name
		}
	}

	if role, ok := stringField(fields, "role"); ok {
		user.Role = models.ParseRole(role)
	}

	if err := d.Users.Create(r.Context(), user); err != nil {
		logging.Errorf("Error creating user: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, userResponse{User: user})
}

func (d *Dependencies) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := d.Users.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Not found")
			return
		}
		logging.Errorf("Error fetching user: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, userResponse{User: user})
}

// handleUpdateUser applies a partial update: a non-empty email, the name
// whenever present (null clears it) and a non-empty role.
func (d *Dependencies) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	fields, err := rawFields(w, r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var patch models.UserPatch

	if raw, present := fields["email"]; present && !isNull(raw) {
		email, ok := stringField(fields, "email")
		if !ok {
			utils.RespondWithError(w, http.StatusBadRequest, "email must be a string")
			return
		}
		if email != "" {
			patch.Email = &email
		}
	}

	if raw, present := fields["name"]; present {
		patch.NameSet = true
		if !isNull(raw) {
			name, ok := stringField(fields, "name")
			if !ok {
				utils.RespondWithError(w, http.StatusBadRequest, "name must be a string or null")
				return
			}
			patch.Name = &name
		}
	}

	if raw, present := fields["role"]; present && !isNull(raw) {
		s, ok := stringField(fields, "role")
		if !ok {
			utils.RespondWithError(w, http.StatusBadRequest, "role must be ADMIN or USER")
			return
		}
		if s != "" {
			role := models.Role(s)
			if !role.IsValid() {
				utils.RespondWithError(w, http.StatusBadRequest, "role must be ADMIN or USER")
				return
			}
			patch.Role = &role
		}
	}

	user, err := d.Users.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		// a missing id is reported like any other store failure
		logging.Errorf("Error updating user %s: %v", r.PathValue("id"), err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, userResponse{User: user})
}

func (d *Dependencies) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := d.Users.Delete(r.Context(), r.PathValue("id")); err != nil {
		logging.Errorf("Error deleting user %s: %v", r.PathValue("id"), err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
