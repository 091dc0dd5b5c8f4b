package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bqadmin/internal/models"
)

type userBody struct {
	User struct {
		ID    string  `json:"id"`
		Email string  `json:"email"`
		Name  *string `json:"name"`
		Role  string  `json:"role"`
	} `json:"user"`
}

func decodeUser(t *testing.T, body []byte) userBody {
	t.Helper()
	var out userBody
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestCreateUser_Defaults(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do("POST", "/api/users", `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	got := decodeUser(t, w.Body.Bytes())
	assert.NotEmpty(t, got.User.ID)
	assert.Equal(t, "a@b.com", got.User.Email)
	assert.Equal(t, "USER", got.User.Role)
	assert.Nil(t, got.User.Name)
	assert.Contains(t, w.Body.String(), `"name":null`)
	assert.Contains(t, w.Body.String(), `"createdAt"`)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestCreateUser_Role(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{`"ADMIN"`, "ADMIN"},
		{`"admin"`, "USER"},
		{`"Admin"`, "USER"},
		{`"USER"`, "USER"},
		{`"SUPERUSER"`, "USER"},
		{`1`, "USER"},
		{`null`, "USER"},
	}

	for i, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			env := newTestEnv(t, nil)
			body := `{"email":"user` + string(rune('a'+i)) + `@b.com","role":` + tt.role + `}`

			w := env.do("POST", "/api/users", body)
			require.Equal(t, http.StatusCreated, w.Code)
			assert.Equal(t, tt.want, decodeUser(t, w.Body.Bytes()).User.Role)
		})
	}
}

func TestCreateUser_Name(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do("POST", "/api/users", `{"email":"named@b.com","name":"Ada"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	got := decodeUser(t, w.Body.Bytes())
	require.NotNil(t, got.User.Name)
	assert.Equal(t, "Ada", *got.User.Name)

	w = env.do("POST", "/api/users", `{"email":"blank@b.com","name":""}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, decodeUser(t, w.Body.Bytes()).User.Name, "empty name is stored as null")
}

func TestCreateUser_InvalidEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, body := range []string{
		`{}`,
		`{"email":""}`,
		`{"email":null}`,
		`{"email":42}`,
		`{"email":["a@b.com"]}`,
		`{"email":{"value":"a@b.com"}}`,
		`{"name":"No Email"}`,
	} {
		w := env.do("POST", "/api/users", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Zero(t, env.users.count(), "no record may be created")
}

func TestCreateUser_StoreFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.users.err = errors.New(`pq: relation "users" does not exist`)

	w := env.do("POST", "/api/users", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to create user"}`, w.Body.String())
}

func TestListUsers_NewestFirst(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do("GET", "/api/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"users":[]}`, w.Body.String())

	for _, email := range []string{"first@b.com", "second@b.com", "third@b.com"} {
		require.Equal(t, http.StatusCreated, env.do("POST", "/api/users", `{"email":"`+email+`"}`).Code)
	}

	w = env.do("GET", "/api/users", "")
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Users []models.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Users, 3)
	assert.Equal(t, "third@b.com", out.Users[0].Email)
	assert.Equal(t, "first@b.com", out.Users[2].Email)
}

func TestListUsers_StoreFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.users.err = errors.New("connection refused")

	w := env.do("GET", "/api/users", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to list users"}`, w.Body.String())
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t, nil)
	created := decodeUser(t, env.do("POST", "/api/users", `{"email":"a@b.com"}`).Body.Bytes())

	w := env.do("GET", "/api/users/"+created.User.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@b.com", decodeUser(t, w.Body.Bytes()).User.Email)

	w = env.do("GET", "/api/users/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}

func TestUpdateUser_Partial(t *testing.T) {
	env := newTestEnv(t, nil)
	created := decodeUser(t, env.do("POST", "/api/users", `{"email":"a@b.com","name":"Ada","role":"ADMIN"}`).Body.Bytes())
	path := "/api/users/" + created.User.ID

	w := env.do("PATCH", path, `{"email":"new@b.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeUser(t, w.Body.Bytes())
	assert.Equal(t, "new@b.com", got.User.Email)
	require.NotNil(t, got.User.Name)
	assert.Equal(t, "Ada", *got.User.Name)
	assert.Equal(t, "ADMIN", got.User.Role)

	w = env.do("PATCH", path, `{"email":"","role":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeUser(t, w.Body.Bytes())
	assert.Equal(t, "new@b.com", got.User.Email, "empty email is ignored")
	assert.Equal(t, "ADMIN", got.User.Role, "empty role is ignored")

	w = env.do("PATCH", path, `{"name":null,"role":"USER"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeUser(t, w.Body.Bytes())
	assert.Nil(t, got.User.Name, "explicit null clears the name")
	assert.Equal(t, "USER", got.User.Role)
}

func TestUpdateUser_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	created := decodeUser(t, env.do("POST", "/api/users", `{"email":"a@b.com"}`).Body.Bytes())
	path := "/api/users/" + created.User.ID

	for _, body := range []string{
		`{"role":"OWNER"}`,
		`{"role":5}`,
		`{"role":["ADMIN"]}`,
		`{"email":17}`,
		`{"name":false}`,
		`not json`,
	} {
		w := env.do("PATCH", path, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := env.do("PATCH", path, `{"role":5}`)
	assert.JSONEq(t, `{"error":"role must be ADMIN or USER"}`, w.Body.String())
	got := decodeUser(t, env.do("GET", path, "").Body.Bytes())
	assert.Equal(t, "USER", got.User.Role, "rejected patches leave the user untouched")
}

func TestUpdateUser_Missing(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do("PATCH", "/api/users/ghost", `{"name":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to update user"}`, w.Body.String())
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t, nil)
	created := decodeUser(t, env.do("POST", "/api/users", `{"email":"a@b.com"}`).Body.Bytes())

	w := env.do("DELETE", "/api/users/"+created.User.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Zero(t, env.users.count())

	w = env.do("DELETE", "/api/users/"+created.User.ID, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to delete user"}`, w.Body.String())
}
