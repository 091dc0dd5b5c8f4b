package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxRequestBody = 1 << 20

var errEmptyBody = errors.New("empty request body")

// decodeJSON reads a JSON request body into v. An empty body returns errEmptyBody.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}
