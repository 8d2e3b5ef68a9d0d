package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/petitions/petitiond/internal/common"
)

// maxPhotoBytes caps a photo upload body.
const maxPhotoBytes = 20 << 20

// statusFor maps a service error to its HTTP status. Unclassified errors are
// internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as "[code] message". Internal failures do not leak
// their cause; the caller is expected to log it.
func writeError(w http.ResponseWriter, err error) int {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeText(w, code, fmt.Sprintf("[%d] %s", code, msg))
	return code
}

// decodeJSON reads a JSON body into dst. An empty body decodes as {}.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: malformed request body: %v", common.ErrValidation, err)
	}
	return nil
}

// pathID parses the {id} URL parameter. Anything that is not a non-negative
// integer cannot name a stored entity.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: no entity with id %q", common.ErrNotFound, raw)
	}
	return id, nil
}

func token(r *http.Request) string {
	return r.Header.Get(common.AuthorizationHeaderName)
}

// readPhoto returns the request body and its declared content type.
func readPhoto(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPhotoBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: cannot read photo: %v", common.ErrValidation, err)
	}
	return data, r.Header.Get("Content-Type"), nil
}

func writePhoto(w http.ResponseWriter, data []byte, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
