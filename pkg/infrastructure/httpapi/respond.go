package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/muses-project/progress/pkg/domain/progress"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON request body into v. An empty body decodes to the
// zero value when optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	raw, err := readBody(r)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		if optional {
			return nil
		}
		return fmt.Errorf("%w: json payload expected", progress.ErrBadRequest)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		if errors.Is(err, progress.ErrInvalidStatus) {
			return err
		}
		return fmt.Errorf("%w: body is not a json document: %v", progress.ErrBadRequest, err)
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", progress.ErrBadRequest, err)
	}
	if len(raw) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body larger than %d bytes", progress.ErrBadRequest, maxBodyBytes)
	}
	return raw, nil
}
