package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/racevault/market-server/internal/errors"
	"github.com/racevault/market-server/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return bodyError(err, "Invalid request body")
	}
	return nil
}

// bodyError reports a read past the body limit as 413 rather than a bad request.
func bodyError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.BodyTooLarge().WithCause(err)
	}
	return apperrors.ValidationError(message).WithCause(err)
}

// playerID is the game server's player id, sent as a JSON string or number.
type playerID string

func (p *playerID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = playerID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("playerId must be a string or number: %w", err)
	}
	*p = playerID(n.String())
	return nil
}
