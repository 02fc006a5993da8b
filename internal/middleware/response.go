package middleware

import (
	"net/http"

	apperrors "github.com/racevault/market-server/internal/errors"
	"github.com/racevault/market-server/internal/httputil"
)

func writeError(w http.ResponseWriter, status int, err *apperrors.AppError) {
	httputil.WriteErrorWithStatus(w, status, err)
}
