package httpx

import (
	"errors"
	"net/http"

	"github.com/eventdesk/eventdesk/internal/backend"
)

// RespondError maps errors from the backend relay to RFC7807 responses,
// passing the backend's own status and message through when present.
func RespondError(w http.ResponseWriter, err error) {
	var apiErr *backend.Error
	if errors.As(err, &apiErr) {
		Problem(w, apiErr.Status, http.StatusText(apiErr.Status), apiErr.Message)
		return
	}
	Problem(w, http.StatusBadGateway, "Backend Unavailable", "")
}
