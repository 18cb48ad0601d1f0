package assets

// responses.go provides helper functions for sending HTTP responses from the
// gateway handlers.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/asset-sharing-networks/ledgergate/internal/logger"
)

// ErrorResponse is the JSON body returned for failed requests. The message is
// always sanitized; the underlying error is only logged server-side.
type ErrorResponse struct {
	Message string `json:"message"`
}

// RespondWithErrorResponse logs the full error and sends a sanitized JSON
// error body.
//
// Ledger, enrollment and codec failures all map to a 500: the gateway does
// not distinguish "not found" from other chaincode rejections.
func RespondWithErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, message := mapError(err)

	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Error("request failed",
		slog.String("error", err.Error()),
		slog.Int("status_code", statusCode),
	)

	RespondWithJSONPayload(w, statusCode, ErrorResponse{Message: message})
}

func mapError(err error) (int, string) {
	var gatewayErr *GatewayError
	if errors.As(err, &gatewayErr) {
		switch gatewayErr.Code() {
		case ErrCodeMalformedRequest:
			// our own validation message, safe to return
			return http.StatusBadRequest, gatewayErr.message
		case ErrCodeEnrollmentFailed:
			return http.StatusInternalServerError, "Unable to register and enroll user!"
		case ErrCodeLedgerOperationFailed, ErrCodeCodec:
			return http.StatusInternalServerError, "Unable to complete ledger operation!"
		case ErrCodeRateLimitExceeded:
			return http.StatusTooManyRequests, gatewayErr.message
		case ErrCodeRequestTooLarge:
			return http.StatusRequestEntityTooLarge, gatewayErr.message
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

// LogRequestError logs a failed request for handlers that write their own
// response body.
func LogRequestError(r *http.Request, err error) {
	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Error("request failed",
		slog.String("error", err.Error()),
	)
}

// RespondWithJSONPayload sends a JSON response with the given status code.
func RespondWithJSONPayload(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// headers are already written; log and move on
			slog.Error("Failed to encode JSON response",
				slog.String("error", err.Error()),
			)
		}
	}
}

// RespondWithPrettyJSON sends an indented JSON response. The createAsset
// endpoint has always returned pretty-printed records and clients depend on
// it.
func RespondWithPrettyJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		slog.Error("Failed to encode JSON response",
			slog.String("error", err.Error()),
		)
		return
	}
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write JSON response",
			slog.String("error", err.Error()),
		)
	}
}
