package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/rileyhilliard/lookout/internal/probe"
)

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "CONFIG_INVALID"
	ErrCodeResolveFailed  = "NAME_RESOLUTION_FAILED"
	ErrCodeGeoFailed      = "GEO_LOOKUP_FAILED"
	ErrCodeProbeFailed    = "PROBE_FAILED"
	ErrCodeServerFailed   = "SERVER_FAILED"
	ErrCodeTargetsFailing = "TARGETS_FAILING"
	ErrCodeUnknown        = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONFailure writes an unsuccessful response that still carries data,
// e.g. a check whose targets are failing.
func WriteJSONFailure(w io.Writer, data interface{}, jsonErr *JSONError) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: false, Data: data, Error: jsonErr})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: false, Error: ErrorToJSON(err)})
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var lkErr *errors.Error
	if stderrors.As(err, &lkErr) {
		return &JSONError{
			Code:       mapErrorCode(lkErr.Code, lkErr.Message),
			Message:    lkErr.Message,
			Suggestion: lkErr.Suggestion,
		}
	}

	var probeErr *probe.Error
	if stderrors.As(err, &probeErr) {
		return &JSONError{
			Code:    ErrCodeProbeFailed,
			Message: probeErr.Error(),
			Details: map[string]interface{}{
				"reason":  probeErr.Reason.String(),
				"address": probeErr.Address,
			},
		}
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	switch internalCode {
	case errors.ErrConfig:
		// Distinguish between not found and invalid
		if strings.Contains(strings.ToLower(message), "not found") {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case errors.ErrResolve:
		return ErrCodeResolveFailed
	case errors.ErrGeo:
		return ErrCodeGeoFailed
	case errors.ErrProbe, errors.ErrTransport:
		return ErrCodeProbeFailed
	case errors.ErrServer:
		return ErrCodeServerFailed
	}
	return ErrCodeUnknown
}
