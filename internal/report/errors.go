package report

import (
	"errors"
	"net/http"

	"github.com/hofra/ingest/internal/metrics"
)

// Rejection classes. Every error returned by Service.Ingest wraps exactly one.
var (
	ErrMissingFile        = errors.New("missing file")
	ErrFileTooLarge       = errors.New("file too large")
	ErrUnsupportedType    = errors.New("unsupported file type")
	ErrStorageWriteFailed = errors.New("storage write failed")
)

// statusOf maps a pipeline error to its HTTP status.
func statusOf(err error) int {
	if errors.Is(err, ErrStorageWriteFailed) {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// outcomeOf maps a pipeline error to its metrics label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeStored
	case errors.Is(err, ErrFileTooLarge):
		return metrics.OutcomeTooLarge
	case errors.Is(err, ErrUnsupportedType):
		return metrics.OutcomeUnsupportedType
	case errors.Is(err, ErrStorageWriteFailed):
		return metrics.OutcomeStorageFailed
	default:
		return metrics.OutcomeMissingFile
	}
}
