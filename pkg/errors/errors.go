package errors

import (
	"net/http"

	"github.com/uniclub/uc-points/pkg/status"
)

// AppError carries the HTTP status code and the machine-readable status
// alongside the human-readable message, so handlers can surface domain
// failures verbatim.
type AppError struct {
	HTTPStatusCode int
	Status         string
	Message        string
}

func (e *AppError) Error() string {
	return e.Message
}

func New(httpStatusCode int, status string, message string) error {
	return &AppError{
		HTTPStatusCode: httpStatusCode,
		Status:         status,
		Message:        message,
	}
}

// Destruct extracts the AppError parts of err. Unknown error values are
// treated as internal server errors.
func Destruct(err error) *AppError {
	if ae, ok := err.(*AppError); ok {
		return ae
	}

	return &AppError{
		HTTPStatusCode: http.StatusInternalServerError,
		Status:         status.INTERNAL_SERVER_ERROR,
		Message:        err.Error(),
	}
}
