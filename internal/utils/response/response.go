package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"syscall"

	"github.com/go-playground/validator/v10"

	"github.com/princekumarofficial/media-service/internal/types"
)

type Response struct {
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errorMessages string
	for _, err := range errs {
		errorMessages += err.Field() + ": " + err.Tag() + "; "
	}

	return Response{
		Status: StatusError,
		Error:  errorMessages,
	}
}

func RequestOK(message string, data interface{}) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// StatusFor maps a domain error to its HTTP status code.
func StatusFor(err error) int {
	var (
		inUse      *types.MediaInUseError
		transition *types.InvalidTransitionError
		notOwner   *types.NotOwnerError
		write      *types.StorageWriteError
		invalid    validator.ValidationErrors
	)
	switch {
	case types.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &inUse), errors.Is(err, types.ErrMediaDeleted):
		return http.StatusConflict
	case errors.As(err, &notOwner):
		return http.StatusForbidden
	case errors.Is(err, types.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, types.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &transition),
		errors.As(err, &invalid),
		errors.Is(err, types.ErrEmptyUpload),
		errors.Is(err, types.ErrInvalidCategory),
		errors.Is(err, types.ErrInvalidKind),
		errors.Is(err, types.ErrInvalidBulkAction),
		errors.Is(err, types.ErrTitleRequired),
		errors.Is(err, types.ErrNameRequired),
		errors.Is(err, types.ErrNegativeAge):
		return http.StatusBadRequest
	case errors.As(err, &write) && errors.Is(err, syscall.ENOSPC):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err with the status StatusFor picks.
func FromError(w http.ResponseWriter, err error) error {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		return WriteJSON(w, http.StatusBadRequest, ValidationError(invalid))
	}
	return WriteJSON(w, StatusFor(err), GeneralError(err))
}
