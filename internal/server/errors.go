package server

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/entity"
	"github.com/joseph-ayodele/schedorder/internal/services/extraction"
)

func httpStatus(err error) int {
	switch {
	case errors.Is(err, extraction.ErrStoreDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, extraction.ErrStoreDisabled):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, common.ErrNotFound):
		return common.NotFoundError(err.Error())
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return common.InvalidArgumentError(err.Error())
	default:
		return common.InternalError(err.Error())
	}
}

// outcomeStatus maps an outcome to the HTTP status of the upload response.
func outcomeStatus(out entity.ExtractionOutcome) int {
	if out.Success {
		return http.StatusOK
	}
	switch out.ErrorKind {
	case constants.FailureDuplicate:
		return http.StatusConflict
	case constants.FailureMissingField, constants.FailureValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
