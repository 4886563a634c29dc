package handlers

import (
	"net/http"

	"github.com/coffeeshop/backend/services"
	"github.com/coffeeshop/backend/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, "")

	case services.IsValidationError(err), services.IsConflictError(err):
		// Invalid bodies and duplicate titles are both unprocessable.
		logger.Debug("request rejected",
			zap.String("error_type", string(services.GetErrorType(err))),
			zap.Any("details", services.GetErrorDetails(err)),
			zap.Error(err))
		writeErr = utils.WriteUnprocessable(w, services.GetErrorMessage(err))

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleDecodeError writes the 400 response for a body that is not JSON.
func HandleDecodeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	logger.Debug("malformed request body", zap.Error(err))
	if err := utils.WriteBadRequest(w, ""); err != nil {
		logger.Error("failed to write bad request response", zap.Error(err))
	}
}
