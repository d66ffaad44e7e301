package handlers

import (
	"errors"
	"net/http"

	"meishi-backend/pkg/common"
	pkgerrors "meishi-backend/pkg/errors"
)

// respondAppError maps an application error onto the response envelope
func respondAppError(w http.ResponseWriter, err error) {
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		common.RespondError(w, pkgerrors.HTTPStatus(err), string(appErr.Type), appErr.Message)
		return
	}
	common.RespondError(w, http.StatusInternalServerError, string(pkgerrors.ErrorTypeInternal), "Internal server error")
}
