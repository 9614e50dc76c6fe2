package http

import (
	"encoding/json"
	"net/http"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), Code: code})
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.From(r.Context())

	switch {
	case goerr.HasTag(err, errs.TagValidation):
		logger.Warn("Bad Request", logging.ErrAttr(err))
		writeError(w, http.StatusBadRequest, errs.TagValidation.String(), err)

	case goerr.HasTag(err, errs.TagForbidden):
		logger.Warn("Forbidden", logging.ErrAttr(err))
		writeError(w, http.StatusForbidden, errs.TagForbidden.String(), err)

	case goerr.HasTag(err, errs.TagCapabilityDenied):
		logger.Info("Capability Denied", logging.ErrAttr(err))
		writeError(w, http.StatusPaymentRequired, errs.TagCapabilityDenied.String(), err)

	case errs.IsNoRecipient(err):
		logger.Info("No Recipient", logging.ErrAttr(err))
		writeError(w, http.StatusUnprocessableEntity, errs.TagNoRecipient.String(), err)

	case goerr.HasTag(err, errs.TagNotFound):
		logger.Warn("Not Found", logging.ErrAttr(err))
		writeError(w, http.StatusNotFound, errs.TagNotFound.String(), err)

	case goerr.HasTag(err, errs.TagInvalidState):
		logger.Warn("Conflict", logging.ErrAttr(err))
		writeError(w, http.StatusConflict, errs.TagInvalidState.String(), err)

	case goerr.HasTag(err, errs.TagRateLimit):
		logger.Warn("Rate Limit Exceeded", logging.ErrAttr(err))
		writeError(w, http.StatusTooManyRequests, errs.TagRateLimit.String(), err)

	case errs.IsTransport(err):
		logger.Error("Alert Store Error", logging.ErrAttr(err))
		writeError(w, http.StatusBadGateway, errs.TagTransport.String(), err)

	default:
		errs.Handle(r.Context(), err)
		writeError(w, http.StatusInternalServerError, errs.TagInternal.String(), err)
	}
}
