package http

import (
	"encoding/json"
	"net/http"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/usecase"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/user"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(err, "failed to decode request body", goerr.T(errs.TagValidation))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(r.Context()).Warn("failed to write response", logging.ErrAttr(err))
	}
}

func alertIDParam(r *http.Request) (types.AlertID, error) {
	id := types.AlertID(chi.URLParam(r, "alertID"))
	if err := id.Validate(); err != nil {
		return "", goerr.Wrap(err, "invalid alert id",
			goerr.T(errs.TagValidation), goerr.TV(errutil.AlertIDKey, id))
	}
	return id, nil
}

type sendAlertRequest struct {
	Plate   string        `json:"plate"`
	Urgency types.Urgency `json:"urgency"`
	Message string        `json:"message,omitempty"`
}

func sendAlertHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body sendAlertRequest
		if err := decodeJSON(r, &body); err != nil {
			handleError(w, r, err)
			return
		}

		result, err := uc.SendAlert(r.Context(), usecase.SendRequest{
			Sender:  user.FromContext(r.Context()),
			Plate:   body.Plate,
			Urgency: body.Urgency,
			Message: body.Message,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, result)
	}
}

func sentAlertsHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, uc.SentAlerts())
	}
}

func sentAlertHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := alertIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		view, ok := uc.SentAlert(id)
		if !ok {
			handleError(w, r, goerr.New("alert was not sent from this process",
				goerr.T(errs.TagNotFound), goerr.TV(errutil.AlertIDKey, id)))
			return
		}
		writeJSON(w, r, http.StatusOK, view)
	}
}

func openAlertHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := alertIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		a, err := uc.OpenAlert(r.Context(), user.FromContext(r.Context()), id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, a)
	}
}

type respondRequest struct {
	Response types.ResponseCode `json:"response"`
	Message  string             `json:"message,omitempty"`
}

func respondHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := alertIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		var body respondRequest
		if err := decodeJSON(r, &body); err != nil {
			handleError(w, r, err)
			return
		}
		a, err := uc.RespondToAlert(r.Context(), user.FromContext(r.Context()), id, body.Response, body.Message)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, a)
	}
}

func resolveHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := alertIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		view, err := uc.ResolveAlert(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, view)
	}
}

type registerPlateRequest struct {
	Plate string `json:"plate"`
}

type registerPlateResponse struct {
	PlateHash types.PlateHash `json:"plate_hash"`
}

func registerPlateHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerPlateRequest
		if err := decodeJSON(r, &body); err != nil {
			handleError(w, r, err)
			return
		}
		hash, err := uc.RegisterPlate(r.Context(), user.FromContext(r.Context()), body.Plate)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, registerPlateResponse{PlateHash: hash})
	}
}

type registerDeviceRequest struct {
	Token string `json:"token"`
}

func registerDeviceHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerDeviceRequest
		if err := decodeJSON(r, &body); err != nil {
			handleError(w, r, err)
			return
		}
		if err := uc.RegisterDevice(r.Context(), user.FromContext(r.Context()), body.Token); err != nil {
			handleError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func pushHandler(push PushHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data map[string]string
		if err := decodeJSON(r, &data); err != nil {
			handleError(w, r, err)
			return
		}
		if err := push.HandlePush(r.Context(), data); err != nil {
			handleError(w, r, goerr.Wrap(err, "undecodable push payload", goerr.T(errs.TagValidation)))
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}
