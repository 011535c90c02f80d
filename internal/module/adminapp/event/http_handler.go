package event

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/uniclub/uc-points/internal/pkg/middleware"
	"github.com/uniclub/uc-points/pkg/errors"
	publicMiddleware "github.com/uniclub/uc-points/pkg/middleware"
	"github.com/uniclub/uc-points/pkg/response"
	"github.com/uniclub/uc-points/pkg/status"
)

type HTTPHandler struct {
	SessionMiddleware *middleware.StaffSession
	Validate          *validator.Validate
	EventAdminUseCase EventAdminUseCase
}

func InitHTTPHandler(router *mux.Router, staffSession *middleware.StaffSession, validate *validator.Validate, eventAdminUseCase EventAdminUseCase) {
	handler := &HTTPHandler{
		Validate:          validate,
		EventAdminUseCase: eventAdminUseCase,
	}

	router.HandleFunc("/uc-points/v1/adminapp/events", publicMiddleware.SetRouteChain(handler.SubmitEvent, staffSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/uc-points/v1/adminapp/events/{eventID}/review", publicMiddleware.SetRouteChain(handler.Review, staffSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/uc-points/v1/adminapp/events/{eventID}/cancel", publicMiddleware.SetRouteChain(handler.Cancel, staffSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/uc-points/v1/adminapp/events/{eventID}/settle", publicMiddleware.SetRouteChain(handler.SettleAttendance, staffSession.Verify)).Methods(http.MethodPost)
}

func (handler HTTPHandler) validate(ctx context.Context, payload interface{}) error {
	err := handler.Validate.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	errorFields := err.(validator.ValidationErrors)

	errMessages := make([]string, len(errorFields))

	for k, errorField := range errorFields {
		errMessages[k] = fmt.Sprintf("invalid '%s' with value '%v'", errorField.Field(), errorField.Value())
	}

	return fmt.Errorf("%s", strings.Join(errMessages, ", "))
}

func (handler HTTPHandler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := SubmitEventRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.EventAdminUseCase.SubmitEvent(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: "event has been successfully submitted",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) Review(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID := mux.Vars(r)["eventID"]

	req := ReviewRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.EventAdminUseCase.Review(ctx, eventID, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "event has been successfully reviewed",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID := mux.Vars(r)["eventID"]

	resp, err := handler.EventAdminUseCase.Cancel(ctx, eventID)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "event has been successfully cancelled",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) SettleAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID := mux.Vars(r)["eventID"]

	resp, err := handler.EventAdminUseCase.SettleAttendance(ctx, eventID)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "event attendance has been settled",
		Data:    resp,
		Meta:    nil,
	})

}
