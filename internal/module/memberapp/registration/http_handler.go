package registration

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
	SessionMiddleware   *middleware.MemberSession
	Validate            *validator.Validate
	RegistrationUseCase RegistrationUseCase
}

func InitHTTPHandler(router *mux.Router, memberSession *middleware.MemberSession, validate *validator.Validate, registrationUseCase RegistrationUseCase) {
	handler := &HTTPHandler{
		Validate:            validate,
		RegistrationUseCase: registrationUseCase,
	}

	router.HandleFunc("/uc-points/v1/memberapp/registrations", publicMiddleware.SetRouteChain(handler.Register, memberSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/uc-points/v1/memberapp/registrations", publicMiddleware.SetRouteChain(handler.GetManyRegistration, memberSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/uc-points/v1/memberapp/registrations/{eventID}/cancel", publicMiddleware.SetRouteChain(handler.Cancel, memberSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/uc-points/v1/memberapp/registrations/{eventID}/check-in", publicMiddleware.SetRouteChain(handler.CheckIn, memberSession.Verify)).Methods(http.MethodPost)
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

func (handler HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := RegisterRequest{}
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

	resp, err := handler.RegistrationUseCase.Register(ctx, req)
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
		Message: "registration has been successfully placed",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID := mux.Vars(r)["eventID"]

	resp, err := handler.RegistrationUseCase.Cancel(ctx, eventID)
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
		Message: "registration has been successfully canceled",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID := mux.Vars(r)["eventID"]

	resp, err := handler.RegistrationUseCase.CheckIn(ctx, eventID)
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
		Message: "registration has been successfully checked in",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) GetManyRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.RegistrationUseCase.GetManyRegistration(ctx)
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
		Message: "list of registrations",
		Data:    resp,
		Meta:    nil,
	})

}
