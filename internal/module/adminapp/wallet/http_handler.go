package wallet

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
	SessionMiddleware  *middleware.StaffSession
	Validate           *validator.Validate
	WalletAdminUseCase WalletAdminUseCase
}

func InitHTTPHandler(router *mux.Router, staffSession *middleware.StaffSession, validate *validator.Validate, walletAdminUseCase WalletAdminUseCase) {
	handler := &HTTPHandler{
		Validate:           validate,
		WalletAdminUseCase: walletAdminUseCase,
	}

	router.HandleFunc("/uc-points/v1/adminapp/wallets/deposit", publicMiddleware.SetRouteChain(handler.Deposit, staffSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/uc-points/v1/adminapp/wallets/grant", publicMiddleware.SetRouteChain(handler.GrantToMember, staffSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/uc-points/v1/adminapp/wallets/{ownerID}/balance", publicMiddleware.SetRouteChain(handler.GetBalance, staffSession.Verify)).Methods(http.MethodGet)
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

func (handler HTTPHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := DepositRequest{}
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

	resp, err := handler.WalletAdminUseCase.Deposit(ctx, req)
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
		Message: "points have been successfully deposited",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) GrantToMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := GrantRequest{}
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

	resp, err := handler.WalletAdminUseCase.GrantToMember(ctx, req)
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
		Message: "points have been successfully granted",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID := mux.Vars(r)["ownerID"]

	resp, err := handler.WalletAdminUseCase.GetBalance(ctx, ownerID)
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
		Message: "wallet balance",
		Data:    resp,
		Meta:    nil,
	})

}
