package redemption

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
	SessionMiddleware *middleware.MemberSession
	Validate          *validator.Validate
	RedemptionUseCase RedemptionUseCase
}

func InitHTTPHandler(router *mux.Router, memberSession *middleware.MemberSession, validate *validator.Validate, redemptionUseCase RedemptionUseCase) {
	handler := &HTTPHandler{
		Validate:          validate,
		RedemptionUseCase: redemptionUseCase,
	}

	router.HandleFunc("/uc-points/v1/memberapp/redeem-orders", publicMiddleware.SetRouteChain(handler.Redeem, memberSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/uc-points/v1/memberapp/redeem-orders", publicMiddleware.SetRouteChain(handler.GetManyOrder, memberSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/uc-points/v1/memberapp/redeem-orders/{orderID}/cancel", publicMiddleware.SetRouteChain(handler.CancelOrder, memberSession.Verify)).Methods(http.MethodPost)
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

func (handler HTTPHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := RedeemRequest{}
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

	resp, err := handler.RedemptionUseCase.Redeem(ctx, req)
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
		Message: "redeem order has been successfully placed",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID := mux.Vars(r)["orderID"]

	resp, err := handler.RedemptionUseCase.CancelOrder(ctx, orderID)
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
		Message: "redeem order has been successfully cancelled",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) GetManyOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.RedemptionUseCase.GetManyOrder(ctx)
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
		Message: "list of redeem orders",
		Data:    resp,
		Meta:    nil,
	})

}
