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
	SessionMiddleware      *middleware.StaffSession
	Validate               *validator.Validate
	RedemptionAdminUseCase RedemptionAdminUseCase
}

func InitHTTPHandler(router *mux.Router, staffSession *middleware.StaffSession, validate *validator.Validate, redemptionAdminUseCase RedemptionAdminUseCase) {
	handler := &HTTPHandler{
		Validate:               validate,
		RedemptionAdminUseCase: redemptionAdminUseCase,
	}

	router.HandleFunc("/uc-points/v1/adminapp/redeem-orders/{orderID}/complete", publicMiddleware.SetRouteChain(handler.Complete, staffSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/uc-points/v1/adminapp/redeem-orders/{orderID}/refund-full", publicMiddleware.SetRouteChain(handler.RefundFull, staffSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/uc-points/v1/adminapp/redeem-orders/{orderID}/refund-partial", publicMiddleware.SetRouteChain(handler.RefundPartial, staffSession.Verify)).Methods(http.MethodPost)
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

func (handler HTTPHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID := mux.Vars(r)["orderID"]

	resp, err := handler.RedemptionAdminUseCase.Complete(ctx, orderID)
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
		Message: "redeem order has been successfully completed",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) RefundFull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID := mux.Vars(r)["orderID"]

	req := RefundRequest{}
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

	resp, err := handler.RedemptionAdminUseCase.RefundFull(ctx, orderID, req)
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
		Message: "redeem order has been fully refunded",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) RefundPartial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID := mux.Vars(r)["orderID"]

	req := PartialRefundRequest{}
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

	resp, err := handler.RedemptionAdminUseCase.RefundPartial(ctx, orderID, req)
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
		Message: "redeem order has been partially refunded",
		Data:    resp,
		Meta:    nil,
	})

}
