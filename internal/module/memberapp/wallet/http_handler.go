package wallet

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

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
	WalletUseCase     WalletUseCase
}

func InitHTTPHandler(router *mux.Router, memberSession *middleware.MemberSession, validate *validator.Validate, walletUseCase WalletUseCase) {
	handler := &HTTPHandler{
		Validate:      validate,
		WalletUseCase: walletUseCase,
	}

	router.HandleFunc("/uc-points/v1/memberapp/wallets/me/transactions", publicMiddleware.SetRouteChain(handler.GetHistory, memberSession.Verify)).Methods(http.MethodGet)
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

func (handler HTTPHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	qs := r.URL.Query()

	req := GetHistoryRequest{}
	req.Type = qs.Get("type")
	req.Page, _ = strconv.ParseInt(qs.Get("page"), 10, 64)
	req.Size, _ = strconv.ParseInt(qs.Get("size"), 10, 64)

	if from, err := time.Parse(time.RFC3339, qs.Get("from")); err == nil {
		req.From = &from
	}
	if to, err := time.Parse(time.RFC3339, qs.Get("to")); err == nil {
		req.To = &to
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, meta, err := handler.WalletUseCase.GetHistory(ctx, req)
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
		Message: "wallet's transaction history",
		Data:    resp,
		Meta:    meta,
	})

}
