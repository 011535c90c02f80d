package event

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/uniclub/uc-points/internal/pkg/middleware"
	"github.com/uniclub/uc-points/pkg/errors"
	publicMiddleware "github.com/uniclub/uc-points/pkg/middleware"
	"github.com/uniclub/uc-points/pkg/response"
	"github.com/uniclub/uc-points/pkg/status"
)

type HTTPHandler struct {
	SessionMiddleware  *middleware.MemberSession
	EventStatusUseCase EventStatusUseCase
}

func InitHTTPHandler(router *mux.Router, memberSession *middleware.MemberSession, eventStatusUseCase EventStatusUseCase) {
	handler := &HTTPHandler{
		EventStatusUseCase: eventStatusUseCase,
	}

	router.HandleFunc("/uc-points/v1/memberapp/events/{eventID}/status", publicMiddleware.SetRouteChain(handler.GetStatus, memberSession.Verify)).Methods(http.MethodGet)
}

func (handler HTTPHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID := mux.Vars(r)["eventID"]

	resp, err := handler.EventStatusUseCase.GetStatus(ctx, eventID)
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
		Message: "event's status",
		Data:    resp,
		Meta:    nil,
	})

}
