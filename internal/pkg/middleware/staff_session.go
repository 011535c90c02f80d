package middleware

import (
	"context"
	"net/http"

	"github.com/uniclub/uc-points/internal/pkg/jwt"
	"github.com/uniclub/uc-points/internal/pkg/session"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/response"
	"github.com/uniclub/uc-points/pkg/status"
)

// StaffSession guards the admin app. Club leaders and university staff share
// the surface; per-operation role checks happen in the usecases.
type StaffSession struct {
	jsonWebToken *jwt.JSONWebToken
	session      session.Store
}

func NewStaffSessionMiddleware(jsonWebToken *jwt.JSONWebToken, sessionStore session.Store) *StaffSession {
	return &StaffSession{
		jsonWebToken: jsonWebToken,
		session:      sessionStore,
	}
}

func (m *StaffSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		acc, err := verifyBearer(ctx, m.jsonWebToken, m.session, r)
		if err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		if acc.Role != session.RoleClubLead && acc.Role != session.RoleUniStaff {
			response.JSON(w, http.StatusForbidden, response.RESTEnvelope{
				Status:  status.FORBIDDEN,
				Message: "this resource is only available for club leaders and university staff",
			})

			return
		}

		next(w, r.WithContext(session.ContextWithAccount(ctx, acc)))
	}
}

func verifyBearer(ctx context.Context, jsonWebToken *jwt.JSONWebToken, sessionStore session.Store, r *http.Request) (session.Account, error) {
	token, err := extractBearerToken(r)
	if err != nil {
		return session.Account{}, err
	}

	claims, err := jsonWebToken.Parse(token)
	if err != nil {
		return session.Account{}, err
	}

	return sessionStore.Get(ctx, claims.AccountID)
}
