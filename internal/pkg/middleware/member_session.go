package middleware

import (
	"net/http"
	"strings"

	"github.com/uniclub/uc-points/internal/pkg/jwt"
	"github.com/uniclub/uc-points/internal/pkg/session"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/response"
	"github.com/uniclub/uc-points/pkg/status"
)

type MemberSession struct {
	jsonWebToken *jwt.JSONWebToken
	session      session.Store
}

func NewMemberSessionMiddleware(jsonWebToken *jwt.JSONWebToken, sessionStore session.Store) *MemberSession {
	return &MemberSession{
		jsonWebToken: jsonWebToken,
		session:      sessionStore,
	}
}

func (m *MemberSession) Verify(next http.HandlerFunc) http.HandlerFunc {
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

		if acc.Role != session.RoleMember {
			response.JSON(w, http.StatusForbidden, response.RESTEnvelope{
				Status:  status.FORBIDDEN,
				Message: "this resource is only available for members",
			})

			return
		}

		next(w, r.WithContext(session.ContextWithAccount(ctx, acc)))
	}
}

func extractBearerToken(r *http.Request) (string, error) {
	authorization := r.Header.Get("Authorization")

	token, found := strings.CutPrefix(authorization, "Bearer ")
	if !found || token == "" {
		return "", errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "authorization bearer token is missing")
	}

	return token, nil
}
