package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/status"
)

const (
	RoleMember   = "MEMBER"
	RoleClubLead = "CLUB_LEADER"
	RoleUniStaff = "UNI_STAFF"
)

type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	ClubID string `json:"club_id,omitempty"`
}

type contextKey struct{}

var accountContextKey = contextKey{}

func ContextWithAccount(ctx context.Context, acc Account) context.Context {
	return context.WithValue(ctx, accountContextKey, acc)
}

func GetAccountFromCtx(ctx context.Context) (Account, error) {
	acc, ok := ctx.Value(accountContextKey).(Account)
	if !ok {
		return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session is not found on the request context")
	}

	return acc, nil
}

type Store interface {
	Set(ctx context.Context, acc Account, ttl time.Duration) error
	Get(ctx context.Context, accountID string) (Account, error)
	Delete(ctx context.Context, accountID string) error
}

type redisSessionStore struct {
	logger *logrus.Logger
	client *redis.Client
}

func NewRedisSessionStore(logger *logrus.Logger, client *redis.Client) Store {
	return &redisSessionStore{
		logger: logger,
		client: client,
	}
}

func sessionKey(accountID string) string {
	return fmt.Sprintf("session:%s", accountID)
}

func (s *redisSessionStore) Set(ctx context.Context, acc Account, ttl time.Duration) error {
	buff, _ := json.Marshal(acc)

	if err := s.client.Set(ctx, sessionKey(acc.ID), buff, ttl).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while storing the session")
	}

	return nil
}

func (s *redisSessionStore) Get(ctx context.Context, accountID string) (Account, error) {
	buff, err := s.client.Get(ctx, sessionKey(accountID)).Bytes()
	if err == redis.Nil {
		return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session has expired")
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting the session")
	}

	var acc Account
	if err := json.Unmarshal(buff, &acc); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting the session")
	}

	return acc, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, sessionKey(accountID)).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while removing the session")
	}

	return nil
}
