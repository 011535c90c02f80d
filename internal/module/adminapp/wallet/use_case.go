package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	memberwallet "github.com/uniclub/uc-points/internal/module/memberapp/wallet"
	"github.com/uniclub/uc-points/internal/pkg/session"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/pubsub"
	"github.com/uniclub/uc-points/pkg/status"
)

type WalletAdminUseCase interface {
	Deposit(ctx context.Context, req DepositRequest) (TransactionResponse, error)
	GrantToMember(ctx context.Context, req GrantRequest) (TransactionResponse, error)
	GetBalance(ctx context.Context, ownerID string) (BalanceResponse, error)
}

type walletAdminUseCase struct {
	logger    *logrus.Logger
	timeout   time.Duration
	ledger    memberwallet.Ledger
	publisher pubsub.Publisher
}

type WalletAdminUseCaseProperty struct {
	Logger    *logrus.Logger
	Timeout   time.Duration
	Ledger    memberwallet.Ledger
	Publisher pubsub.Publisher
}

func NewWalletAdminUseCase(props WalletAdminUseCaseProperty) WalletAdminUseCase {
	return &walletAdminUseCase{
		logger:    props.Logger,
		timeout:   props.Timeout,
		ledger:    props.Ledger,
		publisher: props.Publisher,
	}
}

// Deposit implements WalletAdminUseCase. University staff top up a club
// wallet from outside the ledger; the caller's reference makes retries safe.
func (u *walletAdminUseCase) Deposit(ctx context.Context, req DepositRequest) (TransactionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return TransactionResponse{}, err
	}

	if acc.Role != session.RoleUniStaff {
		return TransactionResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "only university staff may deposit points")
	}

	tx, err := u.ledger.BeginTx(ctx)
	if err != nil {
		return TransactionResponse{}, err
	}

	trx, err := u.ledger.Append(ctx, memberwallet.AppendEntry{
		OwnerID:        memberwallet.ClubOwnerID(req.ClubID),
		Type:           memberwallet.TypeDeposit,
		Amount:         req.Amount,
		Description:    fmt.Sprintf("deposit '%s' by staff '%s'", req.Reference, acc.ID),
		IdempotencyKey: fmt.Sprintf("deposit:%s", req.Reference),
	}, tx)
	if err != nil {
		u.ledger.Rollback(ctx, tx)
		return TransactionResponse{}, err
	}

	if err := u.ledger.CommitTx(ctx, tx); err != nil {
		return TransactionResponse{}, err
	}

	trxBuff, _ := json.Marshal(trx)
	u.publisher.Publish(ctx, "wallet-deposited", trx.OwnerID, nil, trxBuff)

	resp := TransactionResponse{}
	resp.PopulateFromEntity(trx)

	return resp, nil
}

// GrantToMember implements WalletAdminUseCase. A club leader moves points
// from the club wallet to a member; the transfer is a balanced pair of
// entries under one transaction.
func (u *walletAdminUseCase) GrantToMember(ctx context.Context, req GrantRequest) (TransactionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return TransactionResponse{}, err
	}

	if acc.Role != session.RoleClubLead {
		return TransactionResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "only club leaders may grant points to members")
	}

	tx, err := u.ledger.BeginTx(ctx)
	if err != nil {
		return TransactionResponse{}, err
	}

	_, err = u.ledger.Append(ctx, memberwallet.AppendEntry{
		OwnerID:        memberwallet.ClubOwnerID(acc.ClubID),
		Type:           memberwallet.TypeClubToMember,
		Amount:         -req.Amount,
		Description:    fmt.Sprintf("grant '%s' to member '%s'", req.Reference, req.MemberID),
		IdempotencyKey: fmt.Sprintf("grant:%s", req.Reference),
	}, tx)
	if err != nil {
		u.ledger.Rollback(ctx, tx)
		return TransactionResponse{}, err
	}

	trx, err := u.ledger.Append(ctx, memberwallet.AppendEntry{
		OwnerID:        memberwallet.MemberOwnerID(req.MemberID),
		Type:           memberwallet.TypeClubToMember,
		Amount:         req.Amount,
		Description:    fmt.Sprintf("grant '%s' from club '%s'", req.Reference, acc.ClubID),
		IdempotencyKey: fmt.Sprintf("grant:%s:member", req.Reference),
	}, tx)
	if err != nil {
		u.ledger.Rollback(ctx, tx)
		return TransactionResponse{}, err
	}

	if err := u.ledger.CommitTx(ctx, tx); err != nil {
		return TransactionResponse{}, err
	}

	trxBuff, _ := json.Marshal(trx)
	u.publisher.Publish(ctx, "wallet-granted", trx.OwnerID, nil, trxBuff)

	resp := TransactionResponse{}
	resp.PopulateFromEntity(trx)

	return resp, nil
}

// GetBalance implements WalletAdminUseCase.
func (u *walletAdminUseCase) GetBalance(ctx context.Context, ownerID string) (BalanceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	balance, err := u.ledger.BalanceOf(ctx, ownerID, nil)
	if err != nil {
		return BalanceResponse{}, err
	}

	return BalanceResponse{
		OwnerID: ownerID,
		Balance: balance,
	}, nil
}
