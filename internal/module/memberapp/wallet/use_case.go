package wallet

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uniclub/uc-points/internal/pkg/session"
)

type WalletUseCase interface {
	GetHistory(ctx context.Context, req GetHistoryRequest) (GetHistoryResponse, Meta, error)
}

type walletUseCase struct {
	logger  *logrus.Logger
	timeout time.Duration
	ledger  Ledger
}

type WalletUseCaseProperty struct {
	Logger  *logrus.Logger
	Timeout time.Duration
	Ledger  Ledger
}

func NewWalletUseCase(props WalletUseCaseProperty) WalletUseCase {
	return &walletUseCase{
		logger:  props.Logger,
		timeout: props.Timeout,
		ledger:  props.Ledger,
	}
}

// GetHistory implements WalletUseCase. Members only ever see their own
// wallet; the owner id comes from the session, not the request.
func (u *walletUseCase) GetHistory(ctx context.Context, req GetHistoryRequest) (GetHistoryResponse, Meta, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return nil, Meta{}, err
	}

	ownerID := MemberOwnerID(acc.ID)

	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.Size
	if size < 1 {
		size = 20
	}

	filter := HistoryFilter{
		From:   req.From,
		To:     req.To,
		Offset: (page - 1) * size,
		Limit:  size,
	}
	if req.Type != "" {
		filter.Types = []Type{Type(req.Type)}
	}

	data, total, err := u.ledger.History(ctx, ownerID, filter)
	if err != nil {
		return nil, Meta{}, err
	}

	resp := make(GetHistoryResponse, len(data))
	for k, trx := range data {
		resp[k].PopulateFromEntity(trx)
	}

	return resp, Meta{Page: page, Size: size, Total: total}, nil
}
