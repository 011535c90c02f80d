package wallet

import (
	"fmt"
	"time"
)

// Type is the business reason for a ledger entry.
type Type string

const (
	TypeCommitLock   Type = "COMMIT_LOCK"
	TypeBonusReward  Type = "BONUS_REWARD"
	TypeRefund       Type = "REFUND"
	TypeClubToMember Type = "CLUB_TO_MEMBER"
	TypeTransfer     Type = "TRANSFER"
	TypeDeposit      Type = "DEPOSIT"
	TypeWithdrawal   Type = "WITHDRAWAL"
)

// Transaction is an immutable ledger entry. Amount is signed: negative is a
// debit, positive a credit. Rows are only ever appended; a correction is a
// new offsetting entry.
type Transaction struct {
	ID             string
	OwnerID        string
	Type           Type
	Amount         int64
	Description    string
	IdempotencyKey string
	RelatedOrderID string
	RelatedEventID string
	CreatedAt      time.Time
}

// HistoryFilter narrows a wallet's transaction history. The zero value
// matches everything.
type HistoryFilter struct {
	Types  []Type
	From   *time.Time
	To     *time.Time
	Offset int64
	Limit  int64
}

// Wallet owner ids are namespaced so member wallets, club wallets and
// per-event budget wallets share one ledger.

func MemberOwnerID(memberID string) string {
	return fmt.Sprintf("member:%s", memberID)
}

func ClubOwnerID(clubID string) string {
	return fmt.Sprintf("club:%s", clubID)
}

func EventBudgetOwnerID(eventID string) string {
	return fmt.Sprintf("event-budget:%s", eventID)
}
