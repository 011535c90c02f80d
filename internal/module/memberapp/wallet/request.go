package wallet

import "time"

type GetHistoryRequest struct {
	Type string     `validate:"omitempty,oneof=COMMIT_LOCK BONUS_REWARD REFUND CLUB_TO_MEMBER TRANSFER DEPOSIT WITHDRAWAL"`
	From *time.Time `validate:"-"`
	To   *time.Time `validate:"-"`
	Page int64      `validate:"omitempty,min=1"`
	Size int64      `validate:"omitempty,min=1,max=100"`
}
