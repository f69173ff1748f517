package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/shopspring/decimal"
)

// Leg names one side of a transfer.
type Leg int

const (
	// NoOptionalLeg requires both accounts to exist.
	NoOptionalLeg Leg = iota
	// DebitLeg may be skipped when the paying account is missing.
	DebitLeg
	// CreditLeg may be skipped when the receiving account is missing.
	CreditLeg
)

// TransferRequest describes a debit on From mirrored by a credit on To.
type TransferRequest struct {
	From              string
	To                string
	Amount            decimal.Decimal
	DebitDescription  string
	CreditDescription string
	BookingID         string
	// Optional is the leg that is skipped, rather than failed, when its
	// account does not exist.
	Optional Leg
}

// TransferResult reports which legs were posted.
type TransferResult struct {
	Debit  *models.Transaction
	Credit *models.Transaction
}

func (r *TransferResult) DebitApplied() bool  { return r.Debit != nil }
func (r *TransferResult) CreditApplied() bool { return r.Credit != nil }

// Transfer posts the debit, then the credit. A missing account on the optional
// leg is logged and skipped. If the credit fails for any other reason, an
// applied debit is reversed before the error is returned.
func (l *Ledger) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	res := &TransferResult{}

	debit, err := l.post(ctx, req.From, models.DEBIT, req.Amount, req.DebitDescription, req.BookingID)
	switch {
	case err == nil:
		res.Debit = debit
	case req.Optional == DebitLeg && errors.Is(err, apperrors.ErrNotFound):
		l.logger.Warn("skipping debit leg, account missing",
			"account_id", req.From, "amount", req.Amount.String(), "description", req.DebitDescription)
	default:
		return nil, fmt.Errorf("debit leg: %w", err)
	}

	credit, err := l.post(ctx, req.To, models.CREDIT, req.Amount, req.CreditDescription, req.BookingID)
	switch {
	case err == nil:
		res.Credit = credit
	case req.Optional == CreditLeg && errors.Is(err, apperrors.ErrNotFound):
		l.logger.Warn("skipping credit leg, account missing",
			"account_id", req.To, "amount", req.Amount.String(), "description", req.CreditDescription)
	default:
		if res.DebitApplied() {
			ctx := context.WithoutCancel(ctx)
			if _, rerr := l.post(ctx, req.From, models.CREDIT, req.Amount, "Reversal: "+req.DebitDescription, req.BookingID); rerr != nil {
				l.logger.Error("CRITICAL: failed to reverse debit leg", "account_id", req.From, "transaction_id", res.Debit.Id, "error", rerr)
				return nil, errors.Join(fmt.Errorf("credit leg: %w", err), fmt.Errorf("reverse debit: %w", rerr))
			}
		}
		return nil, fmt.Errorf("credit leg: %w", err)
	}

	return res, nil
}

// Reverse undoes a transfer result by posting the mirror image of each applied leg.
func (l *Ledger) Reverse(ctx context.Context, res *TransferResult) error {
	var errs []error
	if res.Credit != nil {
		c := res.Credit
		if _, err := l.post(ctx, c.AccountId, models.DEBIT, c.Amount, "Reversal: "+c.Description, c.BookingId); err != nil {
			errs = append(errs, err)
		}
	}
	if res.Debit != nil {
		d := res.Debit
		if _, err := l.post(ctx, d.AccountId, models.CREDIT, d.Amount, "Reversal: "+d.Description, d.BookingId); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
