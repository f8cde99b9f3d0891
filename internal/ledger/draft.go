package ledger

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "budgettracker/internal/errors"
	bvalidator "budgettracker/internal/validator"
)

// Draft is unvalidated user input for a new or edited transaction.
type Draft struct {
	Type        TransactionType `validate:"required,transaction_type"`
	Category    string          `validate:"notblank,max=100"`
	Amount      string          `validate:"required,amount"`
	Description string          `validate:"max=500"`
	Date        string          `validate:"required,ymd_date"`
}

// Entry validates the draft and returns the normalized payload. Failures are
// ErrValidation with a message naming the first offending field.
func (d Draft) Entry() (Entry, error) {
	if err := bvalidator.Get().Struct(d); err != nil {
		return Entry{}, validationError(err)
	}

	amount, err := bvalidator.ParseAmount(d.Amount)
	if err != nil {
		return Entry{}, apperrors.WithMessage(apperrors.ErrValidation, "amount: "+err.Error())
	}
	date, err := ParseDate(d.Date)
	if err != nil {
		return Entry{}, apperrors.WithMessage(apperrors.ErrValidation, "date: "+err.Error())
	}

	return Entry{
		Type:        d.Type,
		Category:    strings.TrimSpace(d.Category),
		Amount:      amount,
		Description: strings.TrimSpace(d.Description),
		Date:        date,
	}, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Wrap(apperrors.ErrValidation, err)
	}
	return apperrors.WithMessage(apperrors.ErrValidation, bvalidator.Message(err))
}
