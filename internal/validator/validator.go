// Package validator registers the ledger's custom validation tags. The same
// tags back gin's request binding on the service and draft validation on the
// client.
package validator

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar date format on the wire.
const DateLayout = "2006-01-02"

var (
	standalone     *validator.Validate
	standaloneOnce sync.Once
	bindingOnce    sync.Once
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	bindingOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerAll(v)
		}
	})
}

// Get returns a validator that reads `validate` struct tags and knows the
// custom tags. It is safe for concurrent use.
func Get() *validator.Validate {
	standaloneOnce.Do(func() {
		standalone = validator.New()
		registerAll(standalone)
	})
	return standalone
}

func registerAll(v *validator.Validate) {
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("ymd_date", validateDate)
	_ = v.RegisterValidation("amount", validateAmount)
	_ = v.RegisterValidation("notblank", validateNotBlank)
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}

func validateAmount(fl validator.FieldLevel) bool {
	_, err := ParseAmount(fl.Field().String())
	return err == nil
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp and returns midnight
// UTC of the calendar date it names.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Amounts must fit the numeric(20,4) column.
const (
	AmountScale         = 4
	AmountIntegerDigits = 16

	maxAmountLength = 64
)

// ParseAmount parses a nonnegative decimal amount within the stored range.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxAmountLength {
		return decimal.Zero, errAmountTooLong
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	if d.IsZero() {
		// 0e99999999 is zero but would be expanded when formatted.
		return decimal.Zero, nil
	}
	return d, nil
}

// CheckAmount reports whether d is nonnegative with at most AmountIntegerDigits
// integer digits and AmountScale decimal places. It never rescales d beyond
// its own coefficient length.
func CheckAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return errNegativeAmount
	}
	if d.IsZero() {
		return nil
	}

	digits := int64(d.NumDigits())
	exp := int64(d.Exponent())
	if digits+exp > AmountIntegerDigits {
		return errAmountTooLarge
	}
	if exp < -AmountScale {
		// The coefficient has fewer than digits trailing zeros to absorb.
		if exp < -AmountScale-digits || !d.Equal(d.Truncate(AmountScale)) {
			return errAmountPrecision
		}
	}
	return nil
}

type amountError string

func (e amountError) Error() string { return string(e) }

const (
	errNegativeAmount  = amountError("amount must not be negative")
	errAmountTooLong   = amountError("amount is too long")
	errAmountTooLarge  = amountError("amount must be less than 10^16")
	errAmountPrecision = amountError("amount must have at most 4 decimal places")
)

// Message turns a validation failure into a one-line message naming the first
// offending field. Errors that are not validation errors are returned as is.
func Message(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "transaction_type":
		return fmt.Sprintf("type must be income or expense, got %q", fmt.Sprint(fe.Value()))
	case "amount":
		return fmt.Sprintf("amount must be a nonnegative number below 10^16 with at most 4 decimal places, got %q", fmt.Sprint(fe.Value()))
	case "ymd_date":
		return fmt.Sprintf("date must be YYYY-MM-DD, got %q", fmt.Sprint(fe.Value()))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
