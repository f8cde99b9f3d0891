package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

type sample struct {
	Type     string `validate:"required,transaction_type"`
	Category string `validate:"notblank"`
	Amount   string `validate:"required,amount"`
	Date     string `validate:"required,ymd_date"`
}

func TestStandaloneValidator(t *testing.T) {
	valid := sample{Type: "income", Category: "Salary", Amount: "1000.50", Date: "2024-03-01"}

	tests := []struct {
		name    string
		mutate  func(s *sample)
		wantErr bool
	}{
		{"valid", func(*sample) {}, false},
		{"expense", func(s *sample) { s.Type = "expense" }, false},
		{"rfc3339_date", func(s *sample) { s.Date = "2024-03-01T10:30:00Z" }, false},
		{"zero_amount", func(s *sample) { s.Amount = "0" }, false},
		{"transfer_type", func(s *sample) { s.Type = "transfer" }, true},
		{"empty_type", func(s *sample) { s.Type = "" }, true},
		{"blank_category", func(s *sample) { s.Category = "   " }, true},
		{"negative_amount", func(s *sample) { s.Amount = "-5" }, true},
		{"garbage_amount", func(s *sample) { s.Amount = "ten" }, true},
		{"excess_precision", func(s *sample) { s.Amount = "1.23456" }, true},
		{"too_large", func(s *sample) { s.Amount = "10000000000000000" }, true},
		{"empty_date", func(s *sample) { s.Date = "" }, true},
		{"bad_date", func(s *sample) { s.Date = "01/03/2024" }, true},
		{"impossible_date", func(s *sample) { s.Date = "2024-02-30" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := Get().Struct(s)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDateNormalizesTimestamp(t *testing.T) {
	got, err := ParseDate("2024-03-01T23:30:00-02:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format(DateLayout) != "2024-03-02" {
		t.Errorf("got %s, want 2024-03-02 (UTC date)", got.Format(DateLayout))
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("time of day should be dropped, got %s", got)
	}
}

func TestParseAmountKeepsPrecision(t *testing.T) {
	got, err := ParseAmount(" 0.10 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "0.1" {
		t.Errorf("got %s, want 0.1", got.String())
	}
}

func TestParseAmountLimits(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"1234.5678", "1234.5678", nil},
		{"1.50000", "1.5", nil},
		{"9999999999999999.9999", "9999999999999999.9999", nil},
		{"1e15", "1000000000000000", nil},
		{"0e300000000", "0", nil},
		{"1.23456", "", errAmountPrecision},
		{"0.00001", "", errAmountPrecision},
		{"1e-30000000", "", errAmountPrecision},
		{"10000000000000000", "", errAmountTooLarge},
		{"12345678901234567.89", "", errAmountTooLarge},
		{"1e30000000", "", errAmountTooLarge},
		{"1" + strings.Repeat("0", 70), "", errAmountTooLong},
		{"-0.01", "", errNegativeAmount},
	}

	for _, tt := range tests {
		name := tt.in
		if len(name) > 24 {
			name = name[:24]
		}
		t.Run(name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseAmount(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestCheckAmount(t *testing.T) {
	if err := CheckAmount(decimal.New(123456789, -4)); err != nil {
		t.Errorf("12345.6789 should be accepted, got %v", err)
	}
	if err := CheckAmount(decimal.New(1, -5)); !errors.Is(err, errAmountPrecision) {
		t.Errorf("0.00001: expected errAmountPrecision, got %v", err)
	}
	if err := CheckAmount(decimal.New(1, 16)); !errors.Is(err, errAmountTooLarge) {
		t.Errorf("10^16: expected errAmountTooLarge, got %v", err)
	}
}

func TestMessage(t *testing.T) {
	v := Get()
	valid := sample{Type: "income", Category: "Salary", Amount: "10", Date: "2024-03-01"}

	tests := []struct {
		name   string
		mutate func(s *sample)
		want   string
	}{
		{"missing_category", func(s *sample) { s.Category = "" }, "category is required"},
		{"bad_type", func(s *sample) { s.Type = "transfer" }, `type must be income or expense, got "transfer"`},
		{"bad_amount", func(s *sample) { s.Amount = "-1" }, `amount must be a nonnegative number below 10^16 with at most 4 decimal places, got "-1"`},
		{"bad_date", func(s *sample) { s.Date = "01/02/2024" }, `date must be YYYY-MM-DD, got "01/02/2024"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			if got := Message(v.Struct(s)); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}
