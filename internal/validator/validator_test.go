package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moneyRequest struct {
	Amount   decimal.Decimal  `validate:"decimal_gt0"`
	Quantity decimal.Decimal  `validate:"quantity_gt0"`
	Income   *decimal.Decimal `validate:"omitempty,decimal_gt0"`
	Routing  string           `validate:"omitempty,aba_routing"`
	Swift    string           `validate:"omitempty,swift_bic"`
}

func valid() moneyRequest {
	return moneyRequest{
		Amount:   decimal.RequireFromString("10.50"),
		Quantity: decimal.RequireFromString("0.00012345"),
	}
}

func TestValidate_BankingTags(t *testing.T) {
	neg := decimal.RequireFromString("-1")

	tests := []struct {
		name   string
		mutate func(*moneyRequest)
		field  string
	}{
		{name: "zero amount", mutate: func(r *moneyRequest) { r.Amount = decimal.Zero }, field: "amount"},
		{name: "sub-cent amount", mutate: func(r *moneyRequest) { r.Amount = decimal.RequireFromString("1.005") }, field: "amount"},
		{name: "quantity beyond 8 places", mutate: func(r *moneyRequest) { r.Quantity = decimal.RequireFromString("0.000000001") }, field: "quantity"},
		{name: "negative income", mutate: func(r *moneyRequest) { r.Income = &neg }, field: "income"},
		{name: "bad routing checksum", mutate: func(r *moneyRequest) { r.Routing = "021000022" }, field: "routing"},
		{name: "short swift", mutate: func(r *moneyRequest) { r.Swift = "DEUTDE" }, field: "swift"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)

			err := Validate(r)
			require.Error(t, err)
			require.True(t, IsValidationError(err))

			errs := err.(ValidationErrors)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidate_AcceptsValidValues(t *testing.T) {
	income := decimal.RequireFromString("4200")
	r := valid()
	r.Income = &income
	r.Routing = "021000021"
	r.Swift = "deutdeff500"

	assert.NoError(t, Validate(r))
}

func TestGetErrorMessage_BankingTags(t *testing.T) {
	r := valid()
	r.Amount = decimal.Zero
	r.Routing = "123"

	errs := Validate(r).(ValidationErrors)
	require.Len(t, errs, 2)
	assert.Equal(t, "must be a positive amount with at most 2 decimal places", errs[0].Message)
	assert.Equal(t, "must be a valid 9 digit ABA routing number", errs[1].Message)
}
