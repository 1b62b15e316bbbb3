package refis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s = %s, want %s", field, got, want)
}

func TestComputeISSQNLumpSum(t *testing.T) {
	res := Compute(ProfileCorporate, CategoryISSQN,
		Plan{Choice: ChoiceLumpSum, Installments: 1},
		dec("1000"), dec("200"), dec("50"))

	assertDec(t, "1250", res.CurrentTotal, "current total")
	assertDec(t, "1", res.DiscountRate, "discount rate")
	assertDec(t, "200", res.DiscountBase, "discount base")
	assertDec(t, "200", res.DiscountAmount, "discount amount")
	assertDec(t, "1050", res.SettledTotal, "settled total")
	assert.Empty(t, res.Alert)
	assert.True(t, res.DownPayment.IsZero())
	assert.True(t, res.FirstInstallment.IsZero())
	assert.True(t, res.RemainingInstallment.IsZero())
}

func TestComputeISSQNInstallmentBelowFloor(t *testing.T) {
	res := Compute(ProfileCorporate, CategoryISSQN,
		Plan{Choice: ChoiceInstallment, Installments: 10},
		dec("1000"), dec("200"), dec("50"))

	assertDec(t, "0.8", res.DiscountRate, "discount rate")
	assertDec(t, "160", res.DiscountAmount, "discount amount")
	assertDec(t, "1090", res.SettledTotal, "settled total")
	assertDec(t, "109", res.InstallmentAmount, "installment amount")
	assert.Equal(t, AlertInstallmentBelowMinimum, res.Alert)
}

func TestComputeFinesInstallmentAlwaysAlerts(t *testing.T) {
	for _, cat := range []Category{CategoryFormalFine, CategoryRegulatoryFine} {
		res := Compute(ProfileCorporate, cat,
			Plan{Choice: ChoiceInstallment, Installments: 3},
			dec("100000"), dec("5000"), dec("0"))
		assert.Equal(t, AlertFinesLumpSumOnly, res.Alert, "%s", cat)
		// Soft validation: numbers are still produced.
		assertDec(t, "105000", res.SettledTotal, "settled total")
		assertDec(t, "0", res.DiscountAmount, "discount amount")
	}
}

func TestComputeSettledIdentity(t *testing.T) {
	res := Compute(ProfileIndividual, CategoryPropertyTax,
		Plan{Choice: ChoiceInstallment, Installments: 12},
		dec("3333.33"), dec("777.77"), dec("111.11"))
	assert.True(t, res.SettledTotal.Equal(res.CurrentTotal.Sub(res.DiscountAmount)),
		"settled %s != current %s - discount %s", res.SettledTotal, res.CurrentTotal, res.DiscountAmount)
}

func TestComputeAlertPrecedence(t *testing.T) {
	// A fine below the lump-sum floor triggers both step-2 and step-3
	// conditions; the fines alert is the one kept (later in evaluation
	// order, it overrides step 2 by contract).
	res := Compute(ProfileIndividual, CategoryFormalFine,
		Plan{Choice: ChoiceInstallment, Installments: 2},
		dec("100"), dec("10"), dec("0"))
	assert.Equal(t, AlertFinesLumpSumOnly, res.Alert)
}

func TestComputeInstallmentCountAlerts(t *testing.T) {
	cases := []struct {
		name         string
		category     Category
		installments int
		want         string
	}{
		{"issqn over 16", CategoryISSQN, 17, AlertISSQNMaxInstallments},
		{"property over 60", CategoryPropertyTax, 61, AlertFeesMaxInstallments},
		{"registration over 60", CategoryRegistrationFee, 70, AlertFeesMaxInstallments},
		{"single installment", CategoryISSQN, 1, AlertMinimumTwoInstallments},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Compute(ProfileCorporate, tc.category,
				Plan{Choice: ChoiceInstallment, Installments: tc.installments},
				dec("50000"), dec("9000"), dec("100"))
			assert.Equal(t, tc.want, res.Alert)
			// The computation still runs with the requested count.
			assert.False(t, res.SettledTotal.IsZero())
		})
	}
}

func TestComputeLumpSumBelowMinimumAllowsInstallmentPreview(t *testing.T) {
	res := Compute(ProfileIndividual, CategoryISSQN,
		Plan{Choice: ChoiceInstallment, Installments: 2},
		dec("100"), dec("50"), dec("10"))
	assert.Equal(t, AlertLumpSumOnlyBelowMinimum, res.Alert)
}

func TestComputeDownPaymentSubstitutesFirstInstallment(t *testing.T) {
	res := Compute(ProfileCorporate, CategoryISSQN,
		Plan{
			Choice:           ChoiceInstallment,
			Installments:     4,
			DownPaymentMode:  DownPaymentAmount,
			DownPaymentValue: dec("2000"),
		},
		dec("10000"), dec("3000"), dec("500"))

	// settled = 13500 - round(3000*0.9) = 10800
	assertDec(t, "10800", res.SettledTotal, "settled total")
	assertDec(t, "2000", res.DownPayment, "down payment")
	assertDec(t, "2000", res.FirstInstallment, "first installment")
	// remaining = round((10800-2000)/3)
	assertDec(t, "2933.33", res.RemainingInstallment, "remaining installment")
	assert.True(t, res.InstallmentAmount.IsZero())
	assert.Empty(t, res.Alert)

	// Conservation within a cent: first + (n-1)*remaining ~= settled.
	sum := res.FirstInstallment.Add(res.RemainingInstallment.Mul(dec("3")))
	diff := sum.Sub(res.SettledTotal).Abs()
	assert.True(t, diff.LessThanOrEqual(dec("0.01")), "diff = %s", diff)
}

func TestComputeDownPaymentPercent(t *testing.T) {
	res := Compute(ProfileCorporate, CategoryISSQN,
		Plan{
			Choice:           ChoiceInstallment,
			Installments:     5,
			DownPaymentMode:  DownPaymentPercent,
			DownPaymentValue: dec("25"),
		},
		dec("10000"), dec("3000"), dec("500"))

	assertDec(t, "2700", res.DownPayment, "down payment")
	assertDec(t, "2025", res.RemainingInstallment, "remaining installment")
}

func TestComputeDownPaymentClamped(t *testing.T) {
	res := Compute(ProfileCorporate, CategoryISSQN,
		Plan{
			Choice:           ChoiceInstallment,
			Installments:     3,
			DownPaymentMode:  DownPaymentAmount,
			DownPaymentValue: dec("999999"),
		},
		dec("10000"), dec("3000"), dec("0"))

	require.True(t, res.DownPayment.Equal(res.SettledTotal), "down payment clamps to settled total")
	assertDec(t, "0", res.RemainingInstallment, "remaining installment")
	assert.Equal(t, AlertRemainderBelowMinimum, res.Alert)
}

func TestComputeDownPaymentBelowMinimumAlert(t *testing.T) {
	res := Compute(ProfileIndividual, CategoryPropertyTax,
		Plan{
			Choice:           ChoiceInstallment,
			Installments:     2,
			DownPaymentMode:  DownPaymentAmount,
			DownPaymentValue: dec("100"),
		},
		dec("9000"), dec("1000"), dec("0"))

	// remaining is large, so the down-payment check is the first to fire.
	assert.Equal(t, AlertDownPaymentBelowMinimum, res.Alert)
	assertDec(t, "100", res.FirstInstallment, "first installment")
}

func TestComputeSingleInstallmentReportsDownPayment(t *testing.T) {
	res := Compute(ProfileCorporate, CategoryISSQN,
		Plan{
			Choice:           ChoiceInstallment,
			Installments:     1,
			DownPaymentMode:  DownPaymentAmount,
			DownPaymentValue: dec("300"),
		},
		dec("1000"), dec("200"), dec("50"))

	// With a single slot the split stays uniform, but the resolved down
	// payment is still reported.
	assertDec(t, "300", res.DownPayment, "down payment")
	assertDec(t, "1250", res.InstallmentAmount, "installment amount")
	assertDec(t, "1250", res.FirstInstallment, "first installment")
	assert.Equal(t, AlertMinimumTwoInstallments, res.Alert)
}

func TestComputeFirstAlertWins(t *testing.T) {
	// Below lump-sum floor and with a tiny down payment: the earlier
	// floor alert must not be overwritten by the down-payment alert.
	res := Compute(ProfileIndividual, CategoryPropertyTax,
		Plan{
			Choice:           ChoiceInstallment,
			Installments:     2,
			DownPaymentMode:  DownPaymentAmount,
			DownPaymentValue: dec("10"),
		},
		dec("100"), dec("100"), dec("0"))
	assert.Equal(t, AlertLumpSumOnlyBelowMinimum, res.Alert)
}

func TestComputePerStepRounding(t *testing.T) {
	// Discount and settled are rounded at each step, not once at the end.
	res := Compute(ProfileCorporate, CategoryISSQN,
		Plan{Choice: ChoiceInstallment, Installments: 3},
		dec("1000"), dec("100.01"), dec("0"))
	// base = 100.01, rate 0.9 => 90.009 rounds half-up to 90.01
	assertDec(t, "90.01", res.DiscountAmount, "discount amount")
	assertDec(t, "1010", res.SettledTotal, "settled total")
	// 1010/3 = 336.666... => 336.67
	assertDec(t, "336.67", res.InstallmentAmount, "installment amount")
}
