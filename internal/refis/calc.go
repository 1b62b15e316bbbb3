package refis

import (
	"github.com/shopspring/decimal"

	"github.com/refis-sim/refis-sim/internal/money"
)

// Plan describes the payment configuration of a simulation.
type Plan struct {
	Choice           Choice          `json:"choice"`
	Installments     int             `json:"installments"`
	DownPaymentMode  DownPaymentMode `json:"downPaymentMode"`
	DownPaymentValue decimal.Decimal `json:"downPaymentValue"`
}

// Result carries every derived monetary field of a settlement
// computation. All amounts are rounded to cents; Alert is empty when the
// configuration is compliant.
type Result struct {
	CurrentTotal         decimal.Decimal `json:"currentTotal"`
	DiscountRate         decimal.Decimal `json:"discountRate"`
	DiscountBase         decimal.Decimal `json:"discountBase"`
	DiscountAmount       decimal.Decimal `json:"discountAmount"`
	SettledTotal         decimal.Decimal `json:"settledTotal"`
	MinInstallment       decimal.Decimal `json:"minInstallment"`
	InstallmentAmount    decimal.Decimal `json:"installmentAmount"`
	DownPayment          decimal.Decimal `json:"downPayment"`
	FirstInstallment     decimal.Decimal `json:"firstInstallment"`
	RemainingInstallment decimal.Decimal `json:"remainingInstallment"`
	Alert                string          `json:"alert,omitempty"`
}

// Compute derives the settlement for one debt under the given plan.
//
// Domain violations (forbidden installment plans, amounts below the
// profile floors) never abort the computation: the result is produced
// with the requested parameters and the first violation found, in the
// order checked here, is attached as the alert. Intermediate results are
// rounded to cents after every arithmetic step; the chained rounding is
// part of the contract and can differ from round-once-at-the-end by a
// cent on specific inputs.
func Compute(profile Profile, category Category, plan Plan, principal, charges, correction decimal.Decimal) Result {
	principal = money.Round(principal)
	charges = money.Round(charges)
	correction = money.Round(correction)

	res := Result{
		MinInstallment: MinInstallment(profile),
		CurrentTotal:   money.Round(principal.Add(charges).Add(correction)),
	}

	alert := ""
	if plan.Choice == ChoiceInstallment && res.CurrentTotal.LessThan(MinLumpSumTotal(profile)) {
		alert = AlertLumpSumOnlyBelowMinimum
	}
	if category.IsFine() && plan.Choice == ChoiceInstallment {
		alert = AlertFinesLumpSumOnly
	}

	minCount, maxCount := InstallmentBounds(category)
	count := plan.Installments
	if plan.Choice == ChoiceInstallment && !(count >= minCount && count <= maxCount && count >= 2) {
		switch {
		case category == CategoryISSQN && count > 16:
			alert = AlertISSQNMaxInstallments
		case (category == CategoryPropertyTax || category == CategoryRegistrationFee) && count > 60:
			alert = AlertFeesMaxInstallments
		case count < 2:
			alert = AlertMinimumTwoInstallments
		}
	}

	res.DiscountRate = DiscountRate(category, plan.Choice, count)
	res.DiscountBase = DiscountBase(category, principal, charges)
	res.DiscountAmount = money.Round(res.DiscountBase.Mul(res.DiscountRate))
	res.SettledTotal = money.Round(res.CurrentTotal.Sub(res.DiscountAmount))

	if plan.Choice == ChoiceInstallment && count > 0 {
		down := resolveDownPayment(plan, res.SettledTotal)
		res.DownPayment = down
		if down.IsPositive() && count >= 2 {
			// The down payment substitutes the first installment; the
			// remaining balance is split over the other count-1 slots.
			remaining := money.Round(res.SettledTotal.Sub(down))
			res.RemainingInstallment = money.Round(remaining.Div(decimal.NewFromInt(int64(count - 1))))
			res.FirstInstallment = down
			if res.RemainingInstallment.LessThan(res.MinInstallment) && alert == "" {
				alert = AlertRemainderBelowMinimum
			}
			if res.FirstInstallment.LessThan(res.MinInstallment) && alert == "" {
				alert = AlertDownPaymentBelowMinimum
			}
		} else {
			res.InstallmentAmount = money.Round(res.SettledTotal.Div(decimal.NewFromInt(int64(count))))
			res.FirstInstallment = res.InstallmentAmount
			res.RemainingInstallment = res.InstallmentAmount
			if res.InstallmentAmount.LessThan(res.MinInstallment) && alert == "" {
				alert = AlertInstallmentBelowMinimum
			}
		}
	}

	res.Alert = alert
	return res
}

// resolveDownPayment turns the plan's down-payment request into an
// absolute amount clamped to [0, settled].
func resolveDownPayment(plan Plan, settled decimal.Decimal) decimal.Decimal {
	switch plan.DownPaymentMode {
	case DownPaymentAmount:
		v := money.Round(plan.DownPaymentValue)
		if v.IsNegative() {
			return decimal.Zero
		}
		if v.GreaterThan(settled) {
			return settled
		}
		return v
	case DownPaymentPercent:
		pct := plan.DownPaymentValue
		if pct.IsNegative() {
			pct = decimal.Zero
		}
		if pct.GreaterThan(decimal.NewFromInt(100)) {
			pct = decimal.NewFromInt(100)
		}
		return money.Round(settled.Mul(pct).Div(decimal.NewFromInt(100)))
	default:
		return decimal.Zero
	}
}
