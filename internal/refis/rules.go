package refis

import (
	"github.com/shopspring/decimal"

	"github.com/refis-sim/refis-sim/internal/money"
)

// discountTier maps an inclusive installment-count range to a discount
// fraction over the discount base.
type discountTier struct {
	min, max int
	rate     decimal.Decimal
}

// categoryRule is the declarative policy record for one debt category.
type categoryRule struct {
	lumpSumRate      decimal.Decimal
	installmentTiers []discountTier
	minInstallments  int
	maxInstallments  int
}

var (
	rateFull = decimal.NewFromInt(1)
	rate95   = decimal.RequireFromString("0.95")
	rate90   = decimal.RequireFromString("0.9")
	rate80   = decimal.RequireFromString("0.8")
	rate70   = decimal.RequireFromString("0.7")
	rateHalf = decimal.RequireFromString("0.5")

	minInstallmentIndividual = decimal.RequireFromString("152.50")
	minInstallmentCorporate  = decimal.RequireFromString("457.50")
	minLumpSumIndividual     = decimal.NewFromInt(305)
	minLumpSumCorporate      = decimal.NewFromInt(915)
)

// feeTiers applies to property tax/fees and the municipal registration fee.
var feeTiers = []discountTier{
	{min: 2, max: 6, rate: rate95},
	{min: 7, max: 20, rate: rate90},
	{min: 21, max: 40, rate: rate80},
	{min: 41, max: 60, rate: rate70},
}

var issqnTiers = []discountTier{
	{min: 2, max: 6, rate: rate90},
	{min: 7, max: 16, rate: rate80},
}

var ruleTable = map[Category]categoryRule{
	CategoryPropertyTax: {
		lumpSumRate:      rateFull,
		installmentTiers: feeTiers,
		minInstallments:  1,
		maxInstallments:  60,
	},
	CategoryRegistrationFee: {
		lumpSumRate:      rateFull,
		installmentTiers: feeTiers,
		minInstallments:  1,
		maxInstallments:  60,
	},
	CategoryISSQN: {
		lumpSumRate:      rateFull,
		installmentTiers: issqnTiers,
		minInstallments:  1,
		maxInstallments:  16,
	},
	CategoryFormalFine: {
		lumpSumRate:     rateHalf,
		minInstallments: 1,
		maxInstallments: 1,
	},
	CategoryRegulatoryFine: {
		lumpSumRate:     rateHalf,
		minInstallments: 1,
		maxInstallments: 1,
	},
}

// DiscountRate returns the discount fraction for the category, payment
// choice and installment count. Counts outside every tier yield zero;
// the table is never extrapolated.
func DiscountRate(category Category, choice Choice, installments int) decimal.Decimal {
	rule, ok := ruleTable[category]
	if !ok {
		return decimal.Zero
	}
	if choice == ChoiceLumpSum {
		return rule.lumpSumRate
	}
	for _, tier := range rule.installmentTiers {
		if installments >= tier.min && installments <= tier.max {
			return tier.rate
		}
	}
	return decimal.Zero
}

// InstallmentBounds returns the allowed installment-count range for the
// category. Fines are lump-sum only, so their range is [1,1].
func InstallmentBounds(category Category) (min, max int) {
	rule, ok := ruleTable[category]
	if !ok {
		return 1, 1
	}
	return rule.minInstallments, rule.maxInstallments
}

// MinInstallment returns the minimum value of a single installment for
// the profile.
func MinInstallment(profile Profile) decimal.Decimal {
	if profile == ProfileIndividual {
		return minInstallmentIndividual
	}
	return minInstallmentCorporate
}

// MinLumpSumTotal returns the total below which only lump-sum payment is
// allowed for the profile.
func MinLumpSumTotal(profile Profile) decimal.Decimal {
	if profile == ProfileIndividual {
		return minLumpSumIndividual
	}
	return minLumpSumCorporate
}

// DiscountBase returns the portion of the debt eligible for discount.
// Fines discount over principal plus charges; every other category over
// charges only. Inflation correction never enters the base under any
// category. Negative components are clamped to zero.
func DiscountBase(category Category, principal, charges decimal.Decimal) decimal.Decimal {
	if category.IsFine() {
		return money.Round(clampZero(principal).Add(clampZero(charges)))
	}
	return money.Round(clampZero(charges))
}

func clampZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
