// Package refis implements the settlement engine for the municipal
// debt-renegotiation (REFIS) program: discount rule tables, settlement
// and installment arithmetic, item/group aggregation and the "OR"
// consolidation that compares alternative simulations of one debt.
//
// The package is pure computation. Persistence, transport and rendering
// live in their own packages and consume the typed records built here.
package refis

import "errors"

// Profile identifies the taxpayer profile, which sets the minimum
// installment and lump-sum floors.
type Profile string

const (
	// ProfileIndividual covers natural persons and micro-entrepreneurs (PF/MEI).
	ProfileIndividual Profile = "PF/MEI"
	// ProfileCorporate covers legal entities (PJ).
	ProfileCorporate Profile = "PJ"
)

// Category is the debt category. It selects the discount tiers, the
// installment bounds and the discount base composition.
type Category string

const (
	CategoryPropertyTax     Category = "iptu-taxas-imoveis"
	CategoryISSQN           Category = "issqn"
	CategoryFormalFine      Category = "multas-formais"
	CategoryRegulatoryFine  Category = "multas-regulatorias"
	CategoryRegistrationFee Category = "taxa-inscricao-municipal"
)

// Categories lists every supported debt category.
var Categories = []Category{
	CategoryPropertyTax,
	CategoryISSQN,
	CategoryFormalFine,
	CategoryRegulatoryFine,
	CategoryRegistrationFee,
}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IsFine reports whether the category is a fines category. Fines settle
// lump-sum only and discount over principal plus charges.
func (c Category) IsFine() bool {
	return c == CategoryFormalFine || c == CategoryRegulatoryFine
}

// Choice is the payment choice for a simulation.
type Choice string

const (
	ChoiceLumpSum     Choice = "lump-sum"
	ChoiceInstallment Choice = "installment"
)

// DownPaymentMode selects how the optional down payment is expressed.
type DownPaymentMode string

const (
	DownPaymentNone    DownPaymentMode = "none"
	DownPaymentAmount  DownPaymentMode = "amount"
	DownPaymentPercent DownPaymentMode = "percent"
)

// Validation alerts attached to computed results. Domain-policy
// violations never abort a computation; the first detected alert is kept
// and later checks do not overwrite it.
const (
	AlertLumpSumOnlyBelowMinimum = "lump-sum only below minimum"
	AlertFinesLumpSumOnly        = "fines: lump-sum only"
	AlertISSQNMaxInstallments    = "ISSQN: max 16 installments"
	AlertFeesMaxInstallments     = "fees/tax: max 60 installments"
	AlertMinimumTwoInstallments  = "minimum 2 installments"
	AlertInstallmentBelowMinimum = "installment below minimum"
	AlertRemainderBelowMinimum   = "installment (excluding down payment) below minimum"
	AlertDownPaymentBelowMinimum = "down payment below minimum"
)

var (
	// ErrMixedProfile is returned when a group would span more than one
	// entity or taxpayer profile. Group creation must fail outright.
	ErrMixedProfile = errors.New("refis: group members span multiple entities or profiles")
	// ErrNoMembers is returned when a group is built from an empty set.
	ErrNoMembers = errors.New("refis: group requires at least one member")
)
