package refis

import (
	"github.com/shopspring/decimal"

	"github.com/refis-sim/refis-sim/internal/money"
)

// Item is one persisted debt simulation. Items are immutable once
// created; recomputing with the same inputs yields an identical record.
type Item struct {
	ID           int64           `json:"id"`
	Entity       string          `json:"entity"`
	Profile      Profile         `json:"profile"`
	Description  string          `json:"description"`
	Year         int             `json:"year"`
	Category     Category        `json:"category"`
	Choice       Choice          `json:"choice"`
	Installments int             `json:"installments"`
	Principal    decimal.Decimal `json:"principal"`
	Charges      decimal.Decimal `json:"charges"`
	Correction   decimal.Decimal `json:"correction"`
	Settlement   Result          `json:"settlement"`
	Key          string          `json:"key"`
}

// NewItem computes the settlement for a single debt and wraps it with
// its identity key. A lump-sum choice forces the installment count to 1.
func NewItem(id int64, entity string, profile Profile, description string, year int, category Category, plan Plan, principal, charges, correction decimal.Decimal) Item {
	if plan.Choice == ChoiceLumpSum {
		plan.Installments = 1
	}
	principal = money.Round(principal)
	charges = money.Round(charges)
	correction = money.Round(correction)
	return Item{
		ID:           id,
		Entity:       entity,
		Profile:      profile,
		Description:  description,
		Year:         year,
		Category:     category,
		Choice:       plan.Choice,
		Installments: plan.Installments,
		Principal:    principal,
		Charges:      charges,
		Correction:   correction,
		Settlement:   Compute(profile, category, plan, principal, charges, correction),
		Key:          ItemKey(entity, profile, category, description, year, principal),
	}
}

// Signature returns the member signature used inside group keys.
func (i Item) Signature() string {
	return MemberSignature(i.Description, i.Year, i.Principal)
}
