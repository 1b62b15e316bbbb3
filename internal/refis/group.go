package refis

import (
	"github.com/shopspring/decimal"

	"github.com/refis-sim/refis-sim/internal/money"
)

// Group is a joint simulation over a set of items negotiated together.
// It is a snapshot: later changes to the member items do not propagate.
type Group struct {
	ID           int64           `json:"id"`
	Entity       string          `json:"entity"`
	Profile      Profile         `json:"profile"`
	Category     Category        `json:"category"`
	Choice       Choice          `json:"choice"`
	Installments int             `json:"installments"`
	MemberIDs    []int64         `json:"memberIds"`
	Principal    decimal.Decimal `json:"principal"`
	Charges      decimal.Decimal `json:"charges"`
	Correction   decimal.Decimal `json:"correction"`
	Settlement   Result          `json:"settlement"`
	Key          string          `json:"key"`
}

// NewGroup sums the monetary components of the members and settles the
// sum as if it were a single debt. All members must belong to one entity
// and one profile; mixing returns ErrMixedProfile and no group is
// created.
func NewGroup(id int64, members []Item, category Category, plan Plan) (Group, error) {
	if len(members) == 0 {
		return Group{}, ErrNoMembers
	}
	entity, profile := members[0].Entity, members[0].Profile
	for _, m := range members[1:] {
		if m.Entity != entity || m.Profile != profile {
			return Group{}, ErrMixedProfile
		}
	}
	if plan.Choice == ChoiceLumpSum {
		plan.Installments = 1
	}

	principal, charges, correction := decimal.Zero, decimal.Zero, decimal.Zero
	memberIDs := make([]int64, 0, len(members))
	signatures := make([]string, 0, len(members))
	for _, m := range members {
		principal = principal.Add(money.Round(m.Principal))
		charges = charges.Add(money.Round(m.Charges))
		correction = correction.Add(money.Round(m.Correction))
		memberIDs = append(memberIDs, m.ID)
		signatures = append(signatures, m.Signature())
	}

	return Group{
		ID:           id,
		Entity:       entity,
		Profile:      profile,
		Category:     category,
		Choice:       plan.Choice,
		Installments: plan.Installments,
		MemberIDs:    memberIDs,
		Principal:    principal,
		Charges:      charges,
		Correction:   correction,
		Settlement:   Compute(profile, category, plan, principal, charges, correction),
		Key:          GroupKey(entity, profile, category, signatures),
	}, nil
}
