package refis

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Candidate is the retained simulation on one side (lump-sum or
// installment) of a consolidation entry.
type Candidate struct {
	ID                   int64           `json:"id"`
	SettledTotal         decimal.Decimal `json:"settledTotal"`
	Installments         int             `json:"installments"`
	FirstInstallment     decimal.Decimal `json:"firstInstallment"`
	RemainingInstallment decimal.Decimal `json:"remainingInstallment"`
}

// Entry is the consolidated ("OR") view for one identity key: the
// cheapest lump-sum and the cheapest installment simulation seen, plus
// the label of the better option. Entries are ephemeral views, rebuilt
// from the current collection on demand.
type Entry struct {
	Key          string          `json:"key"`
	Entity       string          `json:"entity"`
	Profile      Profile         `json:"profile"`
	Category     Category        `json:"category"`
	Description  string          `json:"description,omitempty"`
	Year         int             `json:"year,omitempty"`
	Principal    decimal.Decimal `json:"principal"`
	Charges      decimal.Decimal `json:"charges"`
	Correction   decimal.Decimal `json:"correction"`
	CurrentTotal decimal.Decimal `json:"currentTotal"`
	LumpSum      *Candidate      `json:"lumpSum,omitempty"`
	Installment  *Candidate      `json:"installment,omitempty"`
	BestOption   string          `json:"bestOption,omitempty"`
}

// BestOptionLumpSum is the label reported when paying at once is at
// least as cheap as the best installment plan.
const BestOptionLumpSum = "lump-sum"

// ConsolidateItems folds repeated simulations of the same debt into one
// entry per identity key. Candidates are visited in slice order; a later
// candidate replaces the retained one only when strictly cheaper, so
// ties keep the first seen. Entry order follows first appearance of each
// key, which makes the fold deterministic for a deterministic input
// order.
func ConsolidateItems(items []Item) []Entry {
	entries := make([]Entry, 0, len(items))
	index := make(map[string]int, len(items))

	for _, it := range items {
		pos, ok := index[it.Key]
		if !ok {
			pos = len(entries)
			index[it.Key] = pos
			entries = append(entries, Entry{
				Key:          it.Key,
				Entity:       it.Entity,
				Profile:      it.Profile,
				Category:     it.Category,
				Description:  it.Description,
				Year:         it.Year,
				Principal:    it.Principal,
				Charges:      it.Charges,
				Correction:   it.Correction,
				CurrentTotal: it.Settlement.CurrentTotal,
			})
		}
		offer(&entries[pos], it.Choice, Candidate{
			ID:                   it.ID,
			SettledTotal:         it.Settlement.SettledTotal,
			Installments:         it.Installments,
			FirstInstallment:     it.Settlement.FirstInstallment,
			RemainingInstallment: it.Settlement.RemainingInstallment,
		})
	}

	finish(entries)
	return entries
}

// ConsolidateGroups is the group-level counterpart of ConsolidateItems:
// the identity key covers the member multiset, so two groups over the
// same debts collapse regardless of member ordering.
func ConsolidateGroups(groups []Group) []Entry {
	entries := make([]Entry, 0, len(groups))
	index := make(map[string]int, len(groups))

	for _, g := range groups {
		pos, ok := index[g.Key]
		if !ok {
			pos = len(entries)
			index[g.Key] = pos
			entries = append(entries, Entry{
				Key:          g.Key,
				Entity:       g.Entity,
				Profile:      g.Profile,
				Category:     g.Category,
				Principal:    g.Principal,
				Charges:      g.Charges,
				Correction:   g.Correction,
				CurrentTotal: g.Settlement.CurrentTotal,
			})
		}
		offer(&entries[pos], g.Choice, Candidate{
			ID:                   g.ID,
			SettledTotal:         g.Settlement.SettledTotal,
			Installments:         g.Installments,
			FirstInstallment:     g.Settlement.FirstInstallment,
			RemainingInstallment: g.Settlement.RemainingInstallment,
		})
	}

	finish(entries)
	return entries
}

// offer installs the candidate on the matching side unless a cheaper or
// equally cheap one is already held.
func offer(e *Entry, choice Choice, c Candidate) {
	slot := &e.Installment
	if choice == ChoiceLumpSum {
		slot = &e.LumpSum
	}
	if *slot == nil || c.SettledTotal.LessThan((*slot).SettledTotal) {
		held := c
		*slot = &held
	}
}

func finish(entries []Entry) {
	for i := range entries {
		entries[i].BestOption = bestOption(entries[i].LumpSum, entries[i].Installment)
	}
}

func bestOption(lump, inst *Candidate) string {
	switch {
	case lump != nil && (inst == nil || lump.SettledTotal.LessThanOrEqual(inst.SettledTotal)):
		return BestOptionLumpSum
	case inst != nil:
		return fmt.Sprintf("installment (%dx)", inst.Installments)
	default:
		return ""
	}
}
