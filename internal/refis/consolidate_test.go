package refis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issqnItem(id int64, choice Choice, installments int) Item {
	return NewItem(id, "ACME", ProfileCorporate, "ISS 2022", 2022, CategoryISSQN,
		Plan{Choice: choice, Installments: installments},
		dec("10000"), dec("2000"), dec("500"))
}

func TestConsolidateItemsPairsAlternatives(t *testing.T) {
	entries := ConsolidateItems([]Item{
		issqnItem(1, ChoiceLumpSum, 1),
		issqnItem(2, ChoiceInstallment, 10),
	})
	require.Len(t, entries, 1)

	e := entries[0]
	require.NotNil(t, e.LumpSum)
	require.NotNil(t, e.Installment)
	assert.Equal(t, int64(1), e.LumpSum.ID)
	assert.Equal(t, int64(2), e.Installment.ID)
	assert.Equal(t, 10, e.Installment.Installments)
	// lump-sum settles at 10500, the 10x plan at 10900.
	assert.Equal(t, BestOptionLumpSum, e.BestOption)
	assert.True(t, e.LumpSum.SettledTotal.LessThan(e.Installment.SettledTotal))
}

func TestConsolidateItemsKeepsCheapestPerSide(t *testing.T) {
	entries := ConsolidateItems([]Item{
		issqnItem(1, ChoiceInstallment, 10), // 0.8 tier
		issqnItem(2, ChoiceInstallment, 4),  // 0.9 tier, cheaper
		issqnItem(3, ChoiceInstallment, 14), // 0.8 tier again
	})
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Installment)
	assert.Equal(t, int64(2), entries[0].Installment.ID)
	assert.Equal(t, "installment (4x)", entries[0].BestOption)
	assert.Nil(t, entries[0].LumpSum)
}

func TestConsolidateItemsTieKeepsFirstSeen(t *testing.T) {
	first := issqnItem(10, ChoiceInstallment, 10)
	duplicate := issqnItem(20, ChoiceInstallment, 10)
	entries := ConsolidateItems([]Item{first, duplicate})
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Installment)
	assert.Equal(t, int64(10), entries[0].Installment.ID)
}

func TestConsolidateItemsReorderingNonTiedKeepsWinner(t *testing.T) {
	a := issqnItem(1, ChoiceInstallment, 4)
	b := issqnItem(2, ChoiceInstallment, 10)

	forward := ConsolidateItems([]Item{a, b})
	backward := ConsolidateItems([]Item{b, a})
	require.Len(t, forward, 1)
	require.Len(t, backward, 1)
	assert.Equal(t, forward[0].Installment.ID, backward[0].Installment.ID)
	assert.True(t, forward[0].Installment.SettledTotal.Equal(backward[0].Installment.SettledTotal))
}

func TestConsolidateItemsLumpSumWinsTies(t *testing.T) {
	// Same settled total on both sides: the label prefers lump-sum.
	lump := NewItem(1, "ACME", ProfileCorporate, "fine", 2023, CategoryFormalFine,
		Plan{Choice: ChoiceLumpSum}, dec("0"), dec("0"), dec("400")) // settled 400
	inst := NewItem(2, "ACME", ProfileCorporate, "fine", 2023, CategoryFormalFine,
		Plan{Choice: ChoiceInstallment, Installments: 2}, dec("0"), dec("0"), dec("400"))

	entries := ConsolidateItems([]Item{inst, lump})
	require.Len(t, entries, 1)
	assert.Equal(t, BestOptionLumpSum, entries[0].BestOption)
}

func TestConsolidateItemsSeparatesDistinctKeys(t *testing.T) {
	other := NewItem(3, "Globex", ProfileCorporate, "ISS 2022", 2022, CategoryISSQN,
		Plan{Choice: ChoiceLumpSum}, dec("10000"), dec("2000"), dec("500"))
	entries := ConsolidateItems([]Item{issqnItem(1, ChoiceLumpSum, 1), other})
	require.Len(t, entries, 2)
	assert.Equal(t, "ACME", entries[0].Entity)
	assert.Equal(t, "Globex", entries[1].Entity)
}

func TestConsolidateItemsIdempotent(t *testing.T) {
	input := []Item{
		issqnItem(1, ChoiceLumpSum, 1),
		issqnItem(2, ChoiceInstallment, 10),
		issqnItem(3, ChoiceInstallment, 4),
	}
	assert.Equal(t, ConsolidateItems(input), ConsolidateItems(input))
}

func TestConsolidateGroupsCollapsesSameMemberSet(t *testing.T) {
	a := itemFixture(1, "ACME", ProfileCorporate, "IPTU 2020", 2020, "5000")
	b := itemFixture(2, "ACME", ProfileCorporate, "IPTU 2021", 2021, "6000")

	lump, err := NewGroup(1, []Item{a, b}, CategoryPropertyTax, Plan{Choice: ChoiceLumpSum})
	require.NoError(t, err)
	parc, err := NewGroup(2, []Item{b, a}, CategoryPropertyTax,
		Plan{Choice: ChoiceInstallment, Installments: 24})
	require.NoError(t, err)

	entries := ConsolidateGroups([]Group{lump, parc})
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].LumpSum)
	require.NotNil(t, entries[0].Installment)
	assert.Equal(t, 24, entries[0].Installment.Installments)
	assert.Equal(t, BestOptionLumpSum, entries[0].BestOption)
}

func TestConsolidateEmptyInput(t *testing.T) {
	assert.Empty(t, ConsolidateItems(nil))
	assert.Empty(t, ConsolidateGroups(nil))
}
