package simulation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refis-sim/refis-sim/internal/platform/httpx"
	"github.com/refis-sim/refis-sim/internal/refis"
)

// memRepo is an in-memory Repository for tests.
type memRepo struct {
	items     []refis.Item
	groups    []refis.Group
	nextItem  int64
	nextGroup int64
	listCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{nextItem: 1, nextGroup: 1}
}

func (m *memRepo) InsertItem(_ context.Context, item refis.Item) (refis.Item, error) {
	item.ID = m.nextItem
	m.nextItem++
	m.items = append(m.items, item)
	return item, nil
}

func (m *memRepo) ListItems(_ context.Context, entity string) ([]refis.Item, error) {
	m.listCalls++
	if entity == "" {
		return append([]refis.Item(nil), m.items...), nil
	}
	var out []refis.Item
	for _, it := range m.items {
		if it.Entity == entity {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memRepo) ItemsByIDs(_ context.Context, ids []int64) ([]refis.Item, error) {
	var out []refis.Item
	for _, id := range ids {
		for _, it := range m.items {
			if it.ID == id {
				out = append(out, it)
				break
			}
		}
	}
	return out, nil
}

func (m *memRepo) DeleteItem(_ context.Context, id int64) error {
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: item %d", httpx.ErrNotFound, id)
}

func (m *memRepo) InsertGroup(_ context.Context, group refis.Group) (refis.Group, error) {
	group.ID = m.nextGroup
	m.nextGroup++
	m.groups = append(m.groups, group)
	return group, nil
}

func (m *memRepo) ListGroups(_ context.Context, entity string) ([]refis.Group, error) {
	if entity == "" {
		return append([]refis.Group(nil), m.groups...), nil
	}
	var out []refis.Group
	for _, g := range m.groups {
		if g.Entity == entity {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memRepo) DeleteGroup(_ context.Context, id int64) error {
	for i, g := range m.groups {
		if g.ID == id {
			m.groups = append(m.groups[:i], m.groups[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: group %d", httpx.ErrNotFound, id)
}

func (m *memRepo) NextIDs(_ context.Context) (int64, int64, error) {
	return m.nextItem, m.nextGroup, nil
}

func (m *memRepo) Replace(_ context.Context, items []refis.Item, groups []refis.Group) error {
	m.items = append([]refis.Item(nil), items...)
	m.groups = append([]refis.Group(nil), groups...)
	m.nextItem, m.nextGroup = 1, 1
	for _, it := range items {
		if it.ID >= m.nextItem {
			m.nextItem = it.ID + 1
		}
	}
	for _, g := range groups {
		if g.ID >= m.nextGroup {
			m.nextGroup = g.ID + 1
		}
	}
	return nil
}

func issqnParams(choice refis.Choice, installments int) ItemParams {
	return ItemParams{
		Entity:       "ACME",
		Profile:      refis.ProfileCorporate,
		Description:  "ISS 2022",
		Year:         2022,
		Category:     refis.CategoryISSQN,
		Choice:       choice,
		Installments: installments,
		Principal:    "1.000,00",
		Charges:      "200,00",
		Correction:   "50,00",
	}
}

func TestCreateItemParsesLocalisedMoney(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	item, err := svc.CreateItem(context.Background(), issqnParams(refis.ChoiceLumpSum, 1))
	require.NoError(t, err)

	assert.Equal(t, int64(1), item.ID)
	assert.True(t, item.Principal.Equal(decimal.RequireFromString("1000")))
	assert.True(t, item.Settlement.CurrentTotal.Equal(decimal.RequireFromString("1250")))
	assert.True(t, item.Settlement.SettledTotal.Equal(decimal.RequireFromString("1050")))
	assert.Empty(t, item.Settlement.Alert)
}

func TestCreateItemRejectsBadMoney(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	params := issqnParams(refis.ChoiceLumpSum, 1)
	params.Principal = "not-a-number"
	_, err := svc.CreateItem(context.Background(), params)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateGroupHappyPath(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.CreateItem(ctx, issqnParams(refis.ChoiceLumpSum, 1))
	require.NoError(t, err)
	params := issqnParams(refis.ChoiceLumpSum, 1)
	params.Description = "ISS 2023"
	params.Year = 2023
	second, err := svc.CreateItem(ctx, params)
	require.NoError(t, err)

	group, err := svc.CreateGroup(ctx, GroupParams{
		MemberIDs:    []int64{first.ID, second.ID},
		Category:     refis.CategoryISSQN,
		Choice:       refis.ChoiceInstallment,
		Installments: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), group.ID)
	assert.True(t, group.Principal.Equal(decimal.RequireFromString("2000")))
	assert.Equal(t, []int64{first.ID, second.ID}, group.MemberIDs)
}

func TestCreateGroupMissingMember(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, issqnParams(refis.ChoiceLumpSum, 1))
	require.NoError(t, err)

	_, err = svc.CreateGroup(ctx, GroupParams{
		MemberIDs: []int64{item.ID, 999},
		Category:  refis.CategoryISSQN,
		Choice:    refis.ChoiceLumpSum,
	})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateGroupMixedProfiles(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.CreateItem(ctx, issqnParams(refis.ChoiceLumpSum, 1))
	require.NoError(t, err)
	params := issqnParams(refis.ChoiceLumpSum, 1)
	params.Profile = refis.ProfileIndividual
	second, err := svc.CreateItem(ctx, params)
	require.NoError(t, err)

	_, err = svc.CreateGroup(ctx, GroupParams{
		MemberIDs: []int64{first.ID, second.ID},
		Category:  refis.CategoryISSQN,
		Choice:    refis.ChoiceLumpSum,
	})
	assert.ErrorIs(t, err, refis.ErrMixedProfile)
	assert.Empty(t, repo.groups)
}

func TestCreateGroupWrongCategory(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, issqnParams(refis.ChoiceLumpSum, 1))
	require.NoError(t, err)

	_, err = svc.CreateGroup(ctx, GroupParams{
		MemberIDs: []int64{item.ID},
		Category:  refis.CategoryPropertyTax,
		Choice:    refis.ChoiceLumpSum,
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSummaryAggregatesByEntityAndCategory(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, issqnParams(refis.ChoiceLumpSum, 1))
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, issqnParams(refis.ChoiceInstallment, 10))
	require.NoError(t, err)
	other := issqnParams(refis.ChoiceLumpSum, 1)
	other.Entity = "Globex"
	_, err = svc.CreateItem(ctx, other)
	require.NoError(t, err)

	rows, err := svc.Summary(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ACME", rows[0].Entity)
	assert.Equal(t, 2, rows[0].Items)
	assert.True(t, rows[0].CurrentTotal.Equal(decimal.RequireFromString("2500")))
	// 1050 lump-sum + 1090 at 10x
	assert.True(t, rows[0].SettledTotal.Equal(decimal.RequireFromString("2140")))
	assert.Equal(t, "Globex", rows[1].Entity)
}

func TestConsolidatedItemsCachesUntilMutation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemRepo()
	svc := NewService(repo, NewCache(client, time.Minute))
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, issqnParams(refis.ChoiceLumpSum, 1))
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, issqnParams(refis.ChoiceInstallment, 10))
	require.NoError(t, err)

	first, err := svc.ConsolidatedItems(ctx, "")
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.NotNil(t, first[0].LumpSum)
	require.NotNil(t, first[0].Installment)
	assert.Equal(t, refis.BestOptionLumpSum, first[0].BestOption)

	calls := repo.listCalls
	cachedRun, err := svc.ConsolidatedItems(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, calls, repo.listCalls, "second read must come from cache")
	assert.Equal(t, len(first), len(cachedRun))

	// A mutation bumps the cache version and forces a rebuild.
	_, err = svc.CreateItem(ctx, issqnParams(refis.ChoiceInstallment, 4))
	require.NoError(t, err)
	rebuilt, err := svc.ConsolidatedItems(ctx, "")
	require.NoError(t, err)
	assert.Greater(t, repo.listCalls, calls)
	require.Len(t, rebuilt, 1)
	assert.Equal(t, int64(3), rebuilt[0].Installment.ID, "cheaper 4x plan replaces the 10x one")
}

func TestConsolidatedGroupsEntityFilter(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, issqnParams(refis.ChoiceLumpSum, 1))
	require.NoError(t, err)
	_, err = svc.CreateGroup(ctx, GroupParams{
		MemberIDs: []int64{item.ID},
		Category:  refis.CategoryISSQN,
		Choice:    refis.ChoiceLumpSum,
	})
	require.NoError(t, err)

	entries, err := svc.ConsolidatedGroups(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	none, err := svc.ConsolidatedGroups(ctx, "Globex")
	require.NoError(t, err)
	assert.Empty(t, none)
}
