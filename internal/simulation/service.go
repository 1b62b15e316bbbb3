// Package simulation orchestrates the settlement engine against the
// item/group store: creating and deleting simulations, summarising them
// per entity and serving the consolidated best-of views.
package simulation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/refis-sim/refis-sim/internal/money"
	"github.com/refis-sim/refis-sim/internal/platform/httpx"
	"github.com/refis-sim/refis-sim/internal/refis"
)

// Repository abstracts persistence of items and groups. Implementations
// must assign monotonically increasing identifiers on insert.
type Repository interface {
	InsertItem(ctx context.Context, item refis.Item) (refis.Item, error)
	ListItems(ctx context.Context, entity string) ([]refis.Item, error)
	ItemsByIDs(ctx context.Context, ids []int64) ([]refis.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	InsertGroup(ctx context.Context, group refis.Group) (refis.Group, error)
	ListGroups(ctx context.Context, entity string) ([]refis.Group, error)
	DeleteGroup(ctx context.Context, id int64) error
	NextIDs(ctx context.Context) (nextItem, nextGroup int64, err error)
	Replace(ctx context.Context, items []refis.Item, groups []refis.Group) error
}

// Service exposes the simulator use cases.
type Service struct {
	repo  Repository
	cache *Cache
	sf    singleflight.Group
}

// NewService constructs a Service. The cache may be nil, in which case
// consolidation views are rebuilt on every request.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// ItemParams carries the raw inputs of a single-debt simulation.
// Monetary fields are free-form text and go through money.Parse.
type ItemParams struct {
	Entity           string
	Profile          refis.Profile
	Description      string
	Year             int
	Category         refis.Category
	Choice           refis.Choice
	Installments     int
	Principal        string
	Charges          string
	Correction       string
	DownPaymentMode  refis.DownPaymentMode
	DownPaymentValue string
}

// GroupParams carries the inputs of a joint negotiation over stored items.
type GroupParams struct {
	MemberIDs        []int64
	Category         refis.Category
	Choice           refis.Choice
	Installments     int
	DownPaymentMode  refis.DownPaymentMode
	DownPaymentValue string
}

func (p ItemParams) plan() (refis.Plan, decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	principal, err := money.Parse(p.Principal)
	if err != nil {
		return refis.Plan{}, decimal.Zero, decimal.Zero, decimal.Zero,
			fmt.Errorf("%w: principal: %s", httpx.ErrValidation, p.Principal)
	}
	charges, err := parseOptional(p.Charges)
	if err != nil {
		return refis.Plan{}, decimal.Zero, decimal.Zero, decimal.Zero,
			fmt.Errorf("%w: charges: %s", httpx.ErrValidation, p.Charges)
	}
	correction, err := parseOptional(p.Correction)
	if err != nil {
		return refis.Plan{}, decimal.Zero, decimal.Zero, decimal.Zero,
			fmt.Errorf("%w: correction: %s", httpx.ErrValidation, p.Correction)
	}
	plan, err := buildPlan(p.Choice, p.Installments, p.DownPaymentMode, p.DownPaymentValue)
	if err != nil {
		return refis.Plan{}, decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	return plan, principal, charges, correction, nil
}

func parseOptional(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return money.Parse(s)
}

func buildPlan(choice refis.Choice, installments int, mode refis.DownPaymentMode, value string) (refis.Plan, error) {
	if mode == "" {
		mode = refis.DownPaymentNone
	}
	plan := refis.Plan{
		Choice:          choice,
		Installments:    installments,
		DownPaymentMode: mode,
	}
	if mode != refis.DownPaymentNone && value != "" {
		v, err := money.Parse(value)
		if err != nil {
			return refis.Plan{}, fmt.Errorf("%w: down payment: %s", httpx.ErrValidation, value)
		}
		plan.DownPaymentValue = v
	}
	return plan, nil
}

// PreviewItem computes a simulation without persisting it.
func (s *Service) PreviewItem(params ItemParams) (refis.Item, error) {
	plan, principal, charges, correction, err := params.plan()
	if err != nil {
		return refis.Item{}, err
	}
	return refis.NewItem(0, params.Entity, params.Profile, params.Description,
		params.Year, params.Category, plan, principal, charges, correction), nil
}

// CreateItem computes and persists a new debt simulation.
func (s *Service) CreateItem(ctx context.Context, params ItemParams) (refis.Item, error) {
	item, err := s.PreviewItem(params)
	if err != nil {
		return refis.Item{}, err
	}
	created, err := s.repo.InsertItem(ctx, item)
	if err != nil {
		return refis.Item{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// ListItems returns stored items, optionally filtered by entity.
func (s *Service) ListItems(ctx context.Context, entity string) ([]refis.Item, error) {
	return s.repo.ListItems(ctx, entity)
}

// DeleteItem removes a stored item by identifier.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// CreateGroup settles the selected items jointly and persists the
// snapshot. Members must exist and share one entity, profile and
// category.
func (s *Service) CreateGroup(ctx context.Context, params GroupParams) (refis.Group, error) {
	if len(params.MemberIDs) == 0 {
		return refis.Group{}, fmt.Errorf("%w: group requires at least one member", httpx.ErrValidation)
	}
	members, err := s.repo.ItemsByIDs(ctx, params.MemberIDs)
	if err != nil {
		return refis.Group{}, err
	}
	if len(members) != len(params.MemberIDs) {
		return refis.Group{}, fmt.Errorf("%w: one or more member items do not exist", httpx.ErrNotFound)
	}
	for _, m := range members {
		if m.Category != params.Category {
			return refis.Group{}, fmt.Errorf("%w: member %d is not a %s debt", httpx.ErrValidation, m.ID, params.Category)
		}
	}

	plan, err := buildPlan(params.Choice, params.Installments, params.DownPaymentMode, params.DownPaymentValue)
	if err != nil {
		return refis.Group{}, err
	}
	group, err := refis.NewGroup(0, members, params.Category, plan)
	if err != nil {
		return refis.Group{}, err
	}
	created, err := s.repo.InsertGroup(ctx, group)
	if err != nil {
		return refis.Group{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// ListGroups returns stored groups, optionally filtered by entity.
func (s *Service) ListGroups(ctx context.Context, entity string) ([]refis.Group, error) {
	return s.repo.ListGroups(ctx, entity)
}

// DeleteGroup removes a stored group by identifier.
func (s *Service) DeleteGroup(ctx context.Context, id int64) error {
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// SummaryRow aggregates stored items per entity and category.
type SummaryRow struct {
	Entity         string          `json:"entity"`
	Category       refis.Category  `json:"category"`
	Items          int             `json:"items"`
	CurrentTotal   decimal.Decimal `json:"currentTotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	SettledTotal   decimal.Decimal `json:"settledTotal"`
}

// Summary totals the stored items grouped by entity and category, in
// first-appearance order.
func (s *Service) Summary(ctx context.Context, entity string) ([]SummaryRow, error) {
	items, err := s.repo.ListItems(ctx, entity)
	if err != nil {
		return nil, err
	}
	rows := make([]SummaryRow, 0)
	index := make(map[string]int)
	for _, it := range items {
		key := it.Entity + "|" + string(it.Category)
		pos, ok := index[key]
		if !ok {
			pos = len(rows)
			index[key] = pos
			rows = append(rows, SummaryRow{Entity: it.Entity, Category: it.Category})
		}
		rows[pos].Items++
		rows[pos].CurrentTotal = rows[pos].CurrentTotal.Add(it.Settlement.CurrentTotal)
		rows[pos].DiscountAmount = rows[pos].DiscountAmount.Add(it.Settlement.DiscountAmount)
		rows[pos].SettledTotal = rows[pos].SettledTotal.Add(it.Settlement.SettledTotal)
	}
	return rows, nil
}

// ConsolidatedItems builds the per-debt best-of view, cached per entity
// filter until the next mutation.
func (s *Service) ConsolidatedItems(ctx context.Context, entity string) ([]refis.Entry, error) {
	var entries []refis.Entry
	err := s.cached(ctx, "items:"+entity, &entries, func(ctx context.Context) (any, error) {
		items, err := s.repo.ListItems(ctx, entity)
		if err != nil {
			return nil, err
		}
		return refis.ConsolidateItems(items), nil
	})
	return entries, err
}

// ConsolidatedGroups builds the per-debt-set best-of view.
func (s *Service) ConsolidatedGroups(ctx context.Context, entity string) ([]refis.Entry, error) {
	var entries []refis.Entry
	err := s.cached(ctx, "groups:"+entity, &entries, func(ctx context.Context) (any, error) {
		groups, err := s.repo.ListGroups(ctx, entity)
		if err != nil {
			return nil, err
		}
		return refis.ConsolidateGroups(groups), nil
	})
	return entries, err
}

// cached loads a consolidation view through the cache, collapsing
// concurrent rebuilds of the same key with singleflight.
func (s *Service) cached(ctx context.Context, key string, dest *[]refis.Entry, loader func(context.Context) (any, error)) error {
	if s.cache == nil {
		out, err := loader(ctx)
		if err != nil {
			return err
		}
		*dest = out.([]refis.Entry)
		return nil
	}
	out, err, _ := s.sf.Do(key, func() (any, error) {
		var entries []refis.Entry
		if err := s.cache.FetchJSON(ctx, key, &entries, loader); err != nil {
			return nil, err
		}
		return entries, nil
	})
	if err != nil {
		return err
	}
	*dest = out.([]refis.Entry)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Bump(ctx)
	}
}
