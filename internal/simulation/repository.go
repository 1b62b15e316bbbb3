package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/refis-sim/refis-sim/internal/platform/httpx"
	"github.com/refis-sim/refis-sim/internal/refis"
)

// pgRepository stores items and groups in PostgreSQL. Monetary columns
// are NUMERIC(14,2); the derived settlement snapshot is kept as JSONB so
// stored records reproduce exactly what the engine computed.
type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// Migrate creates the simulator tables when missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS refis_items (
	id           BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	entity       TEXT        NOT NULL,
	profile      TEXT        NOT NULL,
	description  TEXT        NOT NULL,
	year         INT         NOT NULL,
	category     TEXT        NOT NULL,
	choice       TEXT        NOT NULL,
	installments INT         NOT NULL,
	principal    NUMERIC(14,2) NOT NULL,
	charges      NUMERIC(14,2) NOT NULL,
	correction   NUMERIC(14,2) NOT NULL,
	settlement   JSONB       NOT NULL,
	key          TEXT        NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS refis_items_entity_idx ON refis_items (entity);
CREATE TABLE IF NOT EXISTS refis_groups (
	id           BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	entity       TEXT        NOT NULL,
	profile      TEXT        NOT NULL,
	category     TEXT        NOT NULL,
	choice       TEXT        NOT NULL,
	installments INT         NOT NULL,
	member_ids   BIGINT[]    NOT NULL,
	principal    NUMERIC(14,2) NOT NULL,
	charges      NUMERIC(14,2) NOT NULL,
	correction   NUMERIC(14,2) NOT NULL,
	settlement   JSONB       NOT NULL,
	key          TEXT        NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS refis_groups_entity_idx ON refis_groups (entity);`
	_, err := pool.Exec(ctx, ddl)
	return err
}

const itemColumns = `id, entity, profile, description, year, category, choice, installments,
	principal::text, charges::text, correction::text, settlement, key`

func (r *pgRepository) InsertItem(ctx context.Context, item refis.Item) (refis.Item, error) {
	settlement, err := json.Marshal(item.Settlement)
	if err != nil {
		return refis.Item{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO refis_items
			(entity, profile, description, year, category, choice, installments,
			 principal, charges, correction, settlement, key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id`,
		item.Entity, item.Profile, item.Description, item.Year, item.Category,
		item.Choice, item.Installments,
		item.Principal.StringFixed(2), item.Charges.StringFixed(2), item.Correction.StringFixed(2),
		settlement, item.Key)
	if err := row.Scan(&item.ID); err != nil {
		return refis.Item{}, fmt.Errorf("simulation: insert item: %w", err)
	}
	return item, nil
}

func (r *pgRepository) ListItems(ctx context.Context, entity string) ([]refis.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM refis_items`
	args := []any{}
	if entity != "" {
		query += ` WHERE entity = $1`
		args = append(args, entity)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *pgRepository) ItemsByIDs(ctx context.Context, ids []int64) ([]refis.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM refis_items WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *pgRepository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refis_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %d", httpx.ErrNotFound, id)
	}
	return nil
}

const groupColumns = `id, entity, profile, category, choice, installments, member_ids,
	principal::text, charges::text, correction::text, settlement, key`

func (r *pgRepository) InsertGroup(ctx context.Context, group refis.Group) (refis.Group, error) {
	settlement, err := json.Marshal(group.Settlement)
	if err != nil {
		return refis.Group{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO refis_groups
			(entity, profile, category, choice, installments, member_ids,
			 principal, charges, correction, settlement, key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id`,
		group.Entity, group.Profile, group.Category, group.Choice, group.Installments,
		group.MemberIDs,
		group.Principal.StringFixed(2), group.Charges.StringFixed(2), group.Correction.StringFixed(2),
		settlement, group.Key)
	if err := row.Scan(&group.ID); err != nil {
		return refis.Group{}, fmt.Errorf("simulation: insert group: %w", err)
	}
	return group, nil
}

func (r *pgRepository) ListGroups(ctx context.Context, entity string) ([]refis.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM refis_groups`
	args := []any{}
	if entity != "" {
		query += ` WHERE entity = $1`
		args = append(args, entity)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGroups(rows)
}

func (r *pgRepository) DeleteGroup(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refis_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: group %d", httpx.ErrNotFound, id)
	}
	return nil
}

// NextIDs reports the identifiers the next insertions would take, used
// by the bundle exporter.
func (r *pgRepository) NextIDs(ctx context.Context) (int64, int64, error) {
	var nextItem, nextGroup int64
	err := r.pool.QueryRow(ctx, `
		SELECT (SELECT COALESCE(MAX(id), 0) + 1 FROM refis_items),
		       (SELECT COALESCE(MAX(id), 0) + 1 FROM refis_groups)`).
		Scan(&nextItem, &nextGroup)
	return nextItem, nextGroup, err
}

// Replace swaps the whole store for the imported collections in one
// transaction, preserving imported identifiers and realigning the
// identity sequences.
func (r *pgRepository) Replace(ctx context.Context, items []refis.Item, groups []refis.Group) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE refis_items, refis_groups`); err != nil {
		return err
	}
	for _, item := range items {
		settlement, err := json.Marshal(item.Settlement)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO refis_items
				(id, entity, profile, description, year, category, choice, installments,
				 principal, charges, correction, settlement, key)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			item.ID, item.Entity, item.Profile, item.Description, item.Year, item.Category,
			item.Choice, item.Installments,
			item.Principal.StringFixed(2), item.Charges.StringFixed(2), item.Correction.StringFixed(2),
			settlement, item.Key); err != nil {
			return err
		}
	}
	for _, group := range groups {
		settlement, err := json.Marshal(group.Settlement)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO refis_groups
				(id, entity, profile, category, choice, installments, member_ids,
				 principal, charges, correction, settlement, key)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			group.ID, group.Entity, group.Profile, group.Category, group.Choice,
			group.Installments, group.MemberIDs,
			group.Principal.StringFixed(2), group.Charges.StringFixed(2), group.Correction.StringFixed(2),
			settlement, group.Key); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `
		SELECT setval(pg_get_serial_sequence('refis_items', 'id'),
		              (SELECT COALESCE(MAX(id), 0) + 1 FROM refis_items), false),
		       setval(pg_get_serial_sequence('refis_groups', 'id'),
		              (SELECT COALESCE(MAX(id), 0) + 1 FROM refis_groups), false)`); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanItems(rows pgx.Rows) ([]refis.Item, error) {
	var items []refis.Item
	for rows.Next() {
		var (
			it                             refis.Item
			principal, charges, correction string
			settlement                     []byte
		)
		if err := rows.Scan(&it.ID, &it.Entity, &it.Profile, &it.Description, &it.Year,
			&it.Category, &it.Choice, &it.Installments,
			&principal, &charges, &correction, &settlement, &it.Key); err != nil {
			return nil, err
		}
		var err error
		if it.Principal, err = parseNumeric(principal); err != nil {
			return nil, err
		}
		if it.Charges, err = parseNumeric(charges); err != nil {
			return nil, err
		}
		if it.Correction, err = parseNumeric(correction); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(settlement, &it.Settlement); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanGroups(rows pgx.Rows) ([]refis.Group, error) {
	var groups []refis.Group
	for rows.Next() {
		var (
			g                              refis.Group
			principal, charges, correction string
			settlement                     []byte
		)
		if err := rows.Scan(&g.ID, &g.Entity, &g.Profile, &g.Category, &g.Choice,
			&g.Installments, &g.MemberIDs,
			&principal, &charges, &correction, &settlement, &g.Key); err != nil {
			return nil, err
		}
		var err error
		if g.Principal, err = parseNumeric(principal); err != nil {
			return nil, err
		}
		if g.Charges, err = parseNumeric(charges); err != nil {
			return nil, err
		}
		if g.Correction, err = parseNumeric(correction); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(settlement, &g.Settlement); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func parseNumeric(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("simulation: malformed numeric column: " + s)
	}
	return v, nil
}
