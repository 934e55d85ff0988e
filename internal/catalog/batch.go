package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SeedAssignments inserts one assignment row per library game that has none
// yet. Existing rows are left untouched, so re-seeding is an idempotent
// upsert keyed by appid.
func (b *Batch) SeedAssignments(ctx context.Context) (int64, error) {
	res, err := b.tx.ExecContext(
		ctx,
		`INSERT INTO assignments (appid, title, matched, updated_at)
         SELECT lg.appid, lg.name, 0, ?
         FROM library_games lg
         WHERE NOT EXISTS (SELECT 1 FROM assignments a WHERE a.appid = lg.appid)`,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("seed assignments: %w", err)
	}
	return res.RowsAffected()
}

// ProductsMissingNormalizedTitle lists products whose normalization cache is
// unpopulated.
func (b *Batch) ProductsMissingNormalizedTitle(ctx context.Context) ([]Product, error) {
	rows, err := b.tx.QueryContext(
		ctx,
		`SELECT gog_id, title, type, slug, raw_json, normalized_title
         FROM catalog_products
         WHERE normalized_title IS NULL AND title IS NOT NULL`,
	)
	if err != nil {
		return nil, fmt.Errorf("query unnormalized products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unnormalized product: %w", err)
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

// SetNormalizedTitle stores the normalization cache for one product.
func (b *Batch) SetNormalizedTitle(ctx context.Context, gogID int64, normalized string) error {
	_, err := b.tx.ExecContext(
		ctx,
		`UPDATE catalog_products SET normalized_title = ? WHERE gog_id = ?`,
		normalized,
		gogID,
	)
	if err != nil {
		return fmt.Errorf("set normalized title %d: %w", gogID, err)
	}
	return nil
}

// UnmatchedAssignments returns every assignment still awaiting a claim, in
// appid order so pass results are deterministic.
func (b *Batch) UnmatchedAssignments(ctx context.Context) ([]Assignment, error) {
	rows, err := b.tx.QueryContext(
		ctx,
		`SELECT appid, gog_id, title, matched, match_method, match_score, updated_at
         FROM assignments WHERE gog_id IS NULL ORDER BY appid`,
	)
	if err != nil {
		return nil, fmt.Errorf("query unmatched assignments: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *assignment)
	}
	return assignments, rows.Err()
}

// ExactCandidate finds the unclaimed eligible product whose raw title equals
// the given title case-insensitively. Ties resolve to the lowest gog_id.
func (b *Batch) ExactCandidate(ctx context.Context, title string) (int64, bool, error) {
	row := b.tx.QueryRowContext(
		ctx,
		`SELECT p.gog_id
         FROM catalog_products p
         WHERE `+eligibleGame+`
           AND p.title IS NOT NULL
           AND LOWER(p.title) = LOWER(?)
           AND NOT EXISTS (SELECT 1 FROM assignments a WHERE a.gog_id = p.gog_id)
         ORDER BY p.gog_id
         LIMIT 1`,
		title,
	)
	var gogID int64
	if err := row.Scan(&gogID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("exact candidate: %w", err)
	}
	return gogID, true, nil
}

// NormalizedCandidates returns up to limit eligible products whose cached
// normalized title equals the key. Claimed products are included: the
// normalized tier must see that a second structural candidate exists even
// when one is taken, and must not fall through to it.
func (b *Batch) NormalizedCandidates(ctx context.Context, normalized string, limit int) ([]int64, error) {
	rows, err := b.tx.QueryContext(
		ctx,
		`SELECT gog_id FROM catalog_products
         WHERE `+eligibleGame+` AND normalized_title = ?
         ORDER BY gog_id LIMIT ?`,
		normalized,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("normalized candidates: %w", err)
	}
	return collectIDs(rows)
}

// SubstringCandidates returns up to limit unclaimed eligible products whose
// normalized title contains the key. Normalized keys carry no LIKE
// metacharacters, so the pattern needs no escaping.
func (b *Batch) SubstringCandidates(ctx context.Context, normalized string, limit int) ([]int64, error) {
	rows, err := b.tx.QueryContext(
		ctx,
		`SELECT p.gog_id FROM catalog_products p
         WHERE `+eligibleGame+`
           AND p.normalized_title LIKE '%' || ? || '%'
           AND NOT EXISTS (SELECT 1 FROM assignments a WHERE a.gog_id = p.gog_id)
         ORDER BY p.gog_id LIMIT ?`,
		normalized,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("substring candidates: %w", err)
	}
	return collectIDs(rows)
}

// IsClaimed reports whether any assignment already references the product.
func (b *Batch) IsClaimed(ctx context.Context, gogID int64) (bool, error) {
	row := b.tx.QueryRowContext(ctx, `SELECT 1 FROM assignments WHERE gog_id = ? LIMIT 1`, gogID)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check claim: %w", err)
	}
	return true, nil
}

// Claim links an assignment to a product. The gog_id IS NULL guard means a
// row that was already resolved (by an earlier pass or a concurrent claim)
// is never overwritten; the return value reports whether the claim landed.
func (b *Batch) Claim(ctx context.Context, appID, gogID int64, method Method, score float64) (bool, error) {
	res, err := b.tx.ExecContext(
		ctx,
		`UPDATE assignments
         SET gog_id = ?, matched = 1, match_method = ?, match_score = ?, updated_at = ?
         WHERE appid = ? AND gog_id IS NULL`,
		gogID,
		string(method),
		score,
		time.Now().UTC().Format(time.RFC3339Nano),
		appID,
	)
	if err != nil {
		return false, fmt.Errorf("claim product %d for %d: %w", gogID, appID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountUnmatched tallies assignments with no claim.
func (b *Batch) CountUnmatched(ctx context.Context) (int64, error) {
	row := b.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignments WHERE gog_id IS NULL`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count unmatched: %w", err)
	}
	return count, nil
}

// UpsertProduct replaces title, type, slug, and raw payload for a catalog
// identifier. The normalization cache is deliberately left alone; the
// reconcile engine recomputes it only where missing.
func (b *Batch) UpsertProduct(ctx context.Context, product Product) error {
	_, err := b.tx.ExecContext(
		ctx,
		`INSERT INTO catalog_products (gog_id, title, type, slug, raw_json)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(gog_id) DO UPDATE SET
             title = excluded.title,
             type = excluded.type,
             slug = excluded.slug,
             raw_json = excluded.raw_json,
             normalized_title = NULL`,
		product.GOGID,
		nullableString(product.Title),
		nullableString(product.Type),
		nullableString(product.Slug),
		nullableString(product.RawJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert product %d: %w", product.GOGID, err)
	}
	return nil
}

// UpsertPrice replaces the price fields for one (gog_id, country, currency)
// key. Marker observations (empty country and currency) are deleted first:
// SQLite treats NULL key components as distinct, so a plain upsert would
// accumulate markers across re-ingestions.
func (b *Batch) UpsertPrice(ctx context.Context, obs PriceObservation) error {
	if obs.Country == "" && obs.Currency == "" {
		_, err := b.tx.ExecContext(
			ctx,
			`DELETE FROM catalog_prices WHERE gog_id = ? AND country IS NULL AND currency IS NULL`,
			obs.GOGID,
		)
		if err != nil {
			return fmt.Errorf("clear marker price %d: %w", obs.GOGID, err)
		}
	}
	_, err := b.tx.ExecContext(
		ctx,
		`INSERT INTO catalog_prices (gog_id, country, currency, base_price, final_price, discount_pct, raw_json)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(gog_id, country, currency) DO UPDATE SET
             base_price = excluded.base_price,
             final_price = excluded.final_price,
             discount_pct = excluded.discount_pct,
             raw_json = excluded.raw_json`,
		obs.GOGID,
		nullableString(obs.Country),
		nullableString(obs.Currency),
		nullableFloat(obs.BasePrice),
		nullableFloat(obs.FinalPrice),
		nullableFloat(obs.DiscountPct),
		nullableString(obs.RawJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert price %d %s/%s: %w", obs.GOGID, obs.Country, obs.Currency, err)
	}
	return nil
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
