package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"steamgog/internal/config"
)

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	ctx := context.Background()
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.ensureMatchingColumns(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// eligibleGame restricts candidate products to games; an absent type counts
// as a game by convention.
const eligibleGame = "(type IS NULL OR LOWER(type) = 'game')"

// Batch groups statements into one transaction. Matching passes and dump
// ingestion use it as their coarse commit checkpoint: a crash rolls the
// whole batch back, and every caller is idempotent on re-run.
type Batch struct {
	tx *sql.Tx
}

// Batch runs fn inside a single transaction, committing only when fn
// returns nil.
func (s *Store) Batch(ctx context.Context, fn func(b *Batch) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&Batch{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// UpsertLibraryGames replaces name and playtime for each appid, inserting
// rows for unseen games.
func (s *Store) UpsertLibraryGames(ctx context.Context, games []LibraryGame) (int, error) {
	if len(games) == 0 {
		return 0, nil
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	err := s.Batch(ctx, func(b *Batch) error {
		for _, game := range games {
			_, err := b.tx.ExecContext(
				ctx,
				`INSERT INTO library_games (appid, name, playtime_forever_min, playtime_2weeks_min, last_updated_utc)
                 VALUES (?, ?, ?, ?, ?)
                 ON CONFLICT(appid) DO UPDATE SET
                     name = excluded.name,
                     playtime_forever_min = excluded.playtime_forever_min,
                     playtime_2weeks_min = excluded.playtime_2weeks_min,
                     last_updated_utc = excluded.last_updated_utc`,
				game.AppID,
				game.Name,
				game.PlaytimeForeverMin,
				game.Playtime2WeeksMin,
				timestamp,
			)
			if err != nil {
				return fmt.Errorf("upsert library game %d: %w", game.AppID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(games), nil
}

// LibraryGames returns the exported library ordered by descending playtime,
// mirroring the export source order.
func (s *Store) LibraryGames(ctx context.Context) ([]LibraryGame, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT appid, name, playtime_forever_min, playtime_2weeks_min, last_updated_utc
         FROM library_games ORDER BY playtime_forever_min DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query library games: %w", err)
	}
	defer rows.Close()

	var games []LibraryGame
	for rows.Next() {
		var (
			game       LibraryGame
			updatedRaw string
		)
		if err := rows.Scan(&game.AppID, &game.Name, &game.PlaytimeForeverMin, &game.Playtime2WeeksMin, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan library game: %w", err)
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			game.LastUpdated = updated
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// ProductByID fetches one catalog product, or nil when absent.
func (s *Store) ProductByID(ctx context.Context, gogID int64) (*Product, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT gog_id, title, type, slug, raw_json, normalized_title FROM catalog_products WHERE gog_id = ?`,
		gogID,
	)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// Counts returns row totals per table for diagnostics.
func (s *Store) Counts(ctx context.Context) (products, prices, library, assignments int64, err error) {
	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM catalog_products", &products},
		{"SELECT COUNT(*) FROM catalog_prices", &prices},
		{"SELECT COUNT(*) FROM library_games", &library},
		{"SELECT COUNT(*) FROM assignments", &assignments},
	}
	for _, c := range counts {
		if scanErr := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); scanErr != nil {
			return 0, 0, 0, 0, fmt.Errorf("count rows: %w", scanErr)
		}
	}
	return products, prices, library, assignments, nil
}

// Assignments returns all reconciliation rows ordered by appid.
func (s *Store) Assignments(ctx context.Context) ([]Assignment, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT appid, gog_id, title, matched, match_method, match_score, updated_at
         FROM assignments ORDER BY appid`,
	)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
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

// AssignmentByAppID fetches one reconciliation row, or nil when absent.
func (s *Store) AssignmentByAppID(ctx context.Context, appID int64) (*Assignment, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT appid, gog_id, title, matched, match_method, match_score, updated_at
         FROM assignments WHERE appid = ?`,
		appID,
	)
	assignment, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// PricesByProduct returns the stored price observations for one product.
func (s *Store) PricesByProduct(ctx context.Context, gogID int64) ([]PriceObservation, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT gog_id, country, currency, base_price, final_price, discount_pct, raw_json
         FROM catalog_prices WHERE gog_id = ? ORDER BY country, currency`,
		gogID,
	)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var observations []PriceObservation
	for rows.Next() {
		var (
			obs      PriceObservation
			country  sql.NullString
			currency sql.NullString
			base     sql.NullFloat64
			final    sql.NullFloat64
			discount sql.NullFloat64
			raw      sql.NullString
		)
		if err := rows.Scan(&obs.GOGID, &country, &currency, &base, &final, &discount, &raw); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		obs.Country = country.String
		obs.Currency = currency.String
		obs.BasePrice = nullableFloatPtr(base)
		obs.FinalPrice = nullableFloatPtr(final)
		obs.DiscountPct = nullableFloatPtr(discount)
		obs.RawJSON = raw.String
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

func scanProduct(scanner interface{ Scan(dest ...any) error }) (*Product, error) {
	var (
		gogID      int64
		title      sql.NullString
		typeStr    sql.NullString
		slug       sql.NullString
		rawJSON    sql.NullString
		normalized sql.NullString
	)
	if err := scanner.Scan(&gogID, &title, &typeStr, &slug, &rawJSON, &normalized); err != nil {
		return nil, err
	}
	return &Product{
		GOGID:           gogID,
		Title:           title.String,
		Type:            typeStr.String,
		Slug:            slug.String,
		RawJSON:         rawJSON.String,
		NormalizedTitle: normalized.String,
	}, nil
}

func scanAssignment(scanner interface{ Scan(dest ...any) error }) (*Assignment, error) {
	var (
		appID      int64
		gogID      sql.NullInt64
		title      string
		matched    int
		method     sql.NullString
		score      sql.NullFloat64
		updatedRaw string
	)
	if err := scanner.Scan(&appID, &gogID, &title, &matched, &method, &score, &updatedRaw); err != nil {
		return nil, fmt.Errorf("scan assignment: %w", err)
	}

	assignment := &Assignment{
		AppID:   appID,
		Title:   title,
		Matched: matched != 0,
		Method:  Method(method.String),
		Score:   nullableFloatPtr(score),
	}
	if gogID.Valid {
		id := gogID.Int64
		assignment.GOGID = &id
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		assignment.UpdatedAt = updated
	}
	return assignment, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableFloatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
