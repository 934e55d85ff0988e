package catalog_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"steamgog/internal/catalog"
	"steamgog/internal/testsupport"
)

func TestOpenCreatesSchemaAndIsReopenable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, _, _, _, err := store.Counts(ctx); err != nil {
		t.Fatalf("counts on fresh store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	store, err = catalog.Open(cfg)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	if _, _, _, _, err := store.Counts(ctx); err != nil {
		t.Fatalf("counts after reopen: %v", err)
	}
}

func TestOpenUpgradesLegacySchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	// A database laid out before normalized_title and the match columns
	// existed must gain them on open.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	legacy := []string{
		`CREATE TABLE library_games (
            appid INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            playtime_forever_min INTEGER NOT NULL DEFAULT 0,
            playtime_2weeks_min INTEGER NOT NULL DEFAULT 0,
            last_updated_utc TEXT NOT NULL
        )`,
		`CREATE TABLE catalog_products (
            gog_id INTEGER PRIMARY KEY,
            title TEXT,
            type TEXT,
            slug TEXT,
            raw_json TEXT
        )`,
		`INSERT INTO catalog_products (gog_id, title, type) VALUES (100, 'Portal 2', 'game')`,
	}
	for _, stmt := range legacy {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("prepare legacy schema: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	store, err := catalog.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	err = store.Batch(ctx, func(b *catalog.Batch) error {
		pending, err := b.ProductsMissingNormalizedTitle(ctx)
		if err != nil {
			return err
		}
		if len(pending) != 1 || pending[0].GOGID != 100 {
			t.Fatalf("expected legacy product to lack a normalized title, got %+v", pending)
		}
		return b.SetNormalizedTitle(ctx, 100, "portal 2")
	})
	if err != nil {
		t.Fatalf("use upgraded columns: %v", err)
	}
}

func TestUpsertLibraryGamesReplacesPlaytime(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	games := []catalog.LibraryGame{
		{AppID: 620, Name: "Portal 2", PlaytimeForeverMin: 100},
		{AppID: 440, Name: "Team Fortress 2", PlaytimeForeverMin: 5000},
	}
	if _, err := store.UpsertLibraryGames(ctx, games); err != nil {
		t.Fatalf("upsert library games: %v", err)
	}

	games[0].PlaytimeForeverMin = 250
	if _, err := store.UpsertLibraryGames(ctx, games[:1]); err != nil {
		t.Fatalf("re-upsert library game: %v", err)
	}

	stored, err := store.LibraryGames(ctx)
	if err != nil {
		t.Fatalf("list library games: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 library games, got %d", len(stored))
	}
	if stored[0].AppID != 440 {
		t.Errorf("expected playtime ordering to put appid 440 first, got %d", stored[0].AppID)
	}
	if stored[1].PlaytimeForeverMin != 250 {
		t.Errorf("expected updated playtime 250, got %d", stored[1].PlaytimeForeverMin)
	}
}

func TestSeedAssignmentsIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	games := []catalog.LibraryGame{
		{AppID: 620, Name: "Portal 2"},
		{AppID: 440, Name: "Team Fortress 2"},
	}
	if _, err := store.UpsertLibraryGames(ctx, games); err != nil {
		t.Fatalf("upsert library games: %v", err)
	}

	var seeded int64
	err := store.Batch(ctx, func(b *catalog.Batch) error {
		var err error
		seeded, err = b.SeedAssignments(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("seed assignments: %v", err)
	}
	if seeded != 2 {
		t.Fatalf("expected 2 seeded rows, got %d", seeded)
	}

	err = store.Batch(ctx, func(b *catalog.Batch) error {
		var err error
		seeded, err = b.SeedAssignments(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("re-seed assignments: %v", err)
	}
	if seeded != 0 {
		t.Fatalf("expected re-seed to insert nothing, got %d", seeded)
	}

	assignments, err := store.Assignments(ctx)
	if err != nil {
		t.Fatalf("list assignments: %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(assignments))
	}
	for _, assignment := range assignments {
		if assignment.Matched || assignment.GOGID != nil {
			t.Errorf("seeded assignment %d should be unmatched", assignment.AppID)
		}
	}
}

func TestClaimRefusesResolvedRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.UpsertLibraryGames(ctx, []catalog.LibraryGame{{AppID: 620, Name: "Portal 2"}}); err != nil {
		t.Fatalf("upsert library game: %v", err)
	}

	err := store.Batch(ctx, func(b *catalog.Batch) error {
		if _, err := b.SeedAssignments(ctx); err != nil {
			return err
		}
		if err := b.UpsertProduct(ctx, catalog.Product{GOGID: 100, Title: "Portal 2", Type: "game"}); err != nil {
			return err
		}
		if err := b.UpsertProduct(ctx, catalog.Product{GOGID: 200, Title: "Portal 2", Type: "game"}); err != nil {
			return err
		}

		claimed, err := b.Claim(ctx, 620, 100, catalog.MethodExact, catalog.ScoreExact)
		if err != nil {
			return err
		}
		if !claimed {
			t.Fatal("first claim should land")
		}

		claimed, err = b.Claim(ctx, 620, 200, catalog.MethodNormalized, catalog.ScoreNormalized)
		if err != nil {
			return err
		}
		if claimed {
			t.Fatal("second claim should be refused for a resolved row")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	assignment, err := store.AssignmentByAppID(ctx, 620)
	if err != nil {
		t.Fatalf("get assignment: %v", err)
	}
	if assignment == nil || assignment.GOGID == nil || *assignment.GOGID != 100 {
		t.Fatalf("expected assignment to keep gog_id 100, got %+v", assignment)
	}
	if assignment.Method != catalog.MethodExact {
		t.Errorf("expected exact method, got %q", assignment.Method)
	}
}

func TestExactCandidateSkipsClaimedAndIneligible(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.UpsertLibraryGames(ctx, []catalog.LibraryGame{
		{AppID: 620, Name: "Portal 2"},
		{AppID: 70, Name: "Half-Life"},
	}); err != nil {
		t.Fatalf("upsert library games: %v", err)
	}

	err := store.Batch(ctx, func(b *catalog.Batch) error {
		if _, err := b.SeedAssignments(ctx); err != nil {
			return err
		}
		for _, product := range []catalog.Product{
			{GOGID: 100, Title: "Portal 2", Type: "game"},
			{GOGID: 50, Title: "Half-Life", Type: "dlc"},
			{GOGID: 60, Title: "Half-Life"},
		} {
			if err := b.UpsertProduct(ctx, product); err != nil {
				return err
			}
		}

		gogID, found, err := b.ExactCandidate(ctx, "portal 2")
		if err != nil {
			return err
		}
		if !found || gogID != 100 {
			t.Fatalf("expected case-insensitive exact hit on 100, got %d found=%v", gogID, found)
		}

		// The dlc row is ineligible; the untyped row still counts as a game.
		gogID, found, err = b.ExactCandidate(ctx, "Half-Life")
		if err != nil {
			return err
		}
		if !found || gogID != 60 {
			t.Fatalf("expected untyped product 60, got %d found=%v", gogID, found)
		}

		if _, err := b.Claim(ctx, 620, 100, catalog.MethodExact, catalog.ScoreExact); err != nil {
			return err
		}
		_, found, err = b.ExactCandidate(ctx, "Portal 2")
		if err != nil {
			return err
		}
		if found {
			t.Fatal("claimed product should no longer be an exact candidate")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
}

func TestExactCandidateTieBreaksOnLowestID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	err := store.Batch(ctx, func(b *catalog.Batch) error {
		if err := b.UpsertProduct(ctx, catalog.Product{GOGID: 300, Title: "Doom", Type: "game"}); err != nil {
			return err
		}
		if err := b.UpsertProduct(ctx, catalog.Product{GOGID: 100, Title: "DOOM", Type: "game"}); err != nil {
			return err
		}

		gogID, found, err := b.ExactCandidate(ctx, "doom")
		if err != nil {
			return err
		}
		if !found || gogID != 100 {
			t.Fatalf("expected lowest gog_id 100, got %d found=%v", gogID, found)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
}

func TestNormalizedCandidatesIncludeClaimedProducts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.UpsertLibraryGames(ctx, []catalog.LibraryGame{{AppID: 620, Name: "Portal 2"}}); err != nil {
		t.Fatalf("upsert library game: %v", err)
	}

	err := store.Batch(ctx, func(b *catalog.Batch) error {
		if _, err := b.SeedAssignments(ctx); err != nil {
			return err
		}
		if err := b.UpsertProduct(ctx, catalog.Product{GOGID: 100, Title: "Portal 2", Type: "game"}); err != nil {
			return err
		}
		if err := b.SetNormalizedTitle(ctx, 100, "portal 2"); err != nil {
			return err
		}
		if _, err := b.Claim(ctx, 620, 100, catalog.MethodExact, catalog.ScoreExact); err != nil {
			return err
		}

		ids, err := b.NormalizedCandidates(ctx, "portal 2", 2)
		if err != nil {
			return err
		}
		if len(ids) != 1 || ids[0] != 100 {
			t.Fatalf("expected claimed product to stay visible to the structural query, got %v", ids)
		}

		claimed, err := b.IsClaimed(ctx, 100)
		if err != nil {
			return err
		}
		if !claimed {
			t.Fatal("product 100 should report as claimed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
}

func TestSubstringCandidatesExcludeClaimedProducts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.UpsertLibraryGames(ctx, []catalog.LibraryGame{{AppID: 620, Name: "Portal 2"}}); err != nil {
		t.Fatalf("upsert library game: %v", err)
	}

	err := store.Batch(ctx, func(b *catalog.Batch) error {
		if _, err := b.SeedAssignments(ctx); err != nil {
			return err
		}
		for gogID, title := range map[int64]string{
			100: "portal 2 deluxe",
			200: "portal 2 anthology",
		} {
			if err := b.UpsertProduct(ctx, catalog.Product{GOGID: gogID, Title: title, Type: "game"}); err != nil {
				return err
			}
			if err := b.SetNormalizedTitle(ctx, gogID, title); err != nil {
				return err
			}
		}

		ids, err := b.SubstringCandidates(ctx, "portal 2", 2)
		if err != nil {
			return err
		}
		if len(ids) != 2 {
			t.Fatalf("expected 2 substring candidates, got %v", ids)
		}

		if _, err := b.Claim(ctx, 620, 100, catalog.MethodExact, catalog.ScoreExact); err != nil {
			return err
		}
		ids, err = b.SubstringCandidates(ctx, "portal 2", 2)
		if err != nil {
			return err
		}
		if len(ids) != 1 || ids[0] != 200 {
			t.Fatalf("expected only unclaimed candidate 200, got %v", ids)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
}

func TestUpsertProductResetsNormalizedTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	err := store.Batch(ctx, func(b *catalog.Batch) error {
		if err := b.UpsertProduct(ctx, catalog.Product{GOGID: 100, Title: "Portal 2", Type: "game"}); err != nil {
			return err
		}
		return b.SetNormalizedTitle(ctx, 100, "portal 2")
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	err = store.Batch(ctx, func(b *catalog.Batch) error {
		return b.UpsertProduct(ctx, catalog.Product{GOGID: 100, Title: "Portal 2: Renamed", Type: "game"})
	})
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	err = store.Batch(ctx, func(b *catalog.Batch) error {
		pending, err := b.ProductsMissingNormalizedTitle(ctx)
		if err != nil {
			return err
		}
		if len(pending) != 1 || pending[0].GOGID != 100 {
			t.Fatalf("expected retitled product to need renormalization, got %+v", pending)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
}
