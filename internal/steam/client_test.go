package steam_test

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"steamgog/internal/catalog"
	"steamgog/internal/steam"
	"steamgog/internal/testsupport"
)

func newTestClient(t *testing.T, handler http.Handler) *steam.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t)
	cfg.Steam.BaseURL = server.URL
	return steam.NewClient(cfg, nil)
}

func TestOwnedGamesParsesResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/IPlayerService/GetOwnedGames/v0001/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("include_appinfo") != "1" {
			t.Error("expected include_appinfo=1")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "response": {
                "game_count": 2,
                "games": [
                    {"appid": 620, "name": "Portal 2", "playtime_forever": 100, "playtime_2weeks": 10},
                    {"appid": 440, "name": "Team Fortress 2", "playtime_forever": 5000}
                ]
            }
        }`))
	})

	client := newTestClient(t, handler)
	games, err := client.OwnedGames(context.Background(), "76561198000000000")
	if err != nil {
		t.Fatalf("owned games: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	if games[0].AppID != 620 || games[0].Name != "Portal 2" || games[0].PlaytimeForeverMin != 100 {
		t.Errorf("unexpected first game: %+v", games[0])
	}
	if games[0].Playtime2WeeksMin != 10 {
		t.Errorf("expected playtime_2weeks 10, got %d", games[0].Playtime2WeeksMin)
	}
}

func TestOwnedGamesSurfacesHTTPErrors(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	client := newTestClient(t, handler)
	if _, err := client.OwnedGames(context.Background(), "76561198000000000"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestResolveVanitySuccess(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ISteamUser/ResolveVanityURL/v0001/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("vanityurl") != "gaben" {
			t.Errorf("unexpected vanityurl %q", r.URL.Query().Get("vanityurl"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": {"success": 1, "steamid": "76561197960287930"}}`))
	})

	client := newTestClient(t, handler)
	steamID, err := client.ResolveVanity(context.Background(), "gaben")
	if err != nil {
		t.Fatalf("resolve vanity: %v", err)
	}
	if steamID != "76561197960287930" {
		t.Errorf("unexpected steam id %q", steamID)
	}
}

func TestResolveVanityNoMatch(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": {"success": 42, "message": "No match"}}`))
	})

	client := newTestClient(t, handler)
	if _, err := client.ResolveVanity(context.Background(), "nobody"); err == nil {
		t.Fatal("expected error for unresolved vanity")
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.csv")
	games := []catalog.LibraryGame{
		{AppID: 440, Name: "Team Fortress 2", PlaytimeForeverMin: 5000},
		{AppID: 620, Name: "Portal, 2", PlaytimeForeverMin: 100},
	}

	if err := steam.WriteCSV(path, games); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "appid" || records[0][2] != "playtime_min" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[2][1] != "Portal, 2" {
		t.Errorf("expected quoted comma title to round-trip, got %q", records[2][1])
	}
}
