package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"steamgog/internal/catalog"
	"steamgog/internal/config"
	"steamgog/internal/logging"
)

const requestTimeout = 30 * time.Second

// Client talks to the Steam Web API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client from the Steam configuration section.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		apiKey:  cfg.Steam.APIKey,
		baseURL: cfg.Steam.BaseURL,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logging.WithComponent(logger, "steam"),
	}
}

// ResolveVanity translates a vanity URL name into a 64-bit Steam ID.
func (c *Client) ResolveVanity(ctx context.Context, vanity string) (string, error) {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("vanityurl", vanity)

	var payload struct {
		Response struct {
			Success int    `json:"success"`
			SteamID string `json:"steamid"`
			Message string `json:"message"`
		} `json:"response"`
	}
	if err := c.get(ctx, "/ISteamUser/ResolveVanityURL/v0001/", query, &payload); err != nil {
		return "", err
	}
	if payload.Response.Success != 1 || payload.Response.SteamID == "" {
		if payload.Response.Message != "" {
			return "", fmt.Errorf("resolve vanity %q: %s", vanity, payload.Response.Message)
		}
		return "", fmt.Errorf("resolve vanity %q: no match", vanity)
	}
	return payload.Response.SteamID, nil
}

// OwnedGames fetches the full owned-games list for a Steam ID, including
// names and playtime.
func (c *Client) OwnedGames(ctx context.Context, steamID string) ([]catalog.LibraryGame, error) {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("steamid", steamID)
	query.Set("include_appinfo", "1")
	query.Set("include_played_free_games", "1")
	query.Set("format", "json")

	var payload struct {
		Response struct {
			GameCount int `json:"game_count"`
			Games     []struct {
				AppID           int64  `json:"appid"`
				Name            string `json:"name"`
				PlaytimeForever int64  `json:"playtime_forever"`
				Playtime2Weeks  int64  `json:"playtime_2weeks"`
			} `json:"games"`
		} `json:"response"`
	}
	if err := c.get(ctx, "/IPlayerService/GetOwnedGames/v0001/", query, &payload); err != nil {
		return nil, err
	}

	games := make([]catalog.LibraryGame, 0, len(payload.Response.Games))
	for _, game := range payload.Response.Games {
		games = append(games, catalog.LibraryGame{
			AppID:              game.AppID,
			Name:               game.Name,
			PlaytimeForeverMin: game.PlaytimeForever,
			Playtime2WeeksMin:  game.Playtime2Weeks,
		})
	}
	c.logger.Info("owned games fetched", "steam_id", steamID, "games", len(games))
	return games, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	requestURL := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("steam api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("steam api %s: status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode steam response: %w", err)
	}
	return nil
}
