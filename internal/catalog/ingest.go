package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"steamgog/internal/logging"
)

// Ingestor loads a gogdb dump directory tree into the store.
type Ingestor struct {
	store  *Store
	logger *slog.Logger
}

// NewIngestor creates an ingestor writing through the given store.
func NewIngestor(store *Store, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ingestor{
		store:  store,
		logger: logging.WithComponent(logger, "ingest"),
	}
}

// IngestDump walks root/products/<gog_id>/ and upserts every product.json
// and prices.json it finds. A missing products directory is an error; a
// product directory without product.json is skipped. The whole dump commits
// as one transaction so a partial ingest never becomes visible.
func (i *Ingestor) IngestDump(ctx context.Context, root string) (IngestStats, error) {
	productsDir := filepath.Join(root, "products")
	info, err := os.Stat(productsDir)
	if err != nil || !info.IsDir() {
		return IngestStats{}, fmt.Errorf("dump has no products directory at %s", productsDir)
	}

	entries, err := os.ReadDir(productsDir)
	if err != nil {
		return IngestStats{}, fmt.Errorf("read products directory: %w", err)
	}

	var stats IngestStats
	err = i.store.Batch(ctx, func(b *Batch) error {
		for _, entry := range entries {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !entry.IsDir() {
				continue
			}
			gogID, err := strconv.ParseInt(entry.Name(), 10, 64)
			if err != nil {
				continue
			}

			productDir := filepath.Join(productsDir, entry.Name())
			ok, err := i.ingestProduct(ctx, b, gogID, productDir)
			if err != nil {
				return err
			}
			if !ok {
				stats.SkippedProducts++
				continue
			}
			stats.ProductsUpserted++

			priceRows, err := i.ingestPrices(ctx, b, gogID, productDir)
			if err != nil {
				return err
			}
			stats.PricesUpserted += priceRows
		}
		return nil
	})
	if err != nil {
		return IngestStats{}, err
	}

	i.logger.Info("dump ingested",
		"products", stats.ProductsUpserted,
		"prices", stats.PricesUpserted,
		"skipped", stats.SkippedProducts)
	return stats, nil
}

func (i *Ingestor) ingestProduct(ctx context.Context, b *Batch, gogID int64, dir string) (bool, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "product.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read product.json for %d: %w", gogID, err)
	}

	var payload struct {
		Title string `json:"title"`
		Name  string `json:"name"`
		Type  string `json:"type"`
		Slug  string `json:"slug"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		i.logger.Warn("malformed product.json", "gog_id", gogID, "error", err)
		return false, nil
	}

	title := payload.Title
	if title == "" {
		title = payload.Name
	}

	err = b.UpsertProduct(ctx, Product{
		GOGID:   gogID,
		Title:   title,
		Type:    payload.Type,
		Slug:    payload.Slug,
		RawJSON: string(raw),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// priceEntry is one dated observation inside prices.json.
type priceEntry struct {
	Date       string   `json:"date"`
	Currency   string   `json:"currency"`
	PriceBase  *float64 `json:"price_base"`
	PriceFinal *float64 `json:"price_final"`
	Discount   *float64 `json:"discount"`
}

// ingestPrices stores the latest observation per (country, currency). Dump
// files keyed by country map to per-currency observation lists; anything
// that does not unmarshal into that shape gets a single marker row so the
// raw payload is still queryable.
func (i *Ingestor) ingestPrices(ctx context.Context, b *Batch, gogID int64, dir string) (int, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "prices.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read prices.json for %d: %w", gogID, err)
	}

	var byCountry map[string]map[string][]priceEntry
	if err := json.Unmarshal(raw, &byCountry); err != nil {
		marker := PriceObservation{GOGID: gogID, RawJSON: string(raw)}
		if err := b.UpsertPrice(ctx, marker); err != nil {
			return 0, err
		}
		i.logger.Warn("unrecognized prices.json shape", "gog_id", gogID)
		return 1, nil
	}

	var rows int
	for country, byCurrency := range byCountry {
		for currency, entries := range byCurrency {
			latest, ok := latestEntry(entries)
			if !ok {
				continue
			}
			entryJSON, err := json.Marshal(latest)
			if err != nil {
				return rows, fmt.Errorf("marshal price entry for %d: %w", gogID, err)
			}
			obs := PriceObservation{
				GOGID:       gogID,
				Country:     country,
				Currency:    currency,
				BasePrice:   latest.PriceBase,
				FinalPrice:  latest.PriceFinal,
				DiscountPct: latest.Discount,
				RawJSON:     string(entryJSON),
			}
			if obs.Currency == "" {
				obs.Currency = latest.Currency
			}
			if err := b.UpsertPrice(ctx, obs); err != nil {
				return rows, err
			}
			rows++
		}
	}
	return rows, nil
}

// latestEntry picks the observation with the greatest date string. Dump
// dates are ISO 8601, so lexicographic order is chronological. Undated
// observations are ignored; a history with no dated entries yields nothing.
func latestEntry(entries []priceEntry) (priceEntry, bool) {
	var (
		latest priceEntry
		found  bool
	)
	for _, entry := range entries {
		if entry.Date == "" {
			continue
		}
		if !found || entry.Date >= latest.Date {
			latest = entry
			found = true
		}
	}
	return latest, found
}
