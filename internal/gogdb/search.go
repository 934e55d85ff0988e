package gogdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SearchResult is one row of the gogdb.org product search table.
type SearchResult struct {
	GOGID int64
	Title string
	Type  string
}

// Search scrapes the product search page for a query and returns the table
// rows in page order.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	searchURL := c.baseURL + "/products?search=" + url.QueryEscape(query)
	resp, err := c.fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var results []SearchResult
	doc.Find("#product-table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		idText := strings.TrimSpace(cells.Eq(0).Text())
		gogID, err := strconv.ParseInt(idText, 10, 64)
		if err != nil {
			return
		}
		result := SearchResult{
			GOGID: gogID,
			Title: strings.TrimSpace(cells.Eq(1).Text()),
		}
		if cells.Length() > 2 {
			result.Type = strings.TrimSpace(cells.Eq(2).Text())
		}
		results = append(results, result)
	})

	c.logger.Debug("search scraped", "query", query, "results", len(results))
	return results, nil
}
