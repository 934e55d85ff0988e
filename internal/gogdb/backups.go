package gogdb

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	monthDirPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])/?$`)
	archivePattern  = regexp.MustCompile(`^gogdb_\d{4}-\d{2}-\d{2}\.tar\.xz$`)
)

// LatestBackupURL walks the backup index: backups_v3/products/ lists one
// directory per month, each month lists dated tar.xz archives. Directory
// and file names sort chronologically, so the lexicographic maximum is the
// newest.
func (c *Client) LatestBackupURL(ctx context.Context) (string, error) {
	indexURL := c.baseURL + "/backups_v3/products/"
	months, err := c.scrapeLinks(ctx, indexURL, monthDirPattern)
	if err != nil {
		return "", err
	}
	if len(months) == 0 {
		return "", fmt.Errorf("no monthly backup directories at %s", indexURL)
	}
	sort.Strings(months)
	month := strings.TrimSuffix(months[len(months)-1], "/")

	monthURL := indexURL + month + "/"
	archives, err := c.scrapeLinks(ctx, monthURL, archivePattern)
	if err != nil {
		return "", err
	}
	if len(archives) == 0 {
		return "", fmt.Errorf("no backup archives at %s", monthURL)
	}
	sort.Strings(archives)
	latest := archives[len(archives)-1]

	c.logger.Info("latest backup located", "month", month, "archive", latest)
	return monthURL + latest, nil
}

// scrapeLinks collects anchor hrefs on an index page matching the pattern.
func (c *Client) scrapeLinks(ctx context.Context, pageURL string, pattern *regexp.Regexp) ([]string, error) {
	resp, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse index %s: %w", pageURL, err)
	}

	var links []string
	doc.Find("a").Each(func(_ int, anchor *goquery.Selection) {
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		if pattern.MatchString(href) {
			links = append(links, href)
		}
	})
	return links, nil
}
