// Package webextract fetches a web page and reduces it to readable text for
// ingestion.
package webextract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "MemoryAI/1.0 (knowledge-base crawler)"

var httpClient = &http.Client{Timeout: 15 * time.Second}

// ExtractText fetches the URL and returns the page's main text content.
// Chrome elements (scripts, styles, navigation, footers) are stripped and
// the main/article element is preferred over the full body. Fetch or parse
// failures surface as content-unavailable errors, not system faults.
func ExtractText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s failed: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s failed: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s failed: %w", url, err)
	}

	doc.Find("script, style, nav, footer, header, aside").Remove()

	main := doc.Find("main").First()
	if main.Length() == 0 {
		main = doc.Find("article").First()
	}
	if main.Length() == 0 {
		main = doc.Find("body").First()
	}
	if main.Length() == 0 {
		main = doc.Selection
	}

	var lines []string
	for _, line := range strings.Split(main.Text(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}
