package provider

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sluice/internal/media"
)

// server is one embed server row scraped from a mirror page.
type server struct {
	Name string
	Key  string
}

// parseServers extracts the embed server rows from an ajax server-list
// fragment. Rows carry the exchange key as data-linkid (movies) or data-id
// (episodes).
func parseServers(html string) ([]server, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var servers []server
	doc.Find(".server-row, .link-item").Each(func(_ int, s *goquery.Selection) {
		key, exists := s.Attr("data-linkid")
		if !exists {
			key, exists = s.Attr("data-id")
		}
		if !exists || key == "" {
			return
		}

		name := strings.TrimSpace(s.Find(".server-name").Text())
		if name == "" {
			name = strings.TrimSpace(s.Text())
		}
		if name == "" {
			name = s.AttrOr("title", "unknown")
		}

		servers = append(servers, server{Name: name, Key: key})
	})

	return servers, nil
}

// parseListing extracts metadata-only items from a genre listing page.
// Each card links to /movie/{slug}-{id} or /show/{slug}-{id}; the year sits
// in the card's meta spans.
func parseListing(html string) ([]media.Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var items []media.Item
	doc.Find(".title-grid .title-card").Each(func(_ int, s *goquery.Selection) {
		link := s.Find(".title-name a")
		title := strings.TrimSpace(link.Text())
		href, ok := link.Attr("href")
		if !ok || title == "" {
			return
		}

		slug := strings.Trim(href, "/")
		if idx := strings.Index(slug, "?"); idx != -1 {
			slug = slug[:idx]
		}

		mediaType := media.Movie
		if strings.HasPrefix(slug, "show/") || strings.HasPrefix(slug, "tv/") {
			mediaType = media.Show
		}

		year := ""
		s.Find(".title-meta span").Each(func(_ int, span *goquery.Selection) {
			text := strings.TrimSpace(span.Text())
			if _, err := strconv.Atoi(text); err == nil && len(text) == 4 {
				year = text
			}
		})

		desc := media.Descriptor{
			Type:       mediaType,
			Title:      title,
			ExternalID: trailingID(slug),
			Year:       year,
		}

		items = append(items, media.Item{
			Key:        desc.Key(),
			Title:      title,
			Year:       year,
			Slug:       slug,
			Descriptor: desc,
		})
	})

	return items, nil
}

// trailingID extracts the numeric ID from a slug like "movie/the-deep-84312".
// Falls back to the whole slug when there is no numeric tail.
func trailingID(slug string) string {
	parts := strings.Split(slug, "-")
	if len(parts) > 0 {
		last := parts[len(parts)-1]
		if _, err := strconv.Atoi(last); err == nil {
			return last
		}
	}
	return slug
}
