package imdb

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"media-sync/core/media"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

var (
	titleIDPattern = regexp.MustCompile(`/title/(tt\d+)`)
	yearPattern    = regexp.MustCompile(`\((\d{4})`)
)

// FetchReviews scrapes the user's review pages, following the load-more
// pagination key until exhausted.
func (c *Client) FetchReviews(ctx context.Context) ([]media.Item, error) {
	url := c.cfg.BaseURL + "/user/" + c.cfg.UserID + "/reviews"

	var items []media.Item
	for url != "" {
		doc, err := c.fetchDocument(ctx, url)
		if err != nil {
			return nil, err
		}
		items = append(items, parseReviews(doc)...)

		url = ""
		if key, ok := doc.Find("div.load-more-data").Attr("data-key"); ok && key != "" {
			url = c.cfg.BaseURL + "/user/" + c.cfg.UserID + "/reviews/_ajax?paginationKey=" + key
		}
	}
	c.log.Debug("Reviews scraped", zap.Int("items", len(items)))
	return items, nil
}

func (c *Client) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := c.newRequest(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := classify(resp); err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// parseReviews extracts one item per review container. Containers missing
// a resolvable title link are skipped.
func parseReviews(doc *goquery.Document) []media.Item {
	var items []media.Item
	doc.Find("div.review-container, div.lister-item").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a[href*='/title/']").First()
		href, _ := link.Attr("href")
		m := titleIDPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}

		it := media.Item{
			IMDBID:   m[1],
			SourceID: m[1],
			Title:    strings.TrimSpace(link.Text()),
			Type:     media.TypeMovie,
			Review:   strings.TrimSpace(s.Find("div.content div.text").First().Text()),
			Spoiler:  s.Find("span.spoiler-warning").Length() > 0,
			AddedAt:  parseDate(strings.TrimSpace(s.Find("span.review-date").First().Text())),
		}
		if ym := yearPattern.FindStringSubmatch(s.Find("span.lister-item-year, span.unbold").First().Text()); ym != nil {
			it.Year, _ = strconv.Atoi(ym[1])
		}
		items = append(items, it)
	})
	return items
}
