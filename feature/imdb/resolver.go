package imdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"media-sync/core/media"
	"media-sync/core/resolve"

	"github.com/PuerkitoBio/goquery"
)

// ProbeID issues a HEAD request against the title URL and reads the
// canonical ID off the final redirect target. Merged or renumbered titles
// land on their current ID.
func (c *Client) ProbeID(ctx context.Context, id string) (string, error) {
	req, err := c.newRequest(ctx, "HEAD", c.cfg.BaseURL+"/title/"+id+"/", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", resolve.ErrNotFound
	}
	if err := classify(resp); err != nil {
		return "", err
	}

	m := titleIDPattern.FindStringSubmatch(resp.Request.URL.Path)
	if m == nil {
		return "", resolve.ErrNotFound
	}
	return m[1], nil
}

// suggestion is one candidate of the title suggestion endpoint.
type suggestion struct {
	ID    string `json:"id"`
	Label string `json:"l"`
	Year  int    `json:"y"`
	Kind  string `json:"q"`
}

// ProbeTitle looks the tuple up through the suggestion endpoint and
// returns the single matching candidate. Zero or several matches fail the
// probe so the authoritative path takes over.
func (c *Client) ProbeTitle(ctx context.Context, title string, year int, mediaType media.Type) (string, error) {
	query := strings.ToLower(strings.TrimSpace(title))
	if query == "" {
		return "", resolve.ErrNotFound
	}
	u := fmt.Sprintf("%s/%s/%s.json", c.cfg.SuggestionURL, query[:1], url.PathEscape(query))

	req, err := c.newRequest(ctx, "GET", u, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := classify(resp); err != nil {
		return "", err
	}

	var body struct {
		D []suggestion `json:"d"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	var matches []suggestion
	for _, s := range body.D {
		if !strings.HasPrefix(s.ID, "tt") {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(s.Label), strings.TrimSpace(title)) {
			continue
		}
		if !yearMatches(year, s.Year) {
			continue
		}
		if !kindMatches(mediaType, s.Kind) {
			continue
		}
		matches = append(matches, s)
	}
	if len(matches) != 1 {
		return "", resolve.ErrNotFound
	}
	return matches[0].ID, nil
}

// FetchID loads the full title page and extracts the canonical link.
func (c *Client) FetchID(ctx context.Context, id string) (string, error) {
	doc, err := c.fetchDocument(ctx, c.cfg.BaseURL+"/title/"+id+"/")
	if err != nil {
		return "", err
	}
	href, _ := doc.Find("link[rel='canonical']").Attr("href")
	m := titleIDPattern.FindStringSubmatch(href)
	if m == nil {
		return "", resolve.ErrNotFound
	}
	return m[1], nil
}

// FetchTitle loads the find page for the tuple and extracts the single
// exact match. Ambiguity fails deterministically rather than guessing.
func (c *Client) FetchTitle(ctx context.Context, title string, year int, mediaType media.Type) (string, error) {
	u := c.cfg.BaseURL + "/find/?s=tt&q=" + url.QueryEscape(title)
	doc, err := c.fetchDocument(ctx, u)
	if err != nil {
		return "", err
	}

	var matches []string
	doc.Find("li.ipc-metadata-list-summary-item, tr.findResult").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a[href*='/title/']").First()
		href, _ := link.Attr("href")
		m := titleIDPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		if !strings.EqualFold(strings.TrimSpace(link.Text()), strings.TrimSpace(title)) {
			return
		}
		meta := s.Text()
		if ym := yearPattern.FindStringSubmatch(meta); ym != nil {
			var y int
			fmt.Sscanf(ym[1], "%d", &y)
			if !yearMatches(year, y) {
				return
			}
		} else if year > 0 {
			return
		}
		if !metaKindMatches(mediaType, meta) {
			return
		}
		matches = append(matches, m[1])
	})

	if len(matches) != 1 {
		return "", resolve.ErrNotFound
	}
	return matches[0], nil
}

// yearMatches tolerates the one-year slack release years drift by between
// the two services.
func yearMatches(want, got int) bool {
	if want == 0 || got == 0 {
		return true
	}
	diff := want - got
	return diff >= -1 && diff <= 1
}

func kindMatches(mediaType media.Type, kind string) bool {
	switch mediaType {
	case media.TypeShow:
		return strings.Contains(strings.ToLower(kind), "series")
	case media.TypeEpisode:
		return strings.Contains(strings.ToLower(kind), "episode")
	case media.TypeMovie:
		k := strings.ToLower(kind)
		return !strings.Contains(k, "series") && !strings.Contains(k, "episode")
	}
	return false
}

func metaKindMatches(mediaType media.Type, meta string) bool {
	m := strings.ToLower(meta)
	switch mediaType {
	case media.TypeShow:
		return strings.Contains(m, "series")
	case media.TypeEpisode:
		return strings.Contains(m, "episode")
	case media.TypeMovie:
		return !strings.Contains(m, "series") && !strings.Contains(m, "episode")
	}
	return false
}
