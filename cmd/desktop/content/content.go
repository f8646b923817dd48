// Package content fetches and preloads the portfolio bundle.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Badge is a linked badge image shown in the basic info window.
type Badge struct {
	Src    string `json:"src"`
	Href   string `json:"href"`
	Height int    `json:"height"`
}

// Badges groups the two badge rows.
type Badges struct {
	Upper []Badge `json:"upper"`
	Lower []Badge `json:"lower"`
}

// BasicInfo is the profile header data.
type BasicInfo struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Birthday string `json:"birthday"`
	Badges   Badges `json:"badges"`
}

// ReferenceLink is a labeled external link on a work.
type ReferenceLink struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Work is one portfolio entry.
type Work struct {
	ID             string          `json:"id"`
	Icon           string          `json:"icon"`
	Thumbnail      string          `json:"thumbnail"`
	Logo           string          `json:"logo"`
	LogoScale      float64         `json:"logoScale,omitempty"`
	Tags           []string        `json:"tags"`
	Description    string          `json:"description"`
	ReferenceLinks []ReferenceLink `json:"referenceLinks"`
}

// InspiredBy credits an external source of inspiration.
type InspiredBy struct {
	ID    string `json:"id"`
	Type  string `json:"type"` // background | visual | font
	Icon  string `json:"icon"`
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Track is one BGM entry as served.
type Track struct {
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Artwork string   `json:"artwork"`
	MediaID string   `json:"mediaId"`
}

// Bundle is the whole portfolio document.
type Bundle struct {
	BasicInfo  BasicInfo    `json:"basicInfo"`
	InspiredBy []InspiredBy `json:"inspiredBy"`
	BGM        []Track      `json:"bgm"`
	Works      []Work       `json:"works"`
}

// Progress reports media preloading. Fraction is 0 until the asset count is
// known; Complete requires at least one counted asset.
type Progress struct {
	Total    int
	Loaded   int
	Fraction float64
	Complete bool
}

// Result is a fetched bundle plus the RTT-corrected server time and the
// preloaded asset bytes keyed by their bundle path. Assets that failed to
// load are simply absent.
type Result struct {
	Bundle     Bundle
	ServerTime string // ISO-8601
	Assets     map[string][]byte
}

// Client fetches the portfolio bundle from a content server.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	// OnProgress, when set, receives preload updates. Called from Fetch's
	// goroutine, never concurrently.
	OnProgress func(Progress)
}

// NewClient returns a client with the default timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch downloads the bundle, measures server time and preloads media.
// A bundle or time failure is returned; individual asset failures only
// advance the progress counter.
func (c *Client) Fetch(ctx context.Context) (*Result, error) {
	bundle, err := c.FetchBundle(ctx)
	if err != nil {
		return nil, err
	}

	serverTime, err := c.serverTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching server time: %w", err)
	}

	result := &Result{
		Bundle:     bundle,
		ServerTime: serverTime,
		Assets:     map[string][]byte{},
	}
	c.preload(ctx, result)
	return result, nil
}

// FetchBundle downloads only the bundle document, skipping time sync and
// media preload.
func (c *Client) FetchBundle(ctx context.Context) (Bundle, error) {
	var bundle Bundle
	if err := c.getJSON(ctx, "/portfolio.json", &bundle); err != nil {
		return Bundle{}, fmt.Errorf("fetching bundle: %w", err)
	}
	return bundle, nil
}

// serverTime samples /time twice and keeps the measurement with the lower
// round trip, corrected by RTT/2. Two samples because a single one can land
// on a connection-setup stall and skew the clock by the whole handshake.
func (c *Client) serverTime(ctx context.Context) (string, error) {
	type measurement struct {
		rtt       time.Duration
		corrected time.Time
	}

	sample := func() (measurement, error) {
		start := time.Now()
		body, err := c.get(ctx, "/time")
		if err != nil {
			return measurement{}, err
		}
		rtt := time.Since(start)

		text := strings.Trim(strings.TrimSpace(string(body)), `"`)
		serverAt, err := time.Parse(time.RFC3339, text)
		if err != nil {
			return measurement{}, fmt.Errorf("parsing time %q: %w", text, err)
		}
		return measurement{rtt: rtt, corrected: serverAt.Add(rtt / 2)}, nil
	}

	first, err := sample()
	if err != nil {
		return "", err
	}
	second, err := sample()
	if err != nil {
		return "", err
	}

	best := first
	if second.rtt < first.rtt {
		best = second
	}
	return best.corrected.UTC().Format(time.RFC3339Nano), nil
}

// preload fetches every media asset the bundle references: two images per
// work, one icon per inspired-by entry, and artwork that is not an absolute
// external URL. Failures still count towards completion so the progress bar
// always finishes.
func (c *Client) preload(ctx context.Context, result *Result) {
	var paths []string
	for _, w := range result.Bundle.Works {
		paths = append(paths, w.Thumbnail, w.Logo)
	}
	for _, entry := range result.Bundle.InspiredBy {
		paths = append(paths, entry.Icon)
	}
	for _, track := range result.Bundle.BGM {
		if !strings.HasPrefix(track.Artwork, "http") {
			paths = append(paths, track.Artwork)
		}
	}

	total := len(paths)
	c.publish(Progress{Total: total})

	for loaded, path := range paths {
		if body, err := c.get(ctx, path); err == nil {
			result.Assets[path] = body
		}
		c.publish(progressAt(total, loaded+1))
	}
}

func (c *Client) publish(p Progress) {
	if c.OnProgress != nil {
		c.OnProgress(p)
	}
}

func progressAt(total, loaded int) Progress {
	p := Progress{Total: total, Loaded: loaded}
	if total > 0 {
		p.Fraction = float64(loaded) / float64(total)
		p.Complete = loaded >= total
	}
	return p
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := path
	if !strings.HasPrefix(path, "http") {
		url = c.BaseURL + "/" + strings.TrimLeft(path, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("server returned %s for %s", resp.Status, path)
	}
	return io.ReadAll(resp.Body)
}
