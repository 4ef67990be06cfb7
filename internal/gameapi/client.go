// Package gameapi is the live game collaborator: a thin HTTP client over
// the game's endpoints plus the snapshot collector. All serialization and
// scraping quirks live here; the decision core never sees them.
package gameapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

// Client talks to the game server with an authenticated session cookie.
type Client struct {
	baseURL string
	cookie  string
	http    *http.Client
}

// New creates a game client. Every call is bounded by the HTTP client
// timeout; a timeout surfaces as a reported failure, never a hang.
func New(baseURL, sessionCookie string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		cookie:  sessionCookie,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, truncate(string(body), 200))
	}
	return string(body), nil
}

func (c *Client) post(ctx context.Context, path string) (string, error) {
	return c.do(ctx, http.MethodPost, path)
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	body, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// sliderValues is the {min, max, from} triple of the game's range slider
// widgets, scraped from inline initialization scripts.
type sliderValues struct {
	Min  float64
	Max  float64
	From float64
}

var (
	sliderMinRe  = regexp.MustCompile(`min\s*:\s*(-?[\d.]+)`)
	sliderMaxRe  = regexp.MustCompile(`max\s*:\s*(-?[\d.]+)`)
	sliderFromRe = regexp.MustCompile(`from\s*:\s*(-?[\d.]+)`)
)

func parseSlider(html string) sliderValues {
	var v sliderValues
	if m := sliderMinRe.FindStringSubmatch(html); m != nil {
		v.Min, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := sliderMaxRe.FindStringSubmatch(html); m != nil {
		v.Max, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := sliderFromRe.FindStringSubmatch(html); m != nil {
		v.From, _ = strconv.ParseFloat(m[1], 64)
	}
	return v
}

// startStorageConnection(plantId, lat, lon, distance, currentStorageId, landId)
var connectionRe = regexp.MustCompile(`startStorageConnection\((\d+),([\d.-]+),([\d.-]+),(\d+),(\d+),(\d+)\)`)

func parseConnectionInfo(html string) (*game.PlantConnection, bool) {
	m := connectionRe.FindStringSubmatch(html)
	if m == nil {
		return nil, false
	}
	lat, _ := strconv.ParseFloat(m[2], 64)
	lon, _ := strconv.ParseFloat(m[3], 64)
	dist, _ := strconv.ParseFloat(m[4], 64)
	return &game.PlantConnection{
		PlantID:          m[1],
		Lat:              lat,
		Lon:              lon,
		MaxDistanceKm:    dist,
		CurrentStorageID: m[5],
		LandID:           m[6],
	}, true
}

// outerFields[...] = L.rectangle([[lat1, lon1], [lat2, lon2]]
var scanRectRe = regexp.MustCompile(`outerFields\[\w+\]\s*=\s*L\.rectangle\(\[\s*\[([\d.]+),\s*([\d.-]+)\],\s*\[([\d.]+),\s*([\d.-]+)\]\s*\]`)

func parseScanArea(html string) (game.ScanArea, bool) {
	m := scanRectRe.FindStringSubmatch(html)
	if m == nil {
		return game.ScanArea{}, false
	}
	lat1, _ := strconv.ParseFloat(m[1], 64)
	lon1, _ := strconv.ParseFloat(m[2], 64)
	lat2, _ := strconv.ParseFloat(m[3], 64)
	lon2, _ := strconv.ParseFloat(m[4], 64)
	// The corner order on the page is not guaranteed; normalize.
	area := game.ScanArea{
		North: math.Max(lat1, lat2), South: math.Min(lat1, lat2),
		East: math.Max(lon1, lon2), West: math.Min(lon1, lon2),
	}
	return area, true
}

// <option value="id,fuel,distance,opTime,reverse">Name</option>
var destOptionRe = regexp.MustCompile(`<option\s+value="([^"]+)"[^>]*>([^<]+)</option>`)

func parseDestinations(html string) []game.Destination {
	var dests []game.Destination
	for _, m := range destOptionRe.FindAllStringSubmatch(html, -1) {
		value := strings.TrimSpace(m[1])
		name := strings.TrimSpace(m[2])
		if value == "" || strings.Contains(name, "Select destination") {
			continue
		}
		parts := strings.Split(value, ",")
		if len(parts) < 3 {
			continue
		}
		dist, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			continue
		}
		dests = append(dests, game.Destination{
			ID:         strings.TrimSpace(parts[0]),
			Name:       name,
			DistanceNm: dist,
		})
	}
	return dests
}

var bblCapacityRe = regexp.MustCompile(`bblCapacity\s*=\s*(\d+)`)
