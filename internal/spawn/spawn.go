package spawn

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alpindale/tinyscripts/internal/failure"
	"github.com/alpindale/tinyscripts/internal/httpjson"
	"go.uber.org/zap"
)

const (
	DefaultURL      = "https://pokemap.net/api/v1/pokemon"
	DefaultLat      = 40.7580
	DefaultLon      = -73.9855
	DefaultRadiusKM = 3.0
)

// Record is one live spawn as the map service reports it.
type Record struct {
	SpeciesID     int     `json:"pokemon_id"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	DisappearTime string  `json:"disappear_time_formatted"`
}

// Area is the search circle.
type Area struct {
	Lat      float64
	Lon      float64
	RadiusKM float64
}

// Validate checks the centre is a real coordinate and the radius positive.
func (a Area) Validate() error {
	var errs []error
	if a.Lat < -90 || a.Lat > 90 {
		errs = append(errs, fmt.Errorf("lat %v out of range [-90, 90]", a.Lat))
	}
	if a.Lon < -180 || a.Lon > 180 {
		errs = append(errs, fmt.Errorf("lon %v out of range [-180, 180]", a.Lon))
	}
	if a.RadiusKM <= 0 {
		errs = append(errs, fmt.Errorf("radius_km must be positive, got %v", a.RadiusKM))
	}
	return errors.Join(errs...)
}

type Client struct {
	http   *httpjson.Client
	url    string
	logger *zap.Logger
}

func NewClient(hc *httpjson.Client, rawURL string, logger *zap.Logger) *Client {
	if rawURL == "" {
		rawURL = DefaultURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: hc, url: rawURL, logger: logger}
}

// Nearby returns every spawn the service knows inside the area, unfiltered.
func (c *Client) Nearby(ctx context.Context, area Area) ([]Record, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(area.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(area.Lon, 'f', -1, 64))
	q.Set("radius", strconv.FormatFloat(area.RadiusKM*1000, 'f', -1, 64))

	var resp struct {
		Pokemons []Record `json:"pokemons"`
	}
	if err := c.http.GetJSON(ctx, c.url, q, &resp); err != nil {
		return nil, failure.Network("fetch spawns", err)
	}
	c.logger.Debug("spawns fetched", zap.Int("records", len(resp.Pokemons)))
	return resp.Pokemons, nil
}

// Filter keeps the records of one species in their original order. No match
// gives an empty, non-nil slice.
func Filter(records []Record, speciesID int) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if r.SpeciesID == speciesID {
			out = append(out, r)
		}
	}
	return out
}

// Find fetches the area and filters it.
func (c *Client) Find(ctx context.Context, area Area, speciesID int) ([]Record, error) {
	records, err := c.Nearby(ctx, area)
	if err != nil {
		return nil, err
	}
	return Filter(records, speciesID), nil
}
