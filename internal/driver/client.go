package driver

import (
	"context"
	"net/url"
	"strconv"

	"github.com/alpindale/tinyscripts/internal/failure"
	"github.com/alpindale/tinyscripts/internal/httpjson"
	"go.uber.org/zap"
)

const (
	DefaultLookupURL    = "https://www.nvidia.com/Download/API/lookupValueSearch.aspx"
	DefaultSearchURL    = "https://www.nvidia.com/Download/processDriverSearch.aspx"
	DefaultLanguageCode = "en-us"
	DefaultLanguageID   = 1
)

// QueryConfig carries the values every lookup and search request needs.
type QueryConfig struct {
	LookupURL    string
	SearchURL    string
	LanguageCode string
	LanguageID   int
	WHQL         bool
}

func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		LookupURL:    DefaultLookupURL,
		SearchURL:    DefaultSearchURL,
		LanguageCode: DefaultLanguageCode,
		LanguageID:   DefaultLanguageID,
		WHQL:         true,
	}
}

// Driver is the first search hit.
type Driver struct {
	Version     string `json:"Version"`
	DownloadURL string `json:"DownloadURL"`
}

type Client struct {
	http   *httpjson.Client
	cfg    QueryConfig
	logger *zap.Logger
}

func NewClient(hc *httpjson.Client, cfg QueryConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: hc, cfg: cfg, logger: logger}
}

func (c *Client) LookupValues(ctx context.Context, typeID, parentID int) ([]TaxonomyEntry, error) {
	q := url.Values{}
	q.Set("TypeID", strconv.Itoa(typeID))
	q.Set("ParentID", strconv.Itoa(parentID))
	q.Set("LanguageCode", c.cfg.LanguageCode)

	var entries []TaxonomyEntry
	if err := c.http.GetJSON(ctx, c.cfg.LookupURL, q, &entries); err != nil {
		return nil, failure.Network("lookup values", err)
	}
	c.logger.Debug("lookup values",
		zap.Int("type_id", typeID),
		zap.Int("parent_id", parentID),
		zap.Int("entries", len(entries)))
	return entries, nil
}

// LatestDriver returns the first driver the search service lists for the
// given GPU and OS.
func (c *Client) LatestDriver(ctx context.Context, id GPUIdentity, osID int) (Driver, error) {
	whql := "0"
	if c.cfg.WHQL {
		whql = "1"
	}
	q := url.Values{}
	q.Set("psid", strconv.Itoa(id.SeriesID))
	q.Set("pfid", strconv.Itoa(id.FamilyID))
	q.Set("osid", strconv.Itoa(osID))
	q.Set("lid", strconv.Itoa(c.cfg.LanguageID))
	q.Set("whql", whql)

	var drivers []Driver
	if err := c.http.GetJSON(ctx, c.cfg.SearchURL, q, &drivers); err != nil {
		return Driver{}, failure.Network("search driver", err)
	}
	if len(drivers) == 0 || drivers[0].DownloadURL == "" {
		return Driver{}, failure.NotFoundf("search driver", "no driver for psid=%d pfid=%d osid=%d", id.SeriesID, id.FamilyID, osID)
	}
	return drivers[0], nil
}
