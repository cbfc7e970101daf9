package driver

import (
	"context"

	"go.uber.org/zap"
)

type Searcher interface {
	LatestDriver(ctx context.Context, id GPUIdentity, osID int) (Driver, error)
}

// Resolution is everything the lookup and search services told us about one GPU.
type Resolution struct {
	GPUName  string
	Identity GPUIdentity
	OS       TaxonomyEntry
	Driver   Driver
}

type Resolver struct {
	lookup   Lookup
	searcher Searcher
	matcher  *Matcher
	logger   *zap.Logger
}

func NewResolver(lookup Lookup, searcher Searcher, matcher *Matcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lookup: lookup, searcher: searcher, matcher: matcher, logger: logger}
}

// Resolve stops at the first failing step; there is never a search with a
// partial identity.
func (r *Resolver) Resolve(ctx context.Context, gpuName string) (Resolution, error) {
	res := Resolution{GPUName: gpuName}

	id, err := r.matcher.Resolve(ctx, gpuName)
	if err != nil {
		return res, err
	}
	res.Identity = id

	osEntry, err := ResolveOS(ctx, r.lookup)
	if err != nil {
		return res, err
	}
	res.OS = osEntry

	r.logger.Info("searching driver",
		zap.Int("psid", id.SeriesID),
		zap.Int("pfid", id.FamilyID),
		zap.Int("osid", osEntry.ID))

	drv, err := r.searcher.LatestDriver(ctx, id, osEntry.ID)
	if err != nil {
		return res, err
	}
	res.Driver = drv
	return res, nil
}
