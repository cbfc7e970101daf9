package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/alpindale/tinyscripts/internal/failure"
	"go.uber.org/zap"
)

// lookup service TypeIDs
const (
	TypeProductType = 1
	TypeSeries      = 2
	TypeOS          = 3
	TypeFamily      = 5
)

const (
	DefaultBrandToken     = "geforce"
	DefaultSeriesFallback = "rtx"
)

// TaxonomyEntry is one node of the vendor's product hierarchy.
type TaxonomyEntry struct {
	ID       int    `json:"ID"`
	ParentID int    `json:"ParentID"`
	Value    string `json:"Value"`
}

// GPUIdentity is what the driver search expects as psid/pfid.
type GPUIdentity struct {
	SeriesID int
	FamilyID int
}

type Lookup interface {
	LookupValues(ctx context.Context, typeID, parentID int) ([]TaxonomyEntry, error)
}

type LookupFunc func(ctx context.Context, typeID, parentID int) ([]TaxonomyEntry, error)

func (f LookupFunc) LookupValues(ctx context.Context, typeID, parentID int) ([]TaxonomyEntry, error) {
	return f(ctx, typeID, parentID)
}

// FamilyPolicy decides what happens when no family value occurs in the GPU name.
type FamilyPolicy int

const (
	// DefaultToFirstFamily picks the first family the service returned, even
	// when it has nothing to do with the GPU.
	DefaultToFirstFamily FamilyPolicy = iota
	// RequireFamilyMatch fails the resolution instead.
	RequireFamilyMatch
)

func (p FamilyPolicy) String() string {
	if p == RequireFamilyMatch {
		return "require"
	}
	return "first"
}

func ParseFamilyPolicy(s string) (FamilyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first", "default-to-first":
		return DefaultToFirstFamily, nil
	case "require", "require-match":
		return RequireFamilyMatch, nil
	default:
		return DefaultToFirstFamily, fmt.Errorf("unknown family policy %q", s)
	}
}

// Matcher walks product type → series → family for a free-text GPU name.
type Matcher struct {
	lookup         Lookup
	brandToken     string
	seriesFallback string
	familyPolicy   FamilyPolicy
	logger         *zap.Logger
}

type MatcherOption func(*Matcher)

func WithBrandToken(token string) MatcherOption {
	return func(m *Matcher) {
		if token != "" {
			m.brandToken = strings.ToLower(token)
		}
	}
}

func WithSeriesFallback(token string) MatcherOption {
	return func(m *Matcher) {
		if token != "" {
			m.seriesFallback = strings.ToLower(token)
		}
	}
}

func WithFamilyPolicy(p FamilyPolicy) MatcherOption {
	return func(m *Matcher) {
		m.familyPolicy = p
	}
}

func WithMatcherLogger(l *zap.Logger) MatcherOption {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewMatcher(lookup Lookup, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		lookup:         lookup,
		brandToken:     DefaultBrandToken,
		seriesFallback: DefaultSeriesFallback,
		familyPolicy:   DefaultToFirstFamily,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resolve maps gpuName onto the taxonomy. A failed step yields a
// failure.NoMatch error; a failed lookup call yields failure.NetworkError.
func (m *Matcher) Resolve(ctx context.Context, gpuName string) (GPUIdentity, error) {
	name := strings.ToLower(strings.TrimSpace(gpuName))
	if name == "" {
		return GPUIdentity{}, failure.NoMatchf("resolve gpu", "no gpu name")
	}

	productTypes, err := m.lookup.LookupValues(ctx, TypeProductType, 0)
	if err != nil {
		return GPUIdentity{}, err
	}
	productType, ok := matchProductType(productTypes, m.brandToken)
	if !ok {
		return GPUIdentity{}, failure.NoMatchf("match product type", "no product type contains %q", m.brandToken)
	}
	m.logger.Debug("matched product type", zap.Int("id", productType.ID), zap.String("value", productType.Value))

	seriesList, err := m.lookup.LookupValues(ctx, TypeSeries, productType.ID)
	if err != nil {
		return GPUIdentity{}, err
	}
	series, ok := matchSeries(seriesList, name, m.seriesFallback)
	if !ok {
		return GPUIdentity{}, failure.NoMatchf("match series", "no series for %q", gpuName)
	}
	m.logger.Debug("matched series",
		zap.Int("id", series.ID),
		zap.Int("parent_id", series.ParentID),
		zap.String("value", series.Value))

	families, err := m.lookup.LookupValues(ctx, TypeFamily, series.ID)
	if err != nil {
		return GPUIdentity{}, err
	}
	family, ok := matchFamily(families, name, m.familyPolicy)
	if !ok {
		return GPUIdentity{}, failure.NoMatchf("match family", "no family for %q under %q", gpuName, series.Value)
	}
	m.logger.Debug("matched family", zap.Int("id", family.ID), zap.String("value", family.Value))

	// the search endpoint wants the series node's parent as psid
	return GPUIdentity{SeriesID: series.ParentID, FamilyID: family.ID}, nil
}

func matchProductType(entries []TaxonomyEntry, brandToken string) (TaxonomyEntry, bool) {
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Value), brandToken) {
			return e, true
		}
	}
	return TaxonomyEntry{}, false
}

// matchSeries prefers a series whose label occurs in the name over the
// fallback token.
func matchSeries(entries []TaxonomyEntry, lowerName, fallback string) (TaxonomyEntry, bool) {
	if e, ok := firstContainedIn(entries, lowerName); ok {
		return e, true
	}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Value), fallback) {
			return e, true
		}
	}
	return TaxonomyEntry{}, false
}

func matchFamily(entries []TaxonomyEntry, lowerName string, policy FamilyPolicy) (TaxonomyEntry, bool) {
	if e, ok := firstContainedIn(entries, lowerName); ok {
		return e, true
	}
	if policy == DefaultToFirstFamily && len(entries) > 0 {
		return entries[0], true
	}
	return TaxonomyEntry{}, false
}

func firstContainedIn(entries []TaxonomyEntry, lowerName string) (TaxonomyEntry, bool) {
	for _, e := range entries {
		if strings.Contains(lowerName, strings.ToLower(e.Value)) {
			return e, true
		}
	}
	return TaxonomyEntry{}, false
}
