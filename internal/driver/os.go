package driver

import (
	"context"
	"strings"

	"github.com/alpindale/tinyscripts/internal/failure"
)

// SelectOS returns the ID of the first Windows 10/11 64-bit entry.
// Other systems are out of scope.
func SelectOS(entries []TaxonomyEntry) (TaxonomyEntry, bool) {
	for _, e := range entries {
		v := strings.ToLower(e.Value)
		if !strings.Contains(v, "windows") || !strings.Contains(v, "64-bit") {
			continue
		}
		if strings.Contains(v, "windows 11") || strings.Contains(v, "windows 10") {
			return e, true
		}
	}
	return TaxonomyEntry{}, false
}

// ResolveOS fetches the OS list and applies SelectOS.
func ResolveOS(ctx context.Context, lookup Lookup) (TaxonomyEntry, error) {
	entries, err := lookup.LookupValues(ctx, TypeOS, 0)
	if err != nil {
		return TaxonomyEntry{}, err
	}
	e, ok := SelectOS(entries)
	if !ok {
		return TaxonomyEntry{}, failure.NoMatchf("match os", "no windows 10/11 64-bit entry among %d", len(entries))
	}
	return e, nil
}
