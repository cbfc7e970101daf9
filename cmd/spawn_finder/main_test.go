package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alpindale/tinyscripts/internal/config"
	"github.com/alpindale/tinyscripts/internal/failure"
	"github.com/alpindale/tinyscripts/internal/spawn"
	"github.com/alpindale/tinyscripts/internal/species"
	"github.com/stretchr/testify/assert"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource struct {
	result  species.LoadResult
	loadErr error
	records []spawn.Record
	findErr error
	area    spawn.Area
}

func (s *stubSource) LoadCatalog(ctx context.Context, progress func(done, total int)) (species.LoadResult, error) {
	return s.result, s.loadErr
}

func (s *stubSource) FindSpawns(ctx context.Context, area spawn.Area, speciesID int) ([]spawn.Record, error) {
	s.area = area
	return spawn.Filter(s.records, speciesID), s.findErr
}

var area = spawn.Area{Lat: 40.758, Lon: -73.9855, RadiusKM: 3}

func newStub() *stubSource {
	return &stubSource{
		result: species.LoadResult{
			Catalog: species.NewCatalog(map[string]int{"pikachu": 25, "raichu": 26}),
			Failed:  []species.FailedEntry{{Name: "mew", Err: errors.New("503")}},
		},
		records: []spawn.Record{
			{SpeciesID: 25, Latitude: 40.7581, Longitude: -73.9851, DisappearTime: "14:32:10"},
			{SpeciesID: 26, Latitude: 40.7590, Longitude: -73.9840, DisappearTime: "14:35:00"},
		},
	}
}

func TestRunPlain_Prompted(t *testing.T) {
	src := newStub()
	var out bytes.Buffer

	err := runPlain(context.Background(), src, area, "", strings.NewReader("Pikachu\n"), &out, zap.NewNop())
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Species list loaded: 2 entries.")
	assert.Contains(t, got, "1 species could not be loaded")
	assert.Contains(t, got, "Enter species name: ")
	assert.Contains(t, got, "--- Pikachu Spawns Near (40.758, -73.9855) ---")
	assert.Contains(t, got, "Location: (40.7581, -73.9851), Disappears at: 14:32:10")
	assert.NotContains(t, got, "14:35:00")
	assert.Equal(t, area, src.area)
}

func TestRunPlain_NameFlag(t *testing.T) {
	var out bytes.Buffer
	err := runPlain(context.Background(), newStub(), area, "raichu", strings.NewReader(""), &out, zap.NewNop())
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "Enter species name")
	assert.Contains(t, out.String(), "Raichu Spawns Near")
}

func TestRunPlain_NoSpawns(t *testing.T) {
	src := newStub()
	src.records = nil
	var out bytes.Buffer

	require.NoError(t, runPlain(context.Background(), src, area, "pikachu", nil, &out, zap.NewNop()))
	assert.Contains(t, out.String(), "No Pikachu found within 3 km.")
}

func TestRunPlain_UnknownSpecies(t *testing.T) {
	var out bytes.Buffer
	err := runPlain(context.Background(), newStub(), area, "pkachu", nil, &out, zap.NewNop())

	assert.True(t, errors.Is(err, failure.ErrNotFound))
	assert.Equal(t, 2, failure.ExitCode(err))
	assert.Contains(t, out.String(), "Unknown species: pkachu")
	assert.Contains(t, out.String(), "Did you mean: pikachu")
}

func TestRunPlain_CatalogUnavailable(t *testing.T) {
	src := newStub()
	src.loadErr = failure.Network("list species", errors.New("connection refused"))

	err := runPlain(context.Background(), src, area, "pikachu", nil, &bytes.Buffer{}, zap.NewNop())
	assert.Equal(t, 3, failure.ExitCode(err))
}

func TestRunPlain_SpawnServiceDown(t *testing.T) {
	src := newStub()
	src.findErr = failure.Network("fetch spawns", errors.New("503"))

	err := runPlain(context.Background(), src, area, "pikachu", nil, &bytes.Buffer{}, zap.NewNop())
	assert.True(t, errors.Is(err, failure.ErrNetwork))
}

func TestAreaFromFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    spawn.Area
		wantErr string
	}{
		{"config values", nil, config.Default().Area(), ""},
		{"overrides", []string{"--lat", "51.5", "--lon=-0.12", "-r", "1.5"}, spawn.Area{Lat: 51.5, Lon: -0.12, RadiusKM: 1.5}, ""},
		{"latitude out of range", []string{"--lat", "95"}, spawn.Area{}, "lat 95 out of range"},
		{"longitude out of range", []string{"--lon", "200"}, spawn.Area{}, "lon 200 out of range"},
		{"negative radius", []string{"--radius=-2"}, spawn.Area{}, "radius_km must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "spawn_finder"}
			addFindFlags(cmd)
			require.NoError(t, cmd.Flags().Parse(tt.args))

			got, err := areaFromFlags(cmd, config.Default().Area())
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
