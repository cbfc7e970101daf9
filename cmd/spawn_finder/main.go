package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alpindale/tinyscripts/internal/cli"
	"github.com/alpindale/tinyscripts/internal/prompt"
	"github.com/alpindale/tinyscripts/internal/spawn"
	"github.com/alpindale/tinyscripts/internal/species"
	"github.com/alpindale/tinyscripts/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	name       string
	lat        float64
	lon        float64
	radius     float64
	plain      bool
)

var rootCmd = &cobra.Command{
	Use:   "spawn_finder",
	Short: "Find live Pokémon spawns around a location",
	Long: `spawn_finder loads the species catalog from PokéAPI, asks for a species
and lists its current spawns within the search radius.

On a terminal it runs an interactive finder; with --plain, --name or
redirected input it prompts line by line instead.`,
	Args: cobra.NoArgs,
	RunE: runFind,
}

func init() {
	cli.AddCommonFlags(rootCmd, &configPath, &verbose)
	addFindFlags(rootCmd)
}

func addFindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&name, "name", "n", "", "species to search for, skips the prompt")
	f.Float64Var(&lat, "lat", spawn.DefaultLat, "search centre latitude")
	f.Float64Var(&lon, "lon", spawn.DefaultLon, "search centre longitude")
	f.Float64VarP(&radius, "radius", "r", spawn.DefaultRadiusKM, "search radius in km")
	f.BoolVar(&plain, "plain", false, "line prompts instead of the interactive finder")
}

func main() {
	os.Exit(cli.Run(rootCmd, os.Stderr))
}

func runFind(cmd *cobra.Command, args []string) error {
	env, err := cli.Setup(configPath, verbose)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.Config
	area, err := areaFromFlags(cmd, cfg.Area())
	if err != nil {
		return err
	}

	src := ui.Services{
		Loader: species.NewLoader(env.HTTP, cfg.Species.ListURL, cfg.Species.Limit, env.Logger),
		Spawns: spawn.NewClient(env.HTTP, cfg.Spawn.URL, env.Logger),
	}

	ctx := cmd.Context()
	if !plain && name == "" && isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		return runTUI(ctx, src, area)
	}
	return runPlain(ctx, src, area, name, cmd.InOrStdin(), cmd.OutOrStdout(), env.Logger)
}

// areaFromFlags applies --lat, --lon and --radius over the configured area.
func areaFromFlags(cmd *cobra.Command, area spawn.Area) (spawn.Area, error) {
	if cmd.Flags().Changed("lat") {
		area.Lat = lat
	}
	if cmd.Flags().Changed("lon") {
		area.Lon = lon
	}
	if cmd.Flags().Changed("radius") {
		area.RadiusKM = radius
	}
	if err := area.Validate(); err != nil {
		return area, fmt.Errorf("search area: %w", err)
	}
	return area, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runTUI(ctx context.Context, src ui.Source, area spawn.Area) error {
	p := tea.NewProgram(ui.NewModel(ctx, src, area), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	m, ok := final.(ui.Model)
	if !ok {
		return nil
	}
	if failed := m.Failed(); len(failed) > 0 {
		fmt.Fprint(os.Stderr, ui.RenderWarning(fmt.Sprintf("%d species could not be loaded", len(failed))))
	}
	return m.Err()
}

func runPlain(ctx context.Context, src ui.Source, area spawn.Area, query string, in io.Reader, out io.Writer, logger *zap.Logger) error {
	fmt.Fprintln(out, "Loading species list from PokéAPI...")
	res, err := src.LoadCatalog(ctx, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Species list loaded: %s entries.\n", humanize.Comma(int64(res.Catalog.Len())))
	if len(res.Failed) > 0 {
		for _, f := range res.Failed {
			logger.Debug("species not loaded", zap.String("name", f.Name), zap.Error(f.Err))
		}
		fmt.Fprint(out, ui.RenderWarning(fmt.Sprintf("%d species could not be loaded; they will not be found.", len(res.Failed))))
	}

	if query == "" {
		query, err = prompt.Ask(in, out, "Enter species name: ")
		if err != nil {
			return err
		}
	}

	id, err := res.Catalog.Lookup(query)
	if err != nil {
		fmt.Fprint(out, ui.RenderWarning("Unknown species: "+query))
		fmt.Fprint(out, ui.RenderHints(res.Catalog.Similar(query, 3)))
		return err
	}

	records, err := src.FindSpawns(ctx, area, id)
	if err != nil {
		return err
	}
	fmt.Fprint(out, ui.RenderSpawns(query, area, records, -1))
	return nil
}
