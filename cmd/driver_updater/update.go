package main

import (
	"context"
	"fmt"
	"io"

	"github.com/alpindale/tinyscripts/internal"
	"github.com/alpindale/tinyscripts/internal/cli"
	"github.com/alpindale/tinyscripts/internal/driver"
	"github.com/alpindale/tinyscripts/internal/failure"
	"github.com/alpindale/tinyscripts/internal/gpu"
	"github.com/alpindale/tinyscripts/internal/prompt"
	"github.com/alpindale/tinyscripts/internal/ui"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

type options struct {
	host         string
	yes          bool
	downloadOnly bool
	force        bool
	output       string
}

type updater struct {
	resolver     *driver.Resolver
	fetcher      *driver.Fetcher
	installer    *driver.Installer
	downloadPath string
	logger       *zap.Logger
	in           io.Reader
	out          io.Writer
}

func newUpdater(env *cli.Env, in io.Reader, out io.Writer) *updater {
	cfg := env.Config
	client := driver.NewClient(env.HTTP, cfg.QueryConfig(), env.Logger)
	matcher := driver.NewMatcher(client, append(cfg.MatcherOptions(), driver.WithMatcherLogger(env.Logger))...)
	return &updater{
		resolver:     driver.NewResolver(client, client, matcher, env.Logger),
		fetcher:      driver.NewFetcher(env.HTTP, env.Logger),
		installer:    driver.NewInstaller(cfg.Driver.InstallerArgs, env.Logger),
		downloadPath: cfg.Driver.DownloadPath,
		logger:       env.Logger,
		in:           in,
		out:          out,
	}
}

func (u *updater) run(ctx context.Context, info *internal.HostInfo, opts options) error {
	fmt.Fprint(u.out, ui.RenderHostReport(info))

	dev, ok := info.PrimaryGPU()
	if !ok {
		return failure.NotFoundf("detect gpu", "failed to detect necessary system info")
	}
	if dev.Vendor != gpu.VendorNvidia {
		return failure.Unsupportedf("detect gpu", "driver search only covers NVIDIA GPUs, found %s", dev.Name)
	}

	res, err := u.resolver.Resolve(ctx, dev.Name)
	if err != nil {
		switch failure.ReasonOf(err) {
		case failure.NoMatch, failure.NotFound:
			fmt.Fprint(u.out, ui.RenderWarning("Could not find a matching driver."))
		}
		return err
	}
	fmt.Fprint(u.out, ui.RenderResolution(res))

	if !opts.force && dev.DriverVersion != "" && !driver.NewerAvailable(dev.DriverVersion, res.Driver.Version) {
		u.logger.Debug("skipping download",
			zap.String("installed", dev.DriverVersion),
			zap.String("latest", res.Driver.Version))
		fmt.Fprintf(u.out, "Installed driver %s is already up to date.\n", dev.DriverVersion)
		return nil
	}

	dest := opts.output
	if dest == "" {
		dest = u.downloadPath
	}
	fmt.Fprintf(u.out, "Downloading driver from: %s\n", res.Driver.DownloadURL)
	art, err := u.fetcher.Download(ctx, res.Driver.DownloadURL, dest)
	if err != nil {
		return err
	}
	fmt.Fprintf(u.out, "Downloaded to: %s (%s)\n", art.Path, humanize.Bytes(uint64(art.Size)))

	if opts.downloadOnly || opts.host != "" {
		fmt.Fprintln(u.out, "Driver downloaded but not installed.")
		return nil
	}

	if !opts.yes {
		install, err := prompt.Confirm(u.in, u.out, "Do you want to install the driver now (silent mode)?")
		if err != nil {
			return err
		}
		if !install {
			fmt.Fprintln(u.out, "Driver downloaded but not installed.")
			return nil
		}
	}

	fmt.Fprintln(u.out, "Launching silent driver installation...")
	result, err := u.installer.Install(ctx, art.Path)
	if err != nil {
		return err
	}
	fmt.Fprintln(u.out, "Installation complete.")
	if result.Removed {
		fmt.Fprintln(u.out, "Installer deleted.")
	}
	return nil
}
