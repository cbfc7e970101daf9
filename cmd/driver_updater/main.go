package main

import (
	"context"
	"os"

	"github.com/alpindale/tinyscripts/internal"
	"github.com/alpindale/tinyscripts/internal/cli"
	"github.com/alpindale/tinyscripts/internal/failure"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	opts       options
)

var rootCmd = &cobra.Command{
	Use:   "driver_updater",
	Short: "Find, download and silently install the latest NVIDIA driver",
	Long: `driver_updater detects the NVIDIA GPU of this machine (or of an SSH host
with --host), resolves it against NVIDIA's driver taxonomy and downloads the
newest WHQL driver for Windows 10/11 64-bit.

Without --yes it asks before running the installer. Remote hosts are only
probed; the installer is never run on them.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	cli.AddCommonFlags(rootCmd, &configPath, &verbose)

	f := rootCmd.Flags()
	f.StringVar(&opts.host, "host", "", "probe this ~/.ssh/config host instead of the local machine")
	f.BoolVarP(&opts.yes, "yes", "y", false, "install without asking")
	f.BoolVar(&opts.downloadOnly, "download-only", false, "download the installer and stop")
	f.BoolVar(&opts.force, "force", false, "download even if the installed driver is current")
	f.StringVarP(&opts.output, "output", "o", "", "installer path (default from config, nvidia_driver.exe)")
}

func main() {
	os.Exit(cli.Run(rootCmd, os.Stderr))
}

func runUpdate(cmd *cobra.Command, args []string) error {
	env, err := cli.Setup(configPath, verbose)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	info, err := probe(ctx, env, opts.host)
	if err != nil {
		return err
	}
	return newUpdater(env, cmd.InOrStdin(), cmd.OutOrStdout()).run(ctx, info, opts)
}

func probe(ctx context.Context, env *cli.Env, host string) (*internal.HostInfo, error) {
	if host == "" {
		return internal.GatherLocalInfo(ctx), nil
	}

	hosts, err := internal.ParseSSHConfig("")
	if err != nil {
		env.Logger.Warn("could not read ssh config", zap.Error(err))
	}
	h, err := internal.FindHost(hosts, host)
	if err != nil {
		env.Logger.Debug("host not in ssh config, dialing it directly", zap.String("host", host))
	}

	timeout, err := env.Config.Timeout()
	if err != nil {
		return nil, err
	}
	client, err := internal.NewSSHClient(h, timeout)
	if err != nil {
		return nil, failure.Network("connect "+host, err)
	}
	defer client.Close()

	return internal.GatherRemoteInfo(client), nil
}
