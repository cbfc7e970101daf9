package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/alpindale/tinyscripts/internal/failure"
	"go.uber.org/zap"
)

// silent, no reboot, clean install
var DefaultInstallerArgs = []string{"/s", "-noreboot", "-clean"}

type InstallResult struct {
	ExitCode int
	Removed  bool
}

type Installer struct {
	Args   []string
	GOOS   string
	logger *zap.Logger
}

func NewInstaller(args []string, logger *zap.Logger) *Installer {
	if len(args) == 0 {
		args = DefaultInstallerArgs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{Args: args, GOOS: runtime.GOOS, logger: logger}
}

// Install runs the installer, waits for it and deletes it afterwards.
// A non-zero exit status is a failure.InstallFailed error; the result still
// carries the code.
func (i *Installer) Install(ctx context.Context, path string) (InstallResult, error) {
	if i.GOOS != "windows" {
		return InstallResult{}, failure.Unsupportedf("install driver", "silent install needs windows, running on %s", i.GOOS)
	}

	i.logger.Info("launching installer", zap.String("path", path), zap.Strings("args", i.Args))
	cmd := exec.CommandContext(ctx, path, i.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	res := InstallResult{}
	runErr := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
	case errors.As(runErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		// never started, leave the file for a manual run
		return res, &failure.Error{Reason: failure.InstallFailed, Op: "start installer", Err: runErr}
	}
	i.logger.Info("installer exited", zap.Int("exit_code", res.ExitCode))

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		i.logger.Warn("could not delete installer", zap.String("path", path), zap.Error(err))
	} else {
		res.Removed = true
	}

	if res.ExitCode != 0 {
		return res, &failure.Error{
			Reason: failure.InstallFailed,
			Op:     "install driver",
			Err:    fmt.Errorf("installer exited with code %d", res.ExitCode),
		}
	}
	return res, nil
}
