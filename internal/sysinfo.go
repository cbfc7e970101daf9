package internal

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/alpindale/tinyscripts/internal/gpu"
	"github.com/alpindale/tinyscripts/internal/gpu/base"
)

type OSInfo struct {
	System  string
	Version string
	Arch    string
}

func (o OSInfo) String() string {
	s := o.System
	if o.Version != "" {
		s += " " + o.Version
	}
	if o.Arch != "" {
		s += " (" + o.Arch + ")"
	}
	return s
}

// HostInfo is what the driver lookup needs to know about a machine.
type HostInfo struct {
	Host string
	GPUs []base.Device
	OS   OSInfo
}

// PrimaryGPU is the first device the vendor tool listed.
func (h *HostInfo) PrimaryGPU() (base.Device, bool) {
	if h == nil || len(h.GPUs) == 0 {
		return base.Device{}, false
	}
	return h.GPUs[0], true
}

// LocalRunCmd runs probe commands through the platform shell.
func LocalRunCmd(ctx context.Context) base.RunCmdFunc {
	return func(cmd string) (string, error) {
		var c *exec.Cmd
		if runtime.GOOS == "windows" {
			c = exec.CommandContext(ctx, "cmd", "/C", cmd)
		} else {
			c = exec.CommandContext(ctx, "sh", "-c", cmd)
		}
		output, err := c.Output()
		return string(output), err
	}
}

// GatherLocalInfo never fails: a missing GPU tool just leaves GPUs empty.
func GatherLocalInfo(ctx context.Context) *HostInfo {
	return gatherHostInfo("localhost", LocalRunCmd(ctx), runtime.GOOS, runtime.GOARCH)
}

func GatherRemoteInfo(client *SSHClient) *HostInfo {
	return gatherHostInfo(client.Host().Name, client.RunCmd(), "", "")
}

// an empty goos means a remote machine that has to describe itself
func gatherHostInfo(host string, runCmd base.RunCmdFunc, goos, goarch string) *HostInfo {
	return &HostInfo{
		Host: host,
		GPUs: gpu.QueryAll(runCmd),
		OS:   getOSInfo(runCmd, goos, goarch),
	}
}

func getOSInfo(runCmd base.RunCmdFunc, goos, goarch string) OSInfo {
	info := OSInfo{System: goos, Arch: goarch}

	if goos == "windows" {
		info.Version, _ = windowsVersion(runCmd)
		return info
	}

	if info.System == "" {
		info.System = firstLine(runCmd, "uname -s")
	}
	// a remote Windows host has no uname but answers ver through cmd.exe
	if info.System == "" {
		if v, ok := windowsVersion(runCmd); ok {
			info.System = "windows"
			info.Version = v
			return info
		}
	}
	if info.Arch == "" {
		info.Arch = firstLine(runCmd, "uname -m")
	}
	info.Version = firstLine(runCmd, "uname -r")

	if info.System == "" {
		info.System = "unknown"
	}
	return info
}

// windowsVersion parses "Microsoft Windows [Version 10.0.22631.4460]".
func windowsVersion(runCmd base.RunCmdFunc) (string, bool) {
	output, err := runCmd("ver")
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(output)
	i := strings.Index(v, "[Version ")
	if i < 0 {
		return v, v != ""
	}
	return strings.TrimSuffix(v[i+len("[Version "):], "]"), true
}

func firstLine(runCmd base.RunCmdFunc, cmd string) string {
	output, err := runCmd(cmd)
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(line)
}
