package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alpindale/tinyscripts/internal"
	"github.com/alpindale/tinyscripts/internal/cli"
	"github.com/alpindale/tinyscripts/internal/config"
	"github.com/alpindale/tinyscripts/internal/failure"
	"github.com/alpindale/tinyscripts/internal/gpu"
	"github.com/alpindale/tinyscripts/internal/gpu/base"
	"github.com/alpindale/tinyscripts/internal/httpjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const installerBody = "MZ fake installer"

// nvidiaAPI answers lookup, search and download requests for one RTX 3080.
func nvidiaAPI(t *testing.T, downloads *int) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/lookup":
			switch q.Get("TypeID") {
			case "1":
				w.Write([]byte(`[{"ID":1,"ParentID":0,"Value":"GeForce"}]`))
			case "2":
				w.Write([]byte(`[{"ID":5,"ParentID":2,"Value":"RTX 30 Series"}]`))
			case "3":
				w.Write([]byte(`[{"ID":12,"Value":"Linux 64-bit"},{"ID":57,"Value":"Windows 10 64-bit"}]`))
			case "5":
				w.Write([]byte(`[{"ID":9,"ParentID":5,"Value":"RTX 3060"},{"ID":10,"ParentID":5,"Value":"RTX 3080"}]`))
			default:
				w.Write([]byte(`[]`))
			}
		case "/search":
			assert.Equal(t, "2", q.Get("psid"))
			assert.Equal(t, "10", q.Get("pfid"))
			assert.Equal(t, "57", q.Get("osid"))
			fmt.Fprintf(w, `[{"Version":"566.36","DownloadURL":"%s/driver.exe"}]`, srv.URL)
		case "/driver.exe":
			*downloads++
			w.Write([]byte(installerBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestUpdater(t *testing.T, input string, mods ...func(*config.Config)) (*updater, *bytes.Buffer, *int) {
	t.Helper()
	downloads := new(int)
	srv := nvidiaAPI(t, downloads)

	cfg := config.Default()
	cfg.Driver.LookupURL = srv.URL + "/lookup"
	cfg.Driver.SearchURL = srv.URL + "/search"
	cfg.Driver.DownloadPath = filepath.Join(t.TempDir(), "nvidia_driver.exe")
	for _, mod := range mods {
		mod(cfg)
	}

	env := &cli.Env{Config: cfg, Logger: zap.NewNop(), HTTP: httpjson.New()}
	var out bytes.Buffer
	u := newUpdater(env, strings.NewReader(input), &out)
	return u, &out, downloads
}

func rtx3080(installed string) *internal.HostInfo {
	return &internal.HostInfo{
		Host: "localhost",
		GPUs: []base.Device{{Name: "NVIDIA GeForce RTX 3080", DriverVersion: installed, Vendor: gpu.VendorNvidia}},
		OS:   internal.OSInfo{System: "Windows", Version: "10.0.19045", Arch: "amd64"},
	}
}

func TestRun_DownloadOnly(t *testing.T) {
	u, out, downloads := newTestUpdater(t, "")

	err := u.run(context.Background(), rtx3080("551.23"), options{downloadOnly: true})
	require.NoError(t, err)

	assert.Equal(t, 1, *downloads)
	data, err := os.ReadFile(u.downloadPath)
	require.NoError(t, err)
	assert.Equal(t, installerBody, string(data))

	got := out.String()
	assert.Contains(t, got, "NVIDIA GeForce RTX 3080")
	assert.Contains(t, got, "566.36")
	assert.Contains(t, got, "Downloaded to: "+u.downloadPath)
	assert.Contains(t, got, "Driver downloaded but not installed.")
}

func TestRun_OutputFlag(t *testing.T) {
	u, _, _ := newTestUpdater(t, "")
	dest := filepath.Join(t.TempDir(), "custom.exe")

	require.NoError(t, u.run(context.Background(), rtx3080(""), options{downloadOnly: true, output: dest}))
	assert.FileExists(t, dest)
	assert.NoFileExists(t, u.downloadPath)
}

func TestRun_UpToDate(t *testing.T) {
	u, out, downloads := newTestUpdater(t, "")

	require.NoError(t, u.run(context.Background(), rtx3080("566.36"), options{}))
	assert.Zero(t, *downloads)
	assert.Contains(t, out.String(), "already up to date")

	// --force downloads anyway
	require.NoError(t, u.run(context.Background(), rtx3080("566.36"), options{force: true, downloadOnly: true}))
	assert.Equal(t, 1, *downloads)
}

func TestRun_RemoteNeverInstalls(t *testing.T) {
	u, out, _ := newTestUpdater(t, "y\n")

	require.NoError(t, u.run(context.Background(), rtx3080("551.23"), options{host: "gpu-box"}))
	assert.Contains(t, out.String(), "Driver downloaded but not installed.")
	assert.NotContains(t, out.String(), "[y/N]")
}

func TestRun_InstallDeclined(t *testing.T) {
	u, out, _ := newTestUpdater(t, "n\n")

	require.NoError(t, u.run(context.Background(), rtx3080("551.23"), options{}))
	assert.Contains(t, out.String(), "Do you want to install the driver now (silent mode)? [y/N]: ")
	assert.Contains(t, out.String(), "Driver downloaded but not installed.")
	assert.FileExists(t, u.downloadPath)
}

func TestRun_InstallUnsupportedOS(t *testing.T) {
	u, _, _ := newTestUpdater(t, "")
	u.installer.GOOS = "linux"

	err := u.run(context.Background(), rtx3080("551.23"), options{yes: true})
	assert.True(t, errors.Is(err, failure.ErrUnsupported))
	assert.Equal(t, 5, failure.ExitCode(err))
}

func TestRun_NoGPU(t *testing.T) {
	u, out, _ := newTestUpdater(t, "")

	err := u.run(context.Background(), &internal.HostInfo{Host: "localhost"}, options{})
	assert.True(t, errors.Is(err, failure.ErrNotFound))
	assert.Contains(t, out.String(), "failed to detect")
}

func TestRun_AMDUnsupported(t *testing.T) {
	u, _, _ := newTestUpdater(t, "")
	info := &internal.HostInfo{GPUs: []base.Device{{Name: "AMD Radeon RX 7900 XTX", Vendor: gpu.VendorAMD}}}

	err := u.run(context.Background(), info, options{})
	assert.True(t, errors.Is(err, failure.ErrUnsupported))
}

func TestRun_RequireFamilyMatch(t *testing.T) {
	u, out, downloads := newTestUpdater(t, "", func(c *config.Config) {
		c.Driver.FamilyPolicy = "require"
	})
	info := rtx3080("")
	info.GPUs[0].Name = "NVIDIA GeForce RTX 3070"

	err := u.run(context.Background(), info, options{})
	assert.True(t, errors.Is(err, failure.ErrNoMatch))
	assert.Equal(t, 2, failure.ExitCode(err))
	assert.Contains(t, out.String(), "Could not find a matching driver.")
	assert.Zero(t, *downloads)
}
