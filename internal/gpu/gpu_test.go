package gpu

import (
	"errors"
	"testing"

	"github.com/alpindale/tinyscripts/internal/gpu/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost answers known commands and fails everything else like a missing binary.
func fakeHost(outputs map[string]string) base.RunCmdFunc {
	return func(cmd string) (string, error) {
		if out, ok := outputs[cmd]; ok {
			return out, nil
		}
		return "", errors.New("command not found")
	}
}

func TestQueryAll_Nvidia(t *testing.T) {
	run := fakeHost(map[string]string{
		"nvidia-smi -L": "GPU 0: NVIDIA GeForce RTX 3080 (UUID: GPU-x)\n",
		nvidiaQuery:     "0, NVIDIA GeForce RTX 3080, 560.94\n1, NVIDIA GeForce RTX 3060, 560.94\n",
	})

	devices := QueryAll(run)
	require.Len(t, devices, 2)
	assert.Equal(t, base.Device{Index: 0, Name: "NVIDIA GeForce RTX 3080", DriverVersion: "560.94", Vendor: VendorNvidia}, devices[0])
	assert.Equal(t, 1, devices[1].Index)
}

func TestQueryAll_NoTooling(t *testing.T) {
	devices := QueryAll(fakeHost(nil))
	assert.NotNil(t, devices)
	assert.Empty(t, devices)
}

func TestQueryAll_FallsThroughToAMD(t *testing.T) {
	run := fakeHost(map[string]string{
		"amd-smi version": "AMDSMI Tool: 24.6",
		"amd-smi static --asic --driver --json": `{"gpu_data":[{"gpu":0,"asic":{"market_name":"Radeon RX 7900 XTX"},"driver":{"version":"6.7.0"}}]}`,
	})

	devices := QueryAll(run)
	require.Len(t, devices, 1)
	assert.Equal(t, VendorAMD, devices[0].Vendor)
	assert.Equal(t, "Radeon RX 7900 XTX", devices[0].Name)
	assert.Equal(t, "6.7.0", devices[0].DriverVersion)
}

type intelProvider struct{}

func (intelProvider) Name() string { return "intel" }

func (intelProvider) Detect(runCmd base.RunCmdFunc) bool {
	_, err := runCmd("xpu-smi discovery")
	return err == nil
}

func (intelProvider) Query(runCmd base.RunCmdFunc) ([]base.Device, error) {
	return []base.Device{{Index: 0, Name: "Intel Arc A770", Vendor: "intel"}}, nil
}

func TestRegister(t *testing.T) {
	saved := providers
	t.Cleanup(func() { providers = saved })

	Register(intelProvider{})
	require.Len(t, providers, 3)

	run := fakeHost(map[string]string{"xpu-smi discovery": "Device 0"})
	devices := QueryAll(run)
	require.Len(t, devices, 1)
	assert.Equal(t, "intel", devices[0].Vendor)

	// built-in providers still win when their tooling answers
	run = fakeHost(map[string]string{
		"xpu-smi discovery": "Device 0",
		"nvidia-smi -L":     "GPU 0: NVIDIA GeForce RTX 3080",
		nvidiaQuery:         "0, NVIDIA GeForce RTX 3080, 560.94\n",
	})
	devices = QueryAll(run)
	require.Len(t, devices, 1)
	assert.Equal(t, VendorNvidia, devices[0].Vendor)
}

func TestParseNvidiaCSV(t *testing.T) {
	t.Run("name only", func(t *testing.T) {
		devices := parseNvidiaCSV("NVIDIA GeForce GTX 1080\r\n")
		require.Len(t, devices, 1)
		assert.Equal(t, "NVIDIA GeForce GTX 1080", devices[0].Name)
		assert.Empty(t, devices[0].DriverVersion)
	})

	t.Run("blank output", func(t *testing.T) {
		assert.Empty(t, parseNvidiaCSV("\n\n"))
	})
}

func TestParseROCmCSV(t *testing.T) {
	out := "device,Card series,Card model,Card vendor,Driver version\n" +
		"card0,Navi 31,0x744c,Advanced Micro Devices,6.3.6\n"

	devices, err := parseROCmCSV(out)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "Navi 31 (0x744c)", devices[0].Name)
	assert.Equal(t, "6.3.6", devices[0].DriverVersion)

	_, err = parseROCmCSV("device")
	assert.Error(t, err)
}
