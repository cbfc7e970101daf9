package gpu

import (
	"strconv"
	"strings"

	"github.com/alpindale/tinyscripts/internal/gpu/base"
)

const (
	VendorNvidia = "nvidia"

	nvidiaQuery = "nvidia-smi --query-gpu=index,name,driver_version --format=csv,noheader"
)

type NvidiaProvider struct{}

func (p NvidiaProvider) Name() string {
	return VendorNvidia
}

// `which` does not exist on windows, so ask the tool itself
func (p NvidiaProvider) Detect(runCmd base.RunCmdFunc) bool {
	_, err := runCmd("nvidia-smi -L")
	return err == nil
}

func (p NvidiaProvider) Query(runCmd base.RunCmdFunc) ([]base.Device, error) {
	output, err := runCmd(nvidiaQuery)
	if err != nil {
		return nil, err
	}
	return parseNvidiaCSV(output), nil
}

// one "index, name, driver_version" line per GPU; names never contain commas
func parseNvidiaCSV(output string) []base.Device {
	var devices []base.Device
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		device := base.Device{Vendor: VendorNvidia, Index: len(devices)}
		switch {
		case len(parts) >= 3:
			if val, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
				device.Index = val
			}
			device.Name = strings.TrimSpace(parts[1])
			device.DriverVersion = strings.TrimSpace(parts[2])
		default:
			// bare name, as printed by --query-gpu=name
			device.Name = strings.TrimSpace(parts[0])
		}

		if device.Name != "" {
			devices = append(devices, device)
		}
	}
	return devices
}
