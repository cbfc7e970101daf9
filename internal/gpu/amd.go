package gpu

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alpindale/tinyscripts/internal/gpu/base"
)

const VendorAMD = "amd"

// AMDProvider only identifies the card; the driver tools handle NVIDIA only.
type AMDProvider struct{}

func (p AMDProvider) Name() string {
	return VendorAMD
}

func (p AMDProvider) Detect(runCmd base.RunCmdFunc) bool {
	if _, err := runCmd("amd-smi version"); err == nil {
		return true
	}
	if _, err := runCmd("rocm-smi --version"); err == nil {
		return true
	}
	return false
}

func (p AMDProvider) Query(runCmd base.RunCmdFunc) ([]base.Device, error) {
	if output, err := runCmd("amd-smi static --asic --driver --json"); err == nil {
		return parseAMDStatic(output)
	}
	output, err := runCmd("rocm-smi --showproductname --showdriverversion --csv")
	if err != nil {
		return nil, err
	}
	return parseROCmCSV(output)
}

func parseAMDStatic(output string) ([]base.Device, error) {
	var static struct {
		GPUData []struct {
			GPU  int `json:"gpu"`
			ASIC struct {
				MarketName string `json:"market_name"`
			} `json:"asic"`
			Driver struct {
				Version string `json:"version"`
			} `json:"driver"`
		} `json:"gpu_data"`
	}
	if err := json.Unmarshal([]byte(output), &static); err != nil {
		return nil, err
	}

	devices := make([]base.Device, 0, len(static.GPUData))
	for _, g := range static.GPUData {
		devices = append(devices, base.Device{
			Index:         g.GPU,
			Name:          g.ASIC.MarketName,
			DriverVersion: g.Driver.Version,
			Vendor:        VendorAMD,
		})
	}
	return devices, nil
}

// rocm-smi prints a header row; the columns we want are looked up by name
func parseROCmCSV(output string) ([]base.Device, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("insufficient output from rocm-smi")
	}

	header := strings.Split(lines[0], ",")
	col := func(names ...string) int {
		for i, h := range header {
			for _, n := range names {
				if strings.EqualFold(strings.TrimSpace(h), n) {
					return i
				}
			}
		}
		return -1
	}
	seriesCol := col("Card series", "Card Series")
	modelCol := col("Card model", "Card Model")
	driverCol := col("Driver version", "Driver Version")

	var devices []base.Device
	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ",")
		field := func(c int) string {
			if c < 0 || c >= len(parts) {
				return ""
			}
			return strings.TrimSpace(parts[c])
		}

		device := base.Device{Index: i, Vendor: VendorAMD, DriverVersion: field(driverCol)}
		series, model := field(seriesCol), field(modelCol)
		device.Name = series
		if model != "" && model != series {
			device.Name = fmt.Sprintf("%s (%s)", series, model)
		}
		if device.Name == "" {
			device.Name = "AMD GPU"
		}
		devices = append(devices, device)
	}
	return devices, nil
}
