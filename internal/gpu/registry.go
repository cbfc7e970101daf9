package gpu

import "github.com/alpindale/tinyscripts/internal/gpu/base"

// the list of all available GPU providers
// They will be checked in order, and the first one that detects
// its tooling on the host will be used
var providers = []base.Provider{
	NvidiaProvider{},
	AMDProvider{},
}

// QueryAll returns the devices of the first provider that reports any.
// Missing tooling is not an error: the result is just empty.
func QueryAll(runCmd base.RunCmdFunc) []base.Device {
	for _, p := range providers {
		if !p.Detect(runCmd) {
			continue
		}
		devices, err := p.Query(runCmd)
		if err != nil {
			continue
		}
		if len(devices) > 0 {
			return devices
		}
	}
	return []base.Device{}
}

// Register appends a provider after the built-in ones.
func Register(p base.Provider) {
	providers = append(providers, p)
}
