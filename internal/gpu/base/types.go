package base

// a single GPU in vendor-neutral terms
type Device struct {
	Index         int
	Name          string
	DriverVersion string
	Vendor        string
}

type RunCmdFunc func(string) (string, error)

type Provider interface {
	// returns the vendor name (e.g., "nvidia", "amd")
	Name() string

	// returns true if the vendor tooling answers on the host
	Detect(runCmd RunCmdFunc) bool

	// returns the GPUs the tooling reports, in its order
	Query(runCmd RunCmdFunc) ([]Device, error)
}
