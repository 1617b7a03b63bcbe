package benchmark

import "runtime"

// Version is the application version stamped into run records. Overridable
// at build time with -ldflags "-X ...benchmark.Version=x.y.z".
var Version = "0.1.0"

// EnvironmentFingerprint identifies the host a run executed on, recorded
// alongside the run so results stay comparable across machines.
type EnvironmentFingerprint struct {
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	CPUCount   int    `json:"cpuCount"`
	AppVersion string `json:"appVersion"`
}

// CollectEnvironmentFingerprint captures the current host environment.
func CollectEnvironmentFingerprint() EnvironmentFingerprint {
	return EnvironmentFingerprint{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		CPUCount:   runtime.NumCPU(),
		AppVersion: Version,
	}
}
