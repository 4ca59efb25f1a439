// Package systeminfo gathers the host context stamped into report
// headers, so a results file records where the scan ran.
package systeminfo

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

type SystemInfo struct {
	Hostname        string `json:"hostname,omitempty"`
	OS              string `json:"os"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	KernelArch      string `json:"kernel_arch,omitempty"`
	CPUs            int    `json:"cpus"`
}

// Collect never fails; missing host details just stay empty.
func Collect() *SystemInfo {
	info := &SystemInfo{
		OS:   runtime.GOOS,
		CPUs: runtime.NumCPU(),
	}
	if h, err := host.Info(); err == nil {
		info.Hostname = h.Hostname
		info.Platform = h.Platform
		info.PlatformVersion = h.PlatformVersion
		info.KernelArch = h.KernelArch
	} else if name, herr := os.Hostname(); herr == nil {
		info.Hostname = name
	}
	return info
}
