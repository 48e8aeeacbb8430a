package swallow

import (
	"github.com/shirou/gopsutil/v4/process"
)

// GopsutilTree implements ProcessTree against the live process table.
type GopsutilTree struct{}

// Parent implements ProcessTree.
func (GopsutilTree) Parent(pid int32) (int32, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return 0, err
	}
	return p.Ppid()
}
