//go:build linux

package hashcluster

import "golang.org/x/sys/unix"

func osPageSize() int {
	return unix.Getpagesize()
}

func osMemoryPages() int {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return defaultMemoryPages
	}
	total := uint64(info.Totalram) * uint64(info.Unit)
	if total == 0 {
		return defaultMemoryPages
	}
	return int(total / uint64(osPageSize()))
}
