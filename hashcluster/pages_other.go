//go:build !linux

package hashcluster

import "os"

func osPageSize() int {
	return os.Getpagesize()
}

func osMemoryPages() int {
	return defaultMemoryPages
}
