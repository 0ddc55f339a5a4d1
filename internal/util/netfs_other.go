//go:build !linux && !darwin

package util

import "syscall"

// Unsupported platforms are assumed local
func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	return &NetworkInfo{}, nil
}
