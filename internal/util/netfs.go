package util

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// NetworkInfo describes the filesystem holding a path
type NetworkInfo struct {
	IsNetwork bool   // Whether the filesystem is network-mounted
	Protocol  string // nfs, cifs, smbfs, ... or empty if local
	MountPath string // Mount point, when known
}

// DetectNetworkFilesystem reports whether path lives on a network mount.
// A path that does not exist yet is judged by its nearest existing parent,
// so a database file can be checked before it is created.
func DetectNetworkFilesystem(path string) (*NetworkInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	existing, err := nearestExisting(absPath)
	if err != nil {
		return nil, err
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(existing, &stat); err != nil {
		return nil, fmt.Errorf("failed to stat filesystem: %w", err)
	}

	return detectPlatformNetwork(existing, &stat)
}

func nearestExisting(path string) (string, error) {
	for {
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", fmt.Errorf("no existing parent for %s", path)
		}
		path = parent
	}
}

// ResolveNetworkOptimized decides whether the database at dbPath gets the
// network SQLite pragmas. An explicit setting wins; otherwise the mount is detected.
func ResolveNetworkOptimized(dbPath string, forced bool) bool {
	if forced {
		return true
	}

	info, err := DetectNetworkFilesystem(dbPath)
	if err != nil {
		DebugLog("Failed to detect filesystem for %s: %v", dbPath, err)
		return false
	}
	if info.IsNetwork {
		InfoLog("Library database is on %s (%s), using network-optimized settings", info.Protocol, info.MountPath)
	}
	return info.IsNetwork
}
