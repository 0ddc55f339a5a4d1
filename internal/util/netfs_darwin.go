//go:build darwin

package util

import (
	"strings"
	"syscall"
)

var networkMountTypes = []string{"nfs", "smbfs", "afpfs", "cifs", "webdav", "osxfuse"}

func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	info := &NetworkInfo{}

	fsType := strings.ToLower(cString(stat.Fstypename[:]))
	for _, t := range networkMountTypes {
		if strings.Contains(fsType, t) {
			info.IsNetwork = true
			info.Protocol = fsType
			info.MountPath = cString(stat.Mntonname[:])
			break
		}
	}
	return info, nil
}

// cString converts a NUL-terminated int8 array to a string
func cString(arr []int8) string {
	b := make([]byte, 0, len(arr))
	for _, c := range arr {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}
