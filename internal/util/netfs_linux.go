//go:build linux

package util

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Kernel VFS magic numbers of network filesystems
var networkMagic = map[uint32]string{
	0x6969:     "nfs",   // NFS_SUPER_MAGIC
	0xff534d42: "cifs",  // CIFS_MAGIC_NUMBER
	0xfe534d42: "smb2",  // SMB2_MAGIC_NUMBER
	0x517b:     "smb",   // SMB_SUPER_MAGIC
	0x01021994: "smbfs", // old SMBFS magic
	0x564c:     "ncp",   // NCP_SUPER_MAGIC
}

// Mount types treated as network filesystems
var networkMountTypes = []string{"nfs", "cifs", "smb", "ncpfs", "fuse.sshfs", "fuse.rclone"}

func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	info := &NetworkInfo{}

	if proto, ok := networkMagic[uint32(stat.Type)]; ok {
		info.IsNetwork = true
		info.Protocol = proto
	}

	f, err := os.Open("/proc/mounts")
	if err != nil {
		// Magic number alone decides
		return info, nil
	}
	defer f.Close()

	mounts, err := parseMounts(f)
	if err != nil {
		return info, nil
	}

	mountPoint, fsType := mountFor(path, mounts)
	if mountPoint == "" {
		return info, nil
	}
	info.MountPath = mountPoint
	if isNetworkMountType(fsType) {
		info.IsNetwork = true
		info.Protocol = fsType
	}
	return info, nil
}

// parseMounts reads /proc/mounts lines into mount point -> filesystem type
func parseMounts(r io.Reader) (map[string]string, error) {
	mounts := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// device mountpoint fstype options dump pass
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mounts[fields[1]] = strings.ToLower(fields[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mounts, nil
}

// mountFor returns the longest mount point containing path
func mountFor(path string, mounts map[string]string) (string, string) {
	best, bestType := "", ""
	for mountPoint, fsType := range mounts {
		if !withinMount(path, mountPoint) || len(mountPoint) <= len(best) {
			continue
		}
		best, bestType = mountPoint, fsType
	}
	return best, bestType
}

func withinMount(path, mountPoint string) bool {
	if mountPoint == "/" || path == mountPoint {
		return true
	}
	return strings.HasPrefix(path, mountPoint+string(filepath.Separator))
}

func isNetworkMountType(fsType string) bool {
	for _, t := range networkMountTypes {
		if strings.Contains(fsType, t) {
			return true
		}
	}
	return false
}
