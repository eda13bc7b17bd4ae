package upload

import "golang.org/x/sys/unix"

// freeBytes reports the free space on the volume holding path. A package
// variable so tests can force the preflight to fail. The check is advisory:
// space can change between check and write.
var freeBytes = func(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}
