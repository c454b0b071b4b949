package preflight

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// minStoreFree is the least free space the store volume may report before
// the check fails. Clips are small, so this mostly catches full disks.
const minStoreFree = 256 * 1024 * 1024

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

var statfs statfsFunc = realStatfs

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}

// CheckDiskSpace verifies that the volume holding path has at least minFree
// bytes available.
func CheckDiskSpace(name, path string, minFree uint64) Result {
	_, free, err := statfs(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s free (need at least %s)", humanize.IBytes(free), humanize.IBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", humanize.IBytes(free))}
}
