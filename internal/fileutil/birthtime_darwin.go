//go:build darwin

package fileutil

import (
	"time"

	"golang.org/x/sys/unix"
)

func birthTime(path string) (time.Time, bool) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return time.Time{}, false
	}
	sec, nsec := st.Btimespec.Unix()
	return birthFromParts(sec, nsec)
}
