//go:build !linux && !darwin

package fileutil

import "time"

func birthTime(string) (time.Time, bool) {
	return time.Time{}, false
}
