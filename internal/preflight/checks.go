package preflight

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"golang.org/x/sys/unix"

	"aircheq-podcast/internal/config"
	"aircheq-podcast/internal/deps"
	"aircheq-podcast/internal/feed"
)

// Access selects which permissions CheckDirectoryAccess demands.
type Access uint32

const (
	AccessRead      Access = unix.R_OK | unix.X_OK
	AccessReadWrite Access = unix.R_OK | unix.W_OK | unix.X_OK
)

func (a Access) String() string {
	if a&unix.W_OK != 0 {
		return "read/write"
	}
	return "read"
}

// CheckDirectoryAccess verifies that the directory exists and grants mode.
func CheckDirectoryAccess(name, path string, mode Access) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, uint32(mode)); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s ok)", path, mode)}
}

// CheckOwner verifies that the service account files are handed to exists.
func CheckOwner(identity string) Result {
	const name = "Publish owner"
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}
	userPart, _, _ := strings.Cut(identity, ":")
	if _, err := user.Lookup(userPart); err != nil {
		if _, idErr := user.LookupId(userPart); idErr != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", identity, err)}
		}
	}
	if os.Geteuid() != 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not running as root; chown may fail)", identity)}
	}
	return Result{Name: name, Passed: true, Detail: identity}
}

// CheckURLRoot verifies that item links can be built from the URL root.
func CheckURLRoot(raw string) Result {
	const name = "URL root"
	root, err := feed.ParseURLRoot(raw)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: root.String()}
}

// CheckSystemDeps evaluates the external binaries for the given config.
// ffprobe is only required when converted output is verified.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required to repackage m2ts recordings",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Verifies repackaged output",
			Optional:    !cfg.Convert.VerifyOutput,
		},
	}
	return deps.CheckBinaries(requirements)
}
