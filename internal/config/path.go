// Package config resolves user-supplied settings such as file paths
// from config files, flags, and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a path the way a shell would: a leading ~ maps
// to the user's home directory and $VAR references are substituted
// from the environment. An unresolvable ~ is left as-is.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return ""
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}

	return os.ExpandEnv(path)
}
