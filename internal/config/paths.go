package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".sumai"

// Paths holds resolved filesystem paths for sumai data.
type Paths struct {
	Base   string // ~/.sumai
	Config string // ~/.sumai/config.yaml
	Logs   string // ~/.sumai/logs
}

// ResolvePaths computes all standard paths from the home directory.
// If SUMAI_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("SUMAI_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// LogFile is the default log destination for interactive sessions.
func (p Paths) LogFile() string {
	return filepath.Join(p.Logs, "sumai.log")
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Logs} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}
