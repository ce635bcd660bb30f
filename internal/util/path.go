package util

import (
	"os"
	"path/filepath"
)

const DataDirName = "data"

// FindFilePath looks for filename in the data/ directory beside the
// executable, then in data/ under the working directory.
func FindFilePath(filename string) (string, bool) {
	exe, err := os.Executable()
	if err == nil {
		path := filepath.Join(filepath.Dir(exe), DataDirName, filename)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		path := filepath.Join(cwd, DataDirName, filename)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	return "", false
}
