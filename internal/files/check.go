package files

import (
	"fmt"
	"os"
)

// CheckReadable returns an error unless path names a regular file that can
// be opened for reading.
func CheckReadable(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
