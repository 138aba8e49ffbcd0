package toolchain

import (
	"os"
	"path/filepath"
)

// Project holds information about a detected ESP-IDF project tree.
type Project struct {
	Root       string // directory holding the top-level CMakeLists.txt
	Configured bool   // sdkconfig present (idf.py has been configured)
}

// DetectProject walks up from startDir looking for an ESP-IDF project:
// a directory with a top-level CMakeLists.txt and a main/ component.
func DetectProject(startDir string) *Project {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil
	}

	for {
		cmake := filepath.Join(dir, "CMakeLists.txt")
		mainDir := filepath.Join(dir, "main")
		if fileExists(cmake) && dirExists(mainDir) {
			return &Project{
				Root:       dir,
				Configured: fileExists(filepath.Join(dir, "sdkconfig")),
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil // reached filesystem root
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
