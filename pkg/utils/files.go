package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// MakeDir creates a directory with all parent directories
func MakeDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// WriteFile writes data to dir/name, creating dir first.
func WriteFile(dir, name string, data []byte) (string, error) {
	if err := MakeDir(dir); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// BytesToMB converts a byte count to megabytes rounded to two decimals.
func BytesToMB(n int64) float64 {
	return float64(n*100/(1024*1024)) / 100
}
