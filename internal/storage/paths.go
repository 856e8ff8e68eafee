package storage

import (
	"os"
	"path/filepath"
)

const checkpointDirName = "checkpoints"

// CheckpointDir returns (and creates) the checkpoint database directory
// under a fit run's output directory.
func CheckpointDir(outputDir string) (string, error) {
	dir := filepath.Join(outputDir, checkpointDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
