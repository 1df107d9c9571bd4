package gen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFiles writes all files into outputDir, creating it if needed. Every
// file is first written to a temporary name and renamed into place only
// once all of them were written, so a failed run leaves no partial set.
func WriteFiles(files []GeneratedFile, outputDir string) error {
	if err := os.MkdirAll(outputDir, dirPerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	staged := make([]string, 0, len(files))

	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, file := range files {
		tmp := filepath.Join(outputDir, "."+file.Filename+".tmp")

		if err := os.WriteFile(tmp, file.Content, filePerm); err != nil {
			cleanup()
			return fmt.Errorf("writing file %s: %w", file.Filename, err)
		}

		staged = append(staged, tmp)
	}

	var errs []error

	for i, file := range files {
		if err := os.Rename(staged[i], filepath.Join(outputDir, file.Filename)); err != nil {
			errs = append(errs, fmt.Errorf("renaming %s: %w", file.Filename, err))
		}
	}

	if len(errs) > 0 {
		cleanup()
	}

	return errors.Join(errs...)
}

// WriteSidecar writes a debug artifact next to the generated files. It is
// best-effort output and never the reason a run fails.
func WriteSidecar(outputDir, filename string, content []byte) error {
	if outputDir == "" || filename == "" {
		return nil
	}

	if err := os.MkdirAll(outputDir, dirPerm); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(outputDir, filename), content, filePerm)
}
