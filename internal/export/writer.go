package export

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WritePackage persists a deployment package:
//
//	magic (4) | version (4, LE) | manifest size (8, LE) | manifest JSON
//	| padding to 64 | weight section
//
// The file is written once and never mutated afterwards.
func WritePackage(path string, pkg *DeploymentPackage) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create package file: %w", err)
	}
	defer file.Close()

	manifestJSON, err := json.Marshal(pkg.Manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if _, err := file.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint64(len(manifestJSON))); err != nil {
		return fmt.Errorf("failed to write manifest size: %w", err)
	}
	if _, err := file.Write(manifestJSON); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	pos := int64(4+4+8) + int64(len(manifestJSON))
	if pad := (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment; pad > 0 {
		if _, err := file.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := file.Write(pkg.weights); err != nil {
		return fmt.Errorf("failed to write weight section: %w", err)
	}
	return file.Sync()
}
