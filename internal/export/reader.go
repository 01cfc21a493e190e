package export

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// LoadPackage reads a .dppkg file, verifying magic bytes, format
// version and the weight-section checksum.
func LoadPackage(path string) (*DeploymentPackage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package file: %w", err)
	}
	if len(data) < 16 {
		return nil, fmt.Errorf("package file %q is truncated: %w", path, ErrInvalidMagic)
	}
	if string(data[:4]) != MagicBytes {
		return nil, fmt.Errorf("package file %q: %w", path, ErrInvalidMagic)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != FormatVersion {
		return nil, fmt.Errorf("package file %q has version %d: %w", path, version, ErrUnsupportedVersion)
	}

	manifestSize := binary.LittleEndian.Uint64(data[8:16])
	manifestEnd := 16 + int64(manifestSize)
	if manifestEnd > int64(len(data)) {
		return nil, fmt.Errorf("package file %q manifest extends past end of file", path)
	}

	var manifest Manifest
	if err := json.Unmarshal(data[16:manifestEnd], &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	weightStart := manifestEnd
	if pad := (HeaderAlignment - weightStart%HeaderAlignment) % HeaderAlignment; pad > 0 {
		weightStart += pad
	}
	if weightStart > int64(len(data)) {
		return nil, fmt.Errorf("package file %q weight section extends past end of file", path)
	}
	weights := data[weightStart:]

	sum := sha256.Sum256(weights)
	if hex.EncodeToString(sum[:]) != manifest.Checksum {
		return nil, fmt.Errorf("package file %q: %w", path, ErrChecksumMismatch)
	}

	return &DeploymentPackage{Manifest: manifest, weights: weights}, nil
}
