package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ChecksumManifest pins the expected hash of the config file. Webhook
// secrets live in that file, so operators can lock a reviewed config and
// have the gateway refuse silently modified ones.
type ChecksumManifest struct {
	Version     int    `yaml:"version"`
	GeneratedAt string `yaml:"generated_at"`
	Hash        string `yaml:"hash"`
}

const manifestName = ".checksum"

// ComputeHash returns the BLAKE3 hash of the file at path.
func ComputeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// WriteChecksum records the current hash of configPath next to it.
func WriteChecksum(configPath string) error {
	hash, err := ComputeHash(configPath)
	if err != nil {
		return err
	}

	manifest := ChecksumManifest{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hash:        hash,
	}
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal checksum manifest: %w", err)
	}

	// Restrictive permissions: the manifest is the tamper baseline.
	return os.WriteFile(manifestPath(configPath), data, 0o600)
}

// VerifyChecksum compares configPath against its recorded manifest.
// A missing manifest is not an error: integrity pinning is opt-in.
func VerifyChecksum(configPath string) error {
	data, err := os.ReadFile(manifestPath(configPath))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read checksum manifest: %w", err)
	}

	var manifest ChecksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parse checksum manifest: %w", err)
	}
	if manifest.Version != 1 {
		return fmt.Errorf("unsupported checksum manifest version: %d", manifest.Version)
	}

	actual, err := ComputeHash(configPath)
	if err != nil {
		return err
	}
	if actual != manifest.Hash {
		return fmt.Errorf("config integrity check failed for %s: expected %s, got %s",
			filepath.Base(configPath), manifest.Hash, actual)
	}
	return nil
}

func manifestPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), manifestName)
}
