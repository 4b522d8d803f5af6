package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// indexPath returns the cache path for the index covering the current
// working directory: $HOME/.cache/codesearch/<xxhash64-hex-of-cwd>.
//
// Grounded on original_source/src/main.rs's get_save_path, which hashes
// the absolute working directory with hmac_sha256 and caches the
// result under ~/.thearchitect/codesearch/<hex>. xxhash replaces the
// cryptographic hash here since the input is never adversarial, only a
// cache key, matching the non-cryptographic hash choice the rest of
// the pack (zoekt, lci) makes for the same kind of purpose.
func indexPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".cache", "codesearch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	sum := xxhash.Sum64String(cwd)
	return filepath.Join(dir, fmt.Sprintf("%016x", sum)), nil
}
