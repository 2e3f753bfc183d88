// Package storage is a content-addressed blob store for receipts, crop
// photos and payout artifacts. Handles have the form "b3:<hex>", the
// BLAKE3 digest of the uncompressed blob.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

const handlePrefix = "b3:"

var (
	ErrNotFound      = errors.New("object not found")
	ErrInvalidHandle = errors.New("invalid object handle")
	ErrCorrupt       = errors.New("object content does not match handle")
)

type FSStore struct {
	root     string
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

func NewFSStore(root string, compress bool) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &FSStore{root: root, compress: compress, encoder: encoder, decoder: decoder}, nil
}

// HandleFor returns the handle a blob is stored under.
func HandleFor(blob []byte) string {
	sum := blake3.Sum256(blob)
	return handlePrefix + hex.EncodeToString(sum[:])
}

// ParseHandle validates a handle and returns its hex digest.
func ParseHandle(handle string) (string, error) {
	digest, ok := strings.CutPrefix(strings.TrimSpace(handle), handlePrefix)
	if !ok || len(digest) != 64 {
		return "", ErrInvalidHandle
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", ErrInvalidHandle
	}
	return strings.ToLower(digest), nil
}

// Store writes the blob and returns its handle. Storing identical bytes twice
// is a no-op.
func (s *FSStore) Store(ctx context.Context, blob []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	handle := HandleFor(blob)
	digest, _ := ParseHandle(handle)

	if _, _, err := s.locate(digest); err == nil {
		return handle, nil
	}

	path, payload := s.rawPath(digest), blob
	if s.compress {
		path = s.compressedPath(digest)
		payload = s.encoder.EncodeAll(blob, nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return handle, nil
}

func (s *FSStore) Retrieve(ctx context.Context, handle string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	digest, err := ParseHandle(handle)
	if err != nil {
		return nil, err
	}
	path, compressed, err := s.locate(digest)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if compressed {
		if data, err = s.decoder.DecodeAll(data, nil); err != nil {
			return nil, fmt.Errorf("decompress %s: %w", handle, err)
		}
	}
	if HandleFor(data) != handlePrefix+digest {
		return nil, ErrCorrupt
	}
	return data, nil
}

// Exists reports whether the handle is well formed and resolves.
func (s *FSStore) Exists(ctx context.Context, handle string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	digest, err := ParseHandle(handle)
	if err != nil {
		return false, nil
	}
	if _, _, err := s.locate(digest); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *FSStore) locate(digest string) (string, bool, error) {
	for _, candidate := range []struct {
		path       string
		compressed bool
	}{
		{s.compressedPath(digest), true},
		{s.rawPath(digest), false},
	} {
		_, err := os.Stat(candidate.path)
		if err == nil {
			return candidate.path, candidate.compressed, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", false, err
		}
	}
	return "", false, ErrNotFound
}

func (s *FSStore) rawPath(digest string) string {
	return filepath.Join(s.root, digest[:2], digest)
}

func (s *FSStore) compressedPath(digest string) string {
	return s.rawPath(digest) + ".zst"
}
