// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore implements [Store] with one JSON file per key in a directory.
//
// Event times are stored in microseconds, the same resolution as the Postgres
// and Redis stores. Writes go through a temp file and rename so a crash never
// leaves a truncated file. The mutex serializes goroutines of this process and an
// exclusive lock on the directory's lock file serializes processes sharing it.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

type fileRecord struct {
	Requests []int64 `json:"requests"`
}

// NewFileStore creates the directory if needed and returns a store rooted at it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("file_rate_limit_mkdir_failed: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// lockFileName is skipped by Purge since it has no .json suffix.
const lockFileName = ".lock"

// lock takes the in-process mutex and then the directory lock. The returned
// function releases both.
func (repository *FileStore) lock() (func(), error) {
	repository.mu.Lock()
	held, err := lockDir(filepath.Join(repository.dir, lockFileName))
	if err != nil {
		repository.mu.Unlock()
		return nil, err
	}
	return func() {
		held.release()
		repository.mu.Unlock()
	}, nil
}

func (repository *FileStore) path(identifier, bucket string) string {
	sum := sha256.Sum256([]byte(identifier + "_" + bucket))
	return filepath.Join(repository.dir, hex.EncodeToString(sum[:])+".json")
}

func readRecord(path string) (fileRecord, error) {
	var record fileRecord
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return record, nil
		}
		return record, err
	}
	if err := json.Unmarshal(payload, &record); err != nil {
		return record, err
	}
	return record, nil
}

func writeRecord(path string, record fileRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	temp, err := os.CreateTemp(filepath.Dir(path), ".ratelimit-*")
	if err != nil {
		return err
	}
	if _, err := temp.Write(payload); err != nil {
		_ = temp.Close()
		_ = os.Remove(temp.Name())
		return err
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(temp.Name())
		return err
	}
	return os.Rename(temp.Name(), path)
}

// Count returns the number of stored events strictly newer than since.
func (repository *FileStore) Count(_ context.Context, identifier, bucket string, since time.Time) (int, error) {
	unlock, err := repository.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()

	record, err := readRecord(repository.path(identifier, bucket))
	if err != nil {
		return 0, fmt.Errorf("file_rate_limit_read_failed: %w", err)
	}

	threshold := since.UnixMicro()
	count := 0
	for _, at := range record.Requests {
		if at > threshold {
			count++
		}
	}
	return count, nil
}

// Record appends one event, dropping events beyond the purge horizon.
func (repository *FileStore) Record(_ context.Context, identifier, bucket string, at time.Time) error {
	unlock, err := repository.lock()
	if err != nil {
		return err
	}
	defer unlock()

	path := repository.path(identifier, bucket)
	record, err := readRecord(path)
	if err != nil {
		return fmt.Errorf("file_rate_limit_read_failed: %w", err)
	}

	horizon := at.Add(-PurgeHorizon).UnixMicro()
	kept := record.Requests[:0]
	for _, existing := range record.Requests {
		if existing >= horizon {
			kept = append(kept, existing)
		}
	}
	record.Requests = append(kept, at.UnixMicro())

	if err := writeRecord(path, record); err != nil {
		return fmt.Errorf("file_rate_limit_write_failed: %w", err)
	}
	return nil
}

// Reset removes the key's file.
func (repository *FileStore) Reset(_ context.Context, identifier, bucket string) error {
	unlock, err := repository.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(repository.path(identifier, bucket)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file_rate_limit_reset_failed: %w", err)
	}
	return nil
}

// Purge rewrites every key file without events older than before, deleting
// files left empty.
func (repository *FileStore) Purge(_ context.Context, before time.Time) error {
	unlock, err := repository.lock()
	if err != nil {
		return err
	}
	defer unlock()

	entries, err := os.ReadDir(repository.dir)
	if err != nil {
		return fmt.Errorf("file_rate_limit_list_failed: %w", err)
	}

	threshold := before.UnixMicro()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(repository.dir, entry.Name())
		record, err := readRecord(path)
		if err != nil {
			return fmt.Errorf("file_rate_limit_read_failed: %w", err)
		}

		kept := record.Requests[:0]
		for _, at := range record.Requests {
			if at >= threshold {
				kept = append(kept, at)
			}
		}

		switch {
		case len(kept) == 0:
			err = os.Remove(path)
		case len(kept) != len(record.Requests):
			err = writeRecord(path, fileRecord{Requests: kept})
		}
		if err != nil {
			return fmt.Errorf("file_rate_limit_purge_failed: %w", err)
		}
	}
	return nil
}
