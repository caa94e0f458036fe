// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

//go:build unix

package ratelimit

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// dirLock holds an exclusive flock(2) on a file inside the store directory, so
// processes sharing the directory serialize their read-modify-write cycles.
type dirLock struct {
	file *os.File
}

func lockDir(path string) (*dirLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o640)
	if err != nil {
		return nil, fmt.Errorf("file_rate_limit_lock_open_failed: %w", err)
	}
	for {
		err = unix.Flock(int(file.Fd()), unix.LOCK_EX)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("file_rate_limit_lock_failed: %w", err)
	}
	return &dirLock{file: file}, nil
}

func (lock *dirLock) release() {
	_ = unix.Flock(int(lock.file.Fd()), unix.LOCK_UN)
	_ = lock.file.Close()
}
