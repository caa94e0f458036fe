// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

//go:build !unix

package ratelimit

// dirLock is a no-op where flock(2) is unavailable. The file store is then
// safe for a single process only.
type dirLock struct{}

func lockDir(string) (*dirLock, error) {
	return &dirLock{}, nil
}

func (*dirLock) release() {}
