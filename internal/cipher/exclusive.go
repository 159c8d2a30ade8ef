// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cipher

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Exclusive serializes access to a Cipher shared by multiple goroutines,
// every multi-register sequence runs with a single owner.
type Exclusive struct {
	c   *Cipher
	sem *semaphore.Weighted
}

// NewExclusive returns an exclusive access wrapper for c, all access to c
// must go through the wrapper from then on.
func NewExclusive(c *Cipher) *Exclusive {
	c.check()

	return &Exclusive{
		c:   c,
		sem: semaphore.NewWeighted(1),
	}
}

// Do runs fn as sole owner of the cipher, waiting for ownership until ctx is
// done. The hardware polls run by fn are not interrupted by ctx.
func (e *Exclusive) Do(ctx context.Context, fn func(c *Cipher) error) (err error) {
	if err = e.sem.Acquire(ctx, 1); err != nil {
		return
	}

	defer e.sem.Release(1)

	return fn(e.c)
}

// TryDo runs fn only if the cipher is not owned, it returns false otherwise.
func (e *Exclusive) TryDo(fn func(c *Cipher) error) (ok bool, err error) {
	if !e.sem.TryAcquire(1) {
		return
	}

	defer e.sem.Release(1)

	return true, fn(e.c)
}
