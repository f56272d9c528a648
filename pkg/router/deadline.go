// Copyright 2024 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package router

import (
	"errors"
	"math/bits"
	"time"
)

// DefaultDeadlineMargin is how far past submission a swap stays valid, in milliseconds.
const DefaultDeadlineMargin uint64 = 300_000

var (
	ErrDeadlineOverflow = errors.New("deadline overflows uint64")
	ErrClockBeforeEpoch = errors.New("system clock is before unix epoch")
)

// Deadline returns now as milliseconds since the epoch plus futureMillis.
func Deadline(now time.Time, futureMillis uint64) (uint64, error) {
	if now.Before(time.Unix(0, 0)) {
		return 0, ErrClockBeforeEpoch
	}

	sum, carry := bits.Add64(uint64(now.UnixMilli()), futureMillis, 0)
	if carry != 0 {
		return 0, ErrDeadlineOverflow
	}

	return sum, nil
}
