// Copyright 2024 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package swapper

import (
	"errors"
	"fmt"
)

// Kind classifies why a swap run stopped.
type Kind string

const (
	KindConfig   Kind = "config"
	KindNetwork  Kind = "network"
	KindEncoding Kind = "encoding"
	KindOverflow Kind = "overflow"
	KindClock    Kind = "clock"
	KindSigning  Kind = "signing"
)

// Sentinels for errors.Is; they match any Error of the same kind.
var (
	ErrConfig   = &Error{Kind: KindConfig}
	ErrNetwork  = &Error{Kind: KindNetwork}
	ErrEncoding = &Error{Kind: KindEncoding}
	ErrOverflow = &Error{Kind: KindOverflow}
	ErrClock    = &Error{Kind: KindClock}
	ErrSigning  = &Error{Kind: KindSigning}
)

type Error struct {
	Kind  Kind
	Stage Stage
	// Op names the failed step, or the offending field for config errors.
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Kind == KindConfig {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
	}

	return fmt.Sprintf("%s error at stage %s: %s: %v", e.Kind, e.Stage, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// KindOf returns the kind of the first Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}

func configError(field string, err error) error {
	return &Error{Kind: KindConfig, Op: field, Err: err}
}

func stageError(kind Kind, stage Stage, op string, err error) error {
	return &Error{Kind: kind, Stage: stage, Op: op, Err: err}
}
