// Copyright 2024 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package swapper

// Stage is the progress of a swap transaction. Stages only move forward.
type Stage int

const (
	StageUnsent Stage = iota
	StageGasEstimated
	StagePricedAndNonced
	StageBuilt
	StageSigned
	StageSubmitted
)

var stageNames = [...]string{
	StageUnsent:          "unsent",
	StageGasEstimated:    "gas-estimated",
	StagePricedAndNonced: "priced-and-nonced",
	StageBuilt:           "built",
	StageSigned:          "signed",
	StageSubmitted:       "submitted",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}

	return stageNames[s]
}
