// Copyright 2024 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package swapper

var (
	ParseEndpoint = parseEndpoint
	ParseAmount   = parseAmount
)
