// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/podsudnost/podsudnost/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
