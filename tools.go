//go:build tools
// +build tools

// Package tools declares tool dependencies for this module.
//
// These imports are not used at runtime. They keep mockgen, invoked
// through go generate, pinned in go.mod.
package inboxlive

import (
	_ "go.uber.org/mock/mockgen"
)
