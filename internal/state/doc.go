// Package state provides filesystem-backed storage implementations.
package state

import "github.com/user/datalake/internal/types"

// Compile-time interface compliance checks.
var _ types.EventSink = (*Journal)(nil)
var _ types.EventReader = (*Journal)(nil)
