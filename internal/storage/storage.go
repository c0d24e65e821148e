// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage holds template content artifacts. FileStore writes to
// the local filesystem; S3Store writes to an S3-compatible bucket. Both
// stage a write first so the caller can commit it only after the
// metadata write succeeded.
package storage

import "context"

// Staged is a content write that is prepared but not yet visible.
// Exactly one of Commit or Abort should be called.
type Staged interface {
	// Commit makes the staged content visible at its path.
	Commit(ctx context.Context) error
	// Abort discards the staged content. The previous content, if any,
	// is left untouched.
	Abort() error
}
