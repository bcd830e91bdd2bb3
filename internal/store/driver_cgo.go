//go:build !nocgo

package store

import (
	_ "github.com/mattn/go-sqlite3"
)

// driverName is the database/sql driver registered for this build. The
// cgo-based mattn/go-sqlite3 driver is the default; build with -tags
// nocgo to select the pure-Go modernc.org/sqlite driver instead, for
// cross-compiling without a C toolchain.
const driverName = "sqlite3"
