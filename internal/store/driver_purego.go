//go:build nocgo

package store

import (
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver registered for this build.
const driverName = "sqlite"
