//go:build !sqlite_cgo

package database

import _ "modernc.org/sqlite" // pure-Go driver, registered under "sqlite"

const driverName = "sqlite"
