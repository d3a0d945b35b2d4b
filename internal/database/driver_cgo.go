//go:build sqlite_cgo

package database

import _ "github.com/mattn/go-sqlite3" // cgo driver, registered under "sqlite3"

const driverName = "sqlite3"
