// Package database provides the SQLite connection used by the message
// journal, with embedded schema migrations and a health check.
//
// SQLite is a good fit here: the journal has a single writer (the
// dispatch path) and occasional readers, and the bridge runs on small
// single-board hosts where an external database server is not an option.
package database
