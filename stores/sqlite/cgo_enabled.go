//go:build cgo

package sqlite

// CGOEnabled reports whether the sqlite journal is built with cgo support.
const CGOEnabled = true
