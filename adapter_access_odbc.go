//go:build cgo

package main

// The ODBC driver binds to unixODBC through cgo; it is only linked in when
// cgo is available.
import _ "github.com/alexbrainman/odbc"
