package main

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Access file header layout: page 0 starts with 00 01 00 00, the engine
// magic at offset 4 and the format version byte at 0x14.
const (
	accessMagicOffset   = 4
	accessVersionOffset = 0x14
	accessHeaderSize    = accessVersionOffset + 1

	jetVersion3 = 0x00
)

var (
	jetMagic = []byte("Standard Jet DB")
	aceMagic = []byte("Standard ACE DB")
)

var sqliteExtensions = map[string]bool{".db": true, ".sqlite": true, ".sqlite3": true}
var accessExtensions = map[string]bool{".mdb": true, ".accdb": true}

// Detection is the outcome of classifying a path or URL.
type Detection struct {
	Kind         Kind
	Capabilities Capabilities
	// Path is the cleaned file path, or the URL for server backends.
	Path string
}

// detectBackend classifies target without opening an engine connection.
// An empty target means an in-memory SQLite database.
func detectBackend(target string) (*Detection, error) {
	if target == "" {
		return &Detection{Kind: KindMemorySQLite, Capabilities: fullCapabilities}, nil
	}

	if kind, ok := serverKind(target); ok {
		return &Detection{Kind: kind, Capabilities: fullCapabilities, Path: target}, nil
	}

	path := filepath.Clean(target)
	ext := strings.ToLower(filepath.Ext(path))
	if !sqliteExtensions[ext] && !accessExtensions[ext] {
		return nil, newError(KindUnsupportedFormat,
			"unsupported database file extension %q (supported: .db, .sqlite, .sqlite3, .mdb, .accdb)", ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(KindFileNotFound, "database file not found: %s", path)
		}
		return nil, wrapError(KindConnectionFailed, err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, newError(KindUnsupportedFormat, "%s is a directory", path)
	}

	if sqliteExtensions[ext] {
		return &Detection{Kind: KindSQLite, Capabilities: fullCapabilities, Path: path}, nil
	}

	kind, err := sniffAccess(path)
	if err != nil {
		return nil, err
	}
	caps := fullCapabilities
	if kind == KindLegacyAccess97 {
		caps = Capabilities{}
	}
	return &Detection{Kind: kind, Capabilities: caps, Path: path}, nil
}

// sniffAccess reads only the header bytes of an Access container.
func sniffAccess(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", wrapError(KindConnectionFailed, err, "open %s", path)
	}
	defer f.Close()

	header := make([]byte, accessHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return "", newError(KindUnsupportedFormat, "%s is too short to be an Access database", path)
	}
	return classifyAccessHeader(header, path)
}

func classifyAccessHeader(header []byte, path string) (Kind, error) {
	magic := header[accessMagicOffset : accessMagicOffset+len(jetMagic)]
	switch {
	case bytes.Equal(magic, jetMagic) && header[accessVersionOffset] == jetVersion3:
		return KindLegacyAccess97, nil
	case bytes.Equal(magic, jetMagic), bytes.Equal(magic, aceMagic):
		return KindModernAccess, nil
	default:
		return "", newError(KindUnsupportedFormat, "%s does not carry an Access database signature", path)
	}
}

// serverKind recognises URLs naming a networked database server.
func serverKind(target string) (Kind, bool) {
	lower := strings.ToLower(target)
	switch {
	case strings.HasPrefix(lower, "mysql://"):
		return KindMySQL, true
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return KindPostgres, true
	}
	return "", false
}

// isFileKind reports whether sessions of kind k are backed by a local file.
func isFileKind(k Kind) bool {
	switch k {
	case KindSQLite, KindModernAccess, KindLegacyAccess97:
		return true
	}
	return false
}
