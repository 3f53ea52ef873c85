package utils

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadSize is the per-file cap applied before any storage call.
const MaxUploadSize int64 = 10 * 1024 * 1024

// GenerateSessionID returns an opaque identifier for a browser session.
func GenerateSessionID() string {
	return uuid.NewString()
}

// FileExt returns the extension of name without the dot, or "" when there is none.
func FileExt(name string) string {
	ext := path.Ext(name)
	return strings.TrimPrefix(ext, ".")
}

// GenerateObjectName builds a collision-free storage object name that keeps
// the original file extension, reduced to lowercase letters and digits.
func GenerateObjectName(fileName string) string {
	ext := safeExt(FileExt(fileName))
	if ext == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "." + ext
}

func safeExt(ext string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, ext)
}

// ExceedsUploadLimit reports whether a file of the given size must be rejected.
func ExceedsUploadLimit(size int64) bool {
	return size > MaxUploadSize
}
