package script

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxValueSize bounds a single attribute value.
	DefaultMaxValueSize = 4096
	// EnvMaxValueSize overrides DefaultMaxValueSize.
	EnvMaxValueSize = "GAPHOR_MAX_VALUE_SIZE"
)

var (
	ErrValueTooLarge = errors.New("value exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("value contains invalid UTF-8 sequences")
)

// SanitizeValue enforces the size limit, validates UTF-8 and strips
// control characters other than newline, tab and carriage return.
// Oversized values are rejected, never truncated.
func SanitizeValue(value string) (string, error) {
	if limit := maxValueSize(); len(value) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrValueTooLarge, len(value), limit)
	}
	if !utf8.ValidString(value) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(value, unsafeControl) < 0 {
		return value, nil
	}
	return strings.Map(func(r rune) rune {
		if unsafeControl(r) {
			return -1
		}
		return r
	}, value), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxValueSize() int {
	if val := os.Getenv(EnvMaxValueSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxValueSize
}
