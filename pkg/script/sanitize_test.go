package script_test

import (
	"strings"
	"testing"

	"github.com/esantoro/gaphor/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeValue_SizeLimit(t *testing.T) {
	limit := script.DefaultMaxValueSize

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := script.SanitizeValue(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, script.ErrValueTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeValue_EnvOverride(t *testing.T) {
	t.Setenv(script.EnvMaxValueSize, "3")

	_, err := script.SanitizeValue("abcd")
	assert.ErrorIs(t, err, script.ErrValueTooLarge)

	t.Setenv(script.EnvMaxValueSize, "garbage")
	_, err = script.SanitizeValue("abcd")
	assert.NoError(t, err)
}

func TestSanitizeValue_ControlChars(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"Plain", "Customer", "Customer"},
		{"SafeControls", "a\nb\tc\r", "a\nb\tc\r"},
		{"ANSI", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null", "Nu\x00ll", "Null"},
		{"Bell", "Ding\x07", "Ding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := script.SanitizeValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeValue_InvalidUTF8(t *testing.T) {
	_, err := script.SanitizeValue("bad\xff")
	assert.ErrorIs(t, err, script.ErrInvalidUTF8)
}

func TestDecode_SanitizesValues(t *testing.T) {
	steps, err := script.Decode([]any{
		map[string]any{"op": "set", "id": "c", "key": "name", "value": "Cust\x1bomer"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Customer", steps[0].Value)

	_, err = script.Decode([]any{
		map[string]any{"op": "set", "id": "c", "key": "name", "value": strings.Repeat("x", script.DefaultMaxValueSize+1)},
	})
	var stepErr *script.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 0, stepErr.Index)
	assert.ErrorIs(t, err, script.ErrValueTooLarge)
}
