package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "message only",
			err:      NewConfigError("pipeline needs paths", nil),
			expected: "[CONFIG] pipeline needs paths",
		},
		{
			name:     "sorted context",
			err:      NewLookupError("country not found").WithContext("period", "2013H1").WithContext("country", "Canada"),
			expected: "[LOOKUP] country not found (country=Canada, period=2013H1)",
		},
		{
			name:     "with cause",
			err:      NewIOError("failed to open", stderrors.New("permission denied")).WithContext("path", "a.xlsx"),
			expected: "[IO] failed to open (path=a.xlsx): permission denied",
		},
		{
			name:     "missing value keeps raw cell",
			err:      NewMissingValueError("C"),
			expected: "[MISSING_VALUE] value is not numeric (raw=C)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewStorageError("failed to commit", cause)

	assert.ErrorIs(t, err, cause)
	wrapped := fmt.Errorf("export: %w", err)

	var appErr *AppError
	require.True(t, stderrors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestTypeChecks(t *testing.T) {
	parse := NewParseError("header row not found", nil)
	nested := NewIOError("failed to load", parse)
	wrapped := fmt.Errorf("normalize: %w", nested)

	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{name: "direct", err: parse, errType: ErrTypeParse, want: true},
		{name: "outer type", err: wrapped, errType: ErrTypeIO, want: true},
		{name: "nested cause", err: wrapped, errType: ErrTypeParse, want: true},
		{name: "absent type", err: wrapped, errType: ErrTypeLookup, want: false},
		{name: "plain error", err: stderrors.New("boom"), errType: ErrTypeIO, want: false},
		{name: "nil", err: nil, errType: ErrTypeIO, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.errType))
		})
	}

	assert.Equal(t, ErrTypeIO, TypeOf(wrapped))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
	assert.True(t, IsParse(wrapped))
	assert.True(t, IsLookup(NewLookupError("x")))
	assert.True(t, IsMissingValue(NewMissingValueError("-")))
}
