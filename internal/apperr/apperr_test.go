package apperr

import (
	"fmt"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{ErrRead, true},
		{fmt.Errorf("camera 0: %w", ErrRead), true},
		{fmt.Errorf("jpeg: %w", ErrEncode), true},
		{ErrPipelineFailure, false},
		{ErrModelLoad, false},
		{ErrDeviceUnavailable, false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.expected {
			t.Errorf("IsTransient(%v) = %v, expected %v", tt.err, got, tt.expected)
		}
	}
}
