package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		input   string
		count   int
		first   int
		last    int
		wantErr bool
	}{
		{"3", 10, 3, 3, false},
		{"1", 1, 1, 1, false},
		{"2-5", 10, 2, 5, false},
		{"1-10", 10, 1, 10, false},
		{"0", 10, 0, 0, true},
		{"5-2", 10, 0, 0, true},
		{"8-12", 10, 0, 0, true},
		{"abc", 10, 0, 0, true},
		{"", 10, 0, 0, true},
	}

	for _, tt := range tests {
		first, last, err := parsePageRange(tt.input, tt.count)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.first, first, "input %q", tt.input)
		assert.Equal(t, tt.last, last, "input %q", tt.input)
	}
}

func TestRootCommandIsRegistered(t *testing.T) {
	root := GetRootCommand()
	require.NotNil(t, root)

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}

	for _, expected := range []string{"batch", "image", "pdf", "serve", "config"} {
		assert.True(t, names[expected], "missing subcommand %s", expected)
	}
}
