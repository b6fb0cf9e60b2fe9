package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUIMode(t *testing.T) {
	prev := isTerminal
	t.Cleanup(func() { isTerminal = prev })

	tests := []struct {
		name     string
		mode     string
		terminal bool
		wantTUI  bool
		warning  bool
		wantErr  bool
	}{
		{name: "auto terminal", mode: "auto", terminal: true, wantTUI: true},
		{name: "auto pipe", mode: "", terminal: false},
		{name: "tui terminal", mode: "TUI", terminal: true, wantTUI: true},
		{name: "tui pipe", mode: "tui", terminal: false, warning: true},
		{name: "plain", mode: "plain", terminal: true},
		{name: "invalid", mode: "fancy", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isTerminal = func(any) bool { return tt.terminal }
			got, err := resolveUIMode(tt.mode, &bytes.Buffer{}, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTUI, got.useTUI)
			assert.Equal(t, tt.warning, got.warning != "")
		})
	}
}

func TestDefaultIsTerminal(t *testing.T) {
	assert.False(t, defaultIsTerminal(nil))
	assert.False(t, defaultIsTerminal(&bytes.Buffer{}))
}
