package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextJoinsPages(t *testing.T) {
	ex, err := NewPDFService().ExtractText("testdata/notes.pdf")
	require.NoError(t, err)

	assert.Equal(t, 2, ex.Pages)
	assert.Equal(t, strings.TrimSpace(ex.Text), ex.Text)
	first := strings.Index(ex.Text, "Cells make energy")
	second := strings.Index(ex.Text, "DNA stores genes")
	require.GreaterOrEqual(t, first, 0, ex.Text)
	require.Greater(t, second, first, ex.Text)
	assert.Contains(t, ex.Text[first:second], "\n")
}
