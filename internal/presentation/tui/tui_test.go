package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/charsheet/internal/testutils"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetMarkdown(t *testing.T) {
	snap, err := domain.DecodeSnapshot([]byte(testutils.SheetJSON))
	require.NoError(t, err)

	md := SheetMarkdown("radiant-echo-7", snap, []string{"resilience"})
	assert.Contains(t, md, "# radiant-echo-7")
	assert.Contains(t, md, "| speed | `2d4+2` |")
	assert.Contains(t, md, "### Character (active)")
	assert.Contains(t, md, "- **defense** `combat_stats`")
	assert.Contains(t, md, "- resilience")
}

func TestSheetMarkdown_Empty(t *testing.T) {
	snap, err := domain.DecodeSnapshot([]byte(`{"userValues":{},"activeFeatures":[],"inactiveFeatures":[]}`))
	require.NoError(t, err)
	md := SheetMarkdown("x", snap, nil)
	assert.Contains(t, md, "_none_")
	assert.NotContains(t, md, "Required")
}

func TestNewRenderer_Plain(t *testing.T) {
	out, err := NewRenderer(true)("# hi")
	require.NoError(t, err)
	assert.Equal(t, "# hi", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "serving on :8080")
	assert.Contains(t, buf.String(), "serving on :8080")
}
