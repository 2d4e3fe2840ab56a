package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/charsheet"
	"github.com/aretw0/charsheet/internal/config"
	"github.com/aretw0/charsheet/internal/logging"
	"github.com/aretw0/charsheet/internal/testutils"
	"github.com/aretw0/charsheet/pkg/dice"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtures(t *testing.T) (sheet, page string) {
	t.Helper()
	dir := t.TempDir()
	sheet = filepath.Join(dir, "sheet.json")
	page = filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(sheet, []byte(testutils.SheetJSON), 0644))
	require.NoError(t, os.WriteFile(page, []byte(testutils.SheetPage), 0644))
	return sheet, page
}

func TestParseAssignments(t *testing.T) {
	changes, names, err := parseAssignments([]string{"strength=12", "speed = 1d6+1", "luck="})
	require.NoError(t, err)
	assert.Equal(t, []string{"strength", "speed", "luck"}, names)
	require.Len(t, changes, 3)
	assert.Equal(t, dice.Number(12), *changes[0].Value)
	assert.Equal(t, "1d6+1", changes[1].Value.String())
	assert.Nil(t, changes[2].Value, "empty text unsets")

	_, _, err = parseAssignments([]string{"strength"})
	assert.ErrorIs(t, err, ErrInvalidAssignment)
	_, _, err = parseAssignments([]string{"=3"})
	assert.ErrorIs(t, err, ErrInvalidAssignment)
	_, _, err = parseAssignments([]string{"strength=2d"})
	assert.ErrorIs(t, err, dice.ErrMalformed)
}

func TestRunRender(t *testing.T) {
	ctx := context.Background()
	sheet, page := writeFixtures(t)

	var out bytes.Buffer
	err := RunRender(ctx, &out, charsheet.New(), SheetOptions{SheetPath: sheet, PagePath: page, Sets: []string{"strength=14"}})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `value="14"`)
	assert.Contains(t, out.String(), "Strength:</b>14")

	err = RunRender(ctx, &out, charsheet.New(), SheetOptions{SheetPath: sheet})
	assert.ErrorIs(t, err, ErrNoPage)
}

func TestRunSet(t *testing.T) {
	ctx := context.Background()
	sheet, _ := writeFixtures(t)

	var out bytes.Buffer
	err := RunSet(ctx, &out, charsheet.New(), SheetOptions{SheetPath: sheet, Sets: []string{"resilience=3"}})
	require.NoError(t, err)

	snap, err := domain.DecodeSnapshot(out.Bytes())
	require.NoError(t, err)
	v, ok := snap.UserValue("resilience")
	require.True(t, ok)
	assert.Equal(t, "3", v.String())
}

func TestRunRequired(t *testing.T) {
	sheet, _ := writeFixtures(t)
	var out bytes.Buffer
	require.NoError(t, RunRequired(context.Background(), &out, charsheet.New(), SheetOptions{SheetPath: sheet}))
	assert.Equal(t, "resilience\nspeed\nstrength\n", out.String())
}

func TestRunInspect(t *testing.T) {
	sheet, _ := writeFixtures(t)
	var out bytes.Buffer
	err := RunInspect(context.Background(), &out, charsheet.New(),
		SheetOptions{SheetPath: sheet, Sets: []string{"speed=3"}},
		InspectOptions{Mermaid: true, Plain: true})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "## Required user values")
	assert.Contains(t, text, "```mermaid")
	assert.Contains(t, text, "class resilience missing;")
	assert.Contains(t, text, "class speed changed;")
}

func TestOpenSheet_MissingFile(t *testing.T) {
	err := RunSet(context.Background(), &bytes.Buffer{}, charsheet.New(), SheetOptions{SheetPath: filepath.Join(t.TempDir(), "none.json")})
	assert.Error(t, err)
}

func TestNewServeHandler(t *testing.T) {
	cfg := config.Default()
	cfg.Page = filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(cfg.Page, []byte(testutils.SheetPage), 0644))

	handler, err := NewServeHandler(cfg, "1.0.0", logging.NewNop())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/sheets", strings.NewReader(testutils.SheetJSON)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/sheets/"+created["key"], nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "charsheet_synchronize_total 1")
}

func TestNewServeHandler_BadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Page = filepath.Join(t.TempDir(), "missing.html")
	_, err := NewServeHandler(cfg, "1.0.0", logging.NewNop())
	assert.Error(t, err)
}

func TestRunMCP_UnknownTransport(t *testing.T) {
	err := RunMCP(context.Background(), config.Default(), "carrier-pigeon", 0, "1.0.0", logging.NewNop())
	assert.ErrorContains(t, err, "unknown transport")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud")
	assert.Error(t, err)
}
