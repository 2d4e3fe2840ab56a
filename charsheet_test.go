package charsheet_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/charsheet"
	"github.com/aretw0/charsheet/internal/testutils"
	"github.com/aretw0/charsheet/pkg/adapters/memory"
	"github.com/aretw0/charsheet/pkg/dom"
	"github.com/aretw0/charsheet/pkg/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHost_RendererWithDocumentSource(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	host := charsheet.New(charsheet.WithStore(store))

	notes, err := host.OpenDocument(ctx, "notes", map[string]any{"details": map[string]any{"name": "Blizzard"}})
	require.NoError(t, err)

	r, err := host.NewRenderer(ctx, []byte(testutils.SheetJSON), renderer.WithDocument(notes))
	require.NoError(t, err)
	defer r.Close(ctx)

	page := testutils.ParsePage(t, `<html><body><div data-cs-root>
		<input id="name" data-cs-bind-doc="details.name">
		<input id="strength" data-cs-bind-user-input-strength>
	</div></body></html>`)
	require.NoError(t, r.BindToDom(ctx, page.Body()))

	assert.Equal(t, "Blizzard", testutils.MustGet(t, page, "name").Property(dom.PropValue))
	assert.Equal(t, "10", testutils.MustGet(t, page, "strength").Property(dom.PropValue))

	testutils.MustGet(t, page, "name").Input(ctx, "Frost")
	rec, err := store.Load(ctx, "notes")
	require.NoError(t, err)
	assert.JSONEq(t, `{"details":{"name":"Frost"}}`, string(rec.Data))
}

func TestHost_Sessions(t *testing.T) {
	ctx := context.Background()
	host := charsheet.New(charsheet.WithPage(testutils.SheetPage))
	mgr := host.Sessions()

	key, err := mgr.Create(ctx, []byte(testutils.SheetJSON))
	require.NoError(t, err)

	_, err = host.Store().Load(ctx, key)
	assert.NoError(t, err, "session snapshots go to the host store")
	assert.NotNil(t, host.Engine())
}

func TestVersion(t *testing.T) {
	assert.Regexp(t, `^\d+\.\d+\.\d+$`, strings.TrimSpace(charsheet.Version))
}
