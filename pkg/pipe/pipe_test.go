package pipe_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/charsheet/pkg/adapters/memory"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/pipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	calls  int
	values []any
}

func (c *counter) observe(_ context.Context, v any) {
	c.calls++
	c.values = append(c.values, v)
}

func TestSource_NoDeliveryOnSubscribe(t *testing.T) {
	src := pipe.NewSource(map[string]any{"a": 1.0})
	var c counter
	src.Subscribe(c.observe)
	assert.Equal(t, 0, c.calls)
}

func TestSource_EqualUpdateIsDropped(t *testing.T) {
	src := pipe.NewSource(map[string]any{"a": 1.0})
	var c counter
	src.Subscribe(c.observe)

	require.NoError(t, src.Update(context.Background(), map[string]any{"a": 1.0}))
	assert.Equal(t, 0, c.calls)

	require.NoError(t, src.Update(context.Background(), map[string]any{"a": 2.0}))
	assert.Equal(t, 1, c.calls)
}

func TestNestedPick_OneNotificationPerSubscriber(t *testing.T) {
	ctx := context.Background()
	src := pipe.NewSource(map[string]any{"a": map[string]any{"b": 1, "c": "keep"}})
	a := src.Pick("a")
	b := a.Pick("b")

	var rootC, aC, bC counter
	src.Subscribe(rootC.observe)
	a.Subscribe(aC.observe)
	b.Subscribe(bC.observe)

	require.NoError(t, b.Update(ctx, 5))

	assert.Equal(t, 1, rootC.calls)
	assert.Equal(t, 1, aC.calls)
	assert.Equal(t, 1, bC.calls)
	assert.Equal(t, []any{5}, bC.values)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": 5, "c": "keep"}}, src.Get())
}

func TestPick_MissingFieldReadsNil(t *testing.T) {
	src := pipe.NewSource(map[string]any{"a": 1})
	assert.Nil(t, src.PickPath("x.y").Get())
	assert.Nil(t, src.Pick("a").Pick("b").Get())
}

func TestPick_UpdateCreatesMissingParents(t *testing.T) {
	src := pipe.NewSource(map[string]any{})
	require.NoError(t, src.PickPath("details.name").Update(context.Background(), "Blizzard"))
	assert.Equal(t, "Blizzard", src.PickPath("details.name").Get())
}

func TestUnsubscribe(t *testing.T) {
	src := pipe.NewSource(map[string]any{"a": 1})
	var c counter
	stop := src.Subscribe(c.observe)
	stop()
	require.NoError(t, src.Update(context.Background(), map[string]any{"a": 2}))
	assert.Equal(t, 0, c.calls)
	assert.Same(t, src, src.PickPath("a.b").Root())
}

func TestMergePolicies(t *testing.T) {
	cur := map[string]any{"a": map[string]any{"x": 1, "y": 2}, "b": 1}
	upd := map[string]any{"a": map[string]any{"x": 9}}

	assert.Equal(t, map[string]any{"a": map[string]any{"x": 9}, "b": 1}, pipe.ShallowMerge(cur, upd))
	assert.Equal(t, map[string]any{"a": map[string]any{"x": 9, "y": 2}, "b": 1}, pipe.DeepMerge(cur, upd))
	assert.Equal(t, upd, pipe.Replace(cur, upd))
	assert.Equal(t, cur, pipe.Replace(cur, nil))

	// inputs are untouched
	assert.Equal(t, map[string]any{"a": map[string]any{"x": 1, "y": 2}, "b": 1}, cur)
}

// levels caps the sum of magic and martial at ten and derives the total.
func levels(current, update any) any {
	merged, _ := pipe.DeepMerge(current, update).(map[string]any)
	out := make(map[string]any, len(merged))
	for k, v := range merged {
		out[k] = v
	}
	lv, _ := out["levels"].(map[string]any)
	magic, _ := lv["magic"].(float64)
	martial, _ := lv["martial"].(float64)
	if magic+martial > 10 {
		martial = 10 - magic
	}
	out["levels"] = map[string]any{"magic": magic, "martial": martial, "total": magic + martial}
	return out
}

func TestLoadSource_PersistsWithoutComputedFields(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	fallback := map[string]any{"levels": map[string]any{"magic": 3.0, "martial": 2.0}}
	src, err := pipe.LoadSource(ctx, store, "char", fallback,
		pipe.WithMerge(levels), pipe.WithComputed("levels.total"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, src.PickPath("levels.total").Get(), "computed on load")

	total := src.PickPath("levels.total")
	var c counter
	total.Subscribe(c.observe)

	require.NoError(t, src.PickPath("levels.martial").Update(ctx, 9.0))
	assert.Equal(t, []any{10.0}, c.values)

	rec, err := store.Load(ctx, "char")
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(rec.Data, &saved))
	assert.Equal(t, map[string]any{"levels": map[string]any{"magic": 3.0, "martial": 7.0}}, saved)

	reloaded, err := pipe.LoadSource(ctx, store, "char", nil,
		pipe.WithMerge(levels), pipe.WithComputed("levels.total"))
	require.NoError(t, err)
	assert.Equal(t, 10.0, reloaded.PickPath("levels.total").Get())
}

type failingStore struct {
	*memory.Store
}

func (failingStore) Save(context.Context, string, *domain.Record) error {
	return errors.New("disk full")
}

func TestUpdate_ReportsPersistenceFailureAfterAccepting(t *testing.T) {
	ctx := context.Background()
	src := pipe.NewSource(map[string]any{"a": 1.0}, pipe.WithStore(failingStore{memory.NewStore()}, "x"))
	var c counter
	src.Subscribe(c.observe)

	err := src.Update(ctx, map[string]any{"a": 2.0})
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, 2.0, src.Pick("a").Get())
}

func TestDetach(t *testing.T) {
	src := pipe.NewSource(map[string]any{"a": 1})
	a := src.Pick("a")
	var c counter
	a.Subscribe(c.observe)

	a.Detach()
	a.Detach()
	src.Detach()
	require.NoError(t, src.Update(context.Background(), map[string]any{"a": 2}))
	assert.Equal(t, 0, c.calls)
	assert.Equal(t, 2, a.Get(), "reads still pull through the chain")
}
