package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string   { return &s }
func f64(f float64) *float64 { return &f }
func boolp(b bool) *bool     { return &b }

func TestJoinAppliesDefaults(t *testing.T) {
	reg := NewRegistry()

	rec := reg.Join("abcd1234", Update{})
	assert.Equal(t, "Playerabcd", rec.Name)
	assert.Equal(t, "down", rec.Direction)
	assert.Equal(t, "main", rec.CurrentMap)
	assert.Equal(t, "idle", rec.Animation)
	assert.Equal(t, "game2d", rec.GameType)
	assert.Equal(t, 0.0, rec.X)
	assert.False(t, rec.InTavern)
}

func TestJoinKeepsProvidedFields(t *testing.T) {
	reg := NewRegistry()

	rec := reg.Join("p1", Update{Name: str("Alice"), X: f64(12), Direction: str("left")})
	assert.Equal(t, "Alice", rec.Name)
	assert.Equal(t, 12.0, rec.X)
	assert.Equal(t, "left", rec.Direction)
	assert.Equal(t, "main", rec.CurrentMap, "unset fields still default")
}

func TestRejoinOverwrites(t *testing.T) {
	reg := NewRegistry()
	reg.Join("p1", Update{Name: str("Alice"), X: f64(50)})

	rec := reg.Join("p1", Update{Name: str("Alice")})
	assert.Equal(t, 0.0, rec.X, "a fresh join does not carry old state")
	assert.Equal(t, 1, reg.Len())
}

func TestUpdateMergesPartially(t *testing.T) {
	reg := NewRegistry()
	reg.Join("p1", Update{Name: str("Alice"), X: f64(10), Y: f64(20)})

	rec, ok := reg.Update("p1", Update{X: f64(33), InTavern: boolp(true)})
	require.True(t, ok)
	assert.Equal(t, 33.0, rec.X)
	assert.Equal(t, 20.0, rec.Y, "omitted field keeps its value")
	assert.Equal(t, "Alice", rec.Name)
	assert.True(t, rec.InTavern)
}

func TestUpdateUnknownIsNoOp(t *testing.T) {
	reg := NewRegistry()

	rec, ok := reg.Update("ghost", Update{X: f64(1)})
	assert.False(t, ok)
	assert.Nil(t, rec)
	assert.Equal(t, 0, reg.Len())
}

func TestRemove(t *testing.T) {
	reg := NewRegistry()
	reg.Join("p1", Update{})

	assert.True(t, reg.Remove("p1"))
	assert.False(t, reg.Remove("p1"))

	_, ok := reg.Get("p1")
	assert.False(t, ok)
}

func TestListKeepsJoinOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Join("p1", Update{})
	reg.Join("p2", Update{})
	reg.Join("p3", Update{})
	reg.Remove("p2")
	reg.Join("p4", Update{})

	ids := []string{}
	for _, rec := range reg.List() {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"p1", "p3", "p4"}, ids)
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "Playerab", DefaultName("ab"))
	assert.Equal(t, "Playerabcd", DefaultName("abcdef"))
}
