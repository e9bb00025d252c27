package gc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gc "github.com/shadowgc/shadowgc"
	"github.com/shadowgc/shadowgc/gcconfig"
)

type tracked struct {
	id  int
	log *[]int
}

func (tracked) GCTrace(v *gc.Visitor) {}

func (t tracked) GCFinalize() {
	*t.log = append(*t.log, t.id)
}

func TestFinalizerRunsExactlyOnceOnCollection(t *testing.T) {
	var log []int
	g := gc.New(gcconfig.Default())

	gc.Run(g, func(s *gc.Scope) struct{} {
		_, err := gc.Alloc(s, tracked{id: 1, log: &log})
		require.NoError(t, err)
		return struct{}{}
	})

	require.NoError(t, g.CollectAll())
	assert.Equal(t, []int{1}, log)

	require.NoError(t, g.CollectAll())
	assert.Equal(t, []int{1}, log, "a finalizer must never run twice for the same object")
}

func TestFinalizerDoesNotRunForLiveObjects(t *testing.T) {
	var log []int
	g := gc.New(gcconfig.Default())

	gc.Run(g, func(s *gc.Scope) struct{} {
		_, err := gc.Alloc(s, tracked{id: 1, log: &log})
		require.NoError(t, err)
		require.NoError(t, g.CollectAll())
		assert.Empty(t, log, "an object still rooted by a live handle must not be finalized")
		return struct{}{}
	})
}

func TestCloseRunsFinalizers(t *testing.T) {
	var log []int
	g := gc.New(gcconfig.Default())

	gc.Run(g, func(s *gc.Scope) struct{} {
		_, err := gc.Alloc(s, tracked{id: 7, log: &log})
		require.NoError(t, err)
		return struct{}{}
	})

	g.Close()
	assert.Equal(t, []int{7}, log)
}
