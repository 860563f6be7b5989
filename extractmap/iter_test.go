package extractmap_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/on-the-ground/extract_map_go/extractmap"
)

func sortedIDs(m *extractmap.Map[uint64, User]) []uint64 {
	var ids []uint64
	for u := range m.Iter() {
		ids = append(ids, u.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestIter_YieldsEveryValueOnce(t *testing.T) {
	m := extractmap.New[uint64, User]()
	for i := uint64(0); i < 10; i++ {
		m.Insert(User{ID: i, Name: "u"})
	}

	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, sortedIDs(m))
}

func TestIter_IsRestartable(t *testing.T) {
	m := extractmap.New[uint64, User]()
	m.Insert(User{ID: 1, Name: "a"})
	m.Insert(User{ID: 2, Name: "b"})

	seq := m.Iter()
	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	assert.Equal(t, 2, first)
	assert.Equal(t, 2, second)
}

func TestIter_EarlyBreak(t *testing.T) {
	m := extractmap.New[uint64, User]()
	for i := uint64(0); i < 10; i++ {
		m.Insert(User{ID: i, Name: "u"})
	}

	seen := 0
	for range m.Iter() {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
	assert.Equal(t, 10, m.Len())
}

func TestDrain_EmptiesTheMap(t *testing.T) {
	m := extractmap.New[uint64, User]()
	for i := uint64(0); i < 10; i++ {
		m.Insert(User{ID: i, Name: "u"})
	}

	var drained []uint64
	for u := range m.Drain() {
		drained = append(drained, u.ID)
	}
	assert.Len(t, drained, 10)
	assert.Equal(t, 0, m.Len())
	assert.True(t, m.IsEmpty())
}

func TestDrain_EarlyStopKeepsTheRest(t *testing.T) {
	m := extractmap.New[uint64, User]()
	for i := uint64(0); i < 10; i++ {
		m.Insert(User{ID: i, Name: "u"})
	}

	taken := 0
	for range m.Drain() {
		taken++
		if taken == 4 {
			break
		}
	}
	assert.Equal(t, 6, m.Len())
}

func TestIterMut_RewritingKeysMidTraversal(t *testing.T) {
	m := extractmap.New[uint64, User]()
	m.Insert(User{ID: 1, Name: "a"})
	m.Insert(User{ID: 2, Name: "b"})
	m.Insert(User{ID: 3, Name: "c"})

	it := m.IterMut()
	for {
		g, ok := it.Next()
		if !ok {
			break
		}
		g.Value().ID += 10
		g.Release()
	}

	// no duplicates, no lost entries, even though every key moved
	require.Equal(t, 3, m.Len())
	assert.Equal(t, []uint64{11, 12, 13}, sortedIDs(m))
}

func TestIterMut_NextReleasesPreviousGuard(t *testing.T) {
	m := extractmap.New[uint64, User]()
	m.Insert(User{ID: 1, Name: "a"})
	m.Insert(User{ID: 2, Name: "b"})

	it := m.IterMut()
	g1, ok := it.Next()
	require.True(t, ok)
	g1.Value().Name = "one"

	// stepping on without releasing: the cursor releases for us, so the
	// first value is back in the map with its mutation applied
	g2, ok := it.Next()
	require.True(t, ok)
	g2.Release()

	require.Equal(t, 2, m.Len())
	var names []string
	for u := range m.Iter() {
		names = append(names, u.Name)
	}
	assert.Contains(t, names, "one")
}

func TestIterMut_SkipsKeysRemovedSinceSnapshot(t *testing.T) {
	m := extractmap.New[uint64, User]()
	m.Insert(User{ID: 1, Name: "a"})
	m.Insert(User{ID: 2, Name: "b"})
	m.Insert(User{ID: 3, Name: "c"})

	it := m.IterMut()
	m.Remove(2)

	visited := 0
	for {
		g, ok := it.Next()
		if !ok {
			break
		}
		assert.NotEqual(t, uint64(2), g.Value().ID)
		visited++
		g.Release()
	}
	assert.Equal(t, 2, visited)
}

func TestForEachMut_VisitsAllWithAutoRelease(t *testing.T) {
	m := extractmap.New[uint64, User]()
	m.Insert(User{ID: 1, Name: "a"})
	m.Insert(User{ID: 2, Name: "b"})
	m.Insert(User{ID: 3, Name: "c"})

	m.ForEachMut(func(u *User) { u.ID += 10 })

	require.Equal(t, 3, m.Len())
	assert.Equal(t, []uint64{11, 12, 13}, sortedIDs(m))
}

func TestExtend_LastWriterWins(t *testing.T) {
	a := extractmap.New[uint64, User]()
	a.Insert(User{ID: 1, Name: "old"})

	b := extractmap.New[uint64, User]()
	b.Insert(User{ID: 1, Name: "new"})
	b.Insert(User{ID: 2, Name: "b"})

	a.Extend(b.Iter())
	assert.Equal(t, 2, a.Len())
	got, _ := a.Get(1)
	assert.Equal(t, "new", got.Name)
}
