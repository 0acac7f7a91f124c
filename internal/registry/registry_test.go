package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-rag/internal/models"
)

func doc(id, name string, at time.Time) models.DocumentInfo {
	return models.DocumentInfo{DocumentID: id, Filename: name, UploadDate: at, Status: models.StatusProcessed}
}

func TestRegistryAddGetRemove(t *testing.T) {
	r := New()
	now := time.Now()
	r.Add(doc("a", "policy.pdf", now))

	info, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "policy.pdf", info.Filename)
	assert.Equal(t, 1, r.Len())

	removed, ok := r.Remove("a")
	assert.True(t, ok)
	assert.Equal(t, "a", removed.DocumentID)

	_, ok = r.Get("a")
	assert.False(t, ok)
	_, ok = r.Remove("a")
	assert.False(t, ok)
}

func TestRegistryListOrdersByUploadDate(t *testing.T) {
	r := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Add(doc("c", "c.pdf", base.Add(2*time.Hour)))
	r.Add(doc("a", "a.pdf", base))
	r.Add(doc("b", "b.pdf", base.Add(time.Hour)))

	var ids []string
	for _, info := range r.List() {
		ids = append(ids, info.DocumentID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestRegistryResolveID(t *testing.T) {
	r := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Add(doc("old", "policy.pdf", base))
	r.Add(doc("new", "policy.pdf", base.Add(time.Minute)))
	r.Add(doc("other", "other.pdf", base))

	id, ok := r.ResolveID("other")
	assert.True(t, ok)
	assert.Equal(t, "other", id)

	id, ok = r.ResolveID("policy.pdf")
	assert.True(t, ok)
	assert.Equal(t, "new", id)

	_, ok = r.ResolveID("missing.pdf")
	assert.False(t, ok)
}

func TestRegistryClear(t *testing.T) {
	r := New()
	r.Add(doc("a", "a.pdf", time.Now()))
	r.Add(doc("b", "b.pdf", time.Now()))

	removed := r.Clear()
	assert.Len(t, removed, 2)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.List())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			r.Add(doc(id, id+".pdf", time.Now()))
			r.Get(id)
			r.List()
			r.ResolveID(id + ".pdf")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 26, r.Len())
}
