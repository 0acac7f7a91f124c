package registry

import (
	"sort"
	"sync"

	"policy-rag/internal/models"
)

// Registry tracks the documents ingested by this process
type Registry struct {
	mu   sync.RWMutex
	docs map[string]models.DocumentInfo
}

func New() *Registry {
	return &Registry{docs: make(map[string]models.DocumentInfo)}
}

// Add stores info, replacing any entry with the same document id
func (r *Registry) Add(info models.DocumentInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[info.DocumentID] = info
}

func (r *Registry) Get(id string) (models.DocumentInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.docs[id]
	return info, ok
}

// List returns all documents, oldest upload first
func (r *Registry) List() []models.DocumentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.DocumentInfo, 0, len(r.docs))
	for _, info := range r.docs {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadDate.Equal(out[j].UploadDate) {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].UploadDate.Before(out[j].UploadDate)
	})
	return out
}

func (r *Registry) Remove(id string) (models.DocumentInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.docs[id]
	if ok {
		delete(r.docs, id)
	}
	return info, ok
}

// ResolveID maps a document id or an uploaded filename to a document id.
// When several uploads share a filename the most recent one wins.
func (r *Registry) ResolveID(idOrFilename string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.docs[idOrFilename]; ok {
		return idOrFilename, true
	}

	var found models.DocumentInfo
	ok := false
	for _, info := range r.docs {
		if info.Filename != idOrFilename {
			continue
		}
		if !ok || info.UploadDate.After(found.UploadDate) {
			found, ok = info, true
		}
	}
	return found.DocumentID, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

// Clear forgets every document and returns what was removed
func (r *Registry) Clear() []models.DocumentInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.DocumentInfo, 0, len(r.docs))
	for _, info := range r.docs {
		out = append(out, info)
	}
	r.docs = make(map[string]models.DocumentInfo)
	return out
}
