package index

import (
	"github.com/lacunadb/lacuna/model"
)

// hashedStore backs an index with a hash map keyed by the injective key
// encoding. There is no interval tracking: a key being resident is the only
// fill state a hashed backing can represent.
type hashedStore struct {
	entries map[string]*entry
	ords    *ordinalSet
	rows    int
}

func newHashedStore() *hashedStore {
	return &hashedStore{
		entries: make(map[string]*entry),
		ords:    newOrdinalSet(),
	}
}

func (h *hashedStore) get(key model.PointKey) (*entry, bool) {
	e, ok := h.entries[key.Encode()]
	return e, ok
}

func (h *hashedStore) put(key model.PointKey, e *entry) {
	enc := key.Encode()
	h.entries[enc] = e
	h.ords.add(enc, key)
}

func (h *hashedStore) delete(key model.PointKey) (*entry, bool) {
	enc := key.Encode()
	e, ok := h.entries[enc]
	if !ok {
		return nil, false
	}
	delete(h.entries, enc)
	h.ords.remove(enc)
	return e, true
}

func (h *hashedStore) reset() {
	clear(h.entries)
	h.ords.reset()
	h.rows = 0
}
