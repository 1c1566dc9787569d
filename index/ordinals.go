package index

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/lacunadb/lacuna/model"
)

// ordinalSet is a secondary registry of resident keys for the hashed
// backing. Each key gets a stable ordinal on first insert; the live
// ordinals live in a roaring bitmap so a random victim can be selected
// deterministically by rank, which Go map iteration cannot provide.
type ordinalSet struct {
	live  *roaring.Bitmap
	keys  map[uint32]model.PointKey
	byKey map[string]uint32
	next  uint32
}

func newOrdinalSet() *ordinalSet {
	return &ordinalSet{
		live:  roaring.New(),
		keys:  make(map[uint32]model.PointKey),
		byKey: make(map[string]uint32),
	}
}

func (o *ordinalSet) add(enc string, key model.PointKey) {
	if _, ok := o.byKey[enc]; ok {
		return
	}
	ord := o.next
	o.next++
	o.live.Add(ord)
	o.keys[ord] = key
	o.byKey[enc] = ord
}

func (o *ordinalSet) remove(enc string) {
	ord, ok := o.byKey[enc]
	if !ok {
		return
	}
	delete(o.byKey, enc)
	delete(o.keys, ord)
	o.live.Remove(ord)
}

// at returns the resident key of the given rank, in ordinal order.
func (o *ordinalSet) at(rank uint64) (model.PointKey, bool) {
	card := o.live.GetCardinality()
	if card == 0 {
		return nil, false
	}
	ord, err := o.live.Select(uint32(rank % card))
	if err != nil {
		return nil, false
	}
	return o.keys[ord], true
}

func (o *ordinalSet) reset() {
	o.live.Clear()
	clear(o.keys)
	clear(o.byKey)
}
