package view

import (
	"github.com/lacunadb/lacuna/model"
)

type opKind uint8

const (
	opInsert opKind = iota
	opInsertRange
	opInsertFull
	opClear
	opRemoveValue
	opRemoveEntry
	opRemoveRange
	opPurge
	opSetMeta
)

// op is one queued logical mutation. Ops are applied twice, once per
// generation; every op must therefore be idempotent with respect to the
// values it captures (it holds the row handle, never reads back from a
// generation).
type op struct {
	kind opKind
	key  model.PointKey
	row  *model.Row
	vals []model.Value
	rng  model.RangeKey
	meta any
}

func (o op) apply(g *generation, partial bool) {
	switch o.kind {
	case opInsert:
		g.idx.InsertKeyed(o.key, o.row, partial)
	case opInsertRange:
		g.idx.InsertRange(o.rng)
	case opInsertFull:
		g.idx.InsertFullRange()
	case opClear:
		g.idx.Clear(o.key)
	case opRemoveValue:
		g.idx.RemoveKeyed(o.key, o.vals, nil)
	case opRemoveEntry:
		g.idx.Evict(o.key)
	case opRemoveRange:
		g.idx.EvictRange(o.rng)
	case opPurge:
		g.idx.Purge()
	case opSetMeta:
		g.meta = o.meta
	}
}
