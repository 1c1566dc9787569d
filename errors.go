package lacuna

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lacunadb/lacuna/model"
	"github.com/lacunadb/lacuna/view"
)

var (
	// ErrNotReady is returned by reads against a map that has never been
	// published. Recoverable: retry after the first Publish.
	ErrNotReady = view.ErrNotReady

	// ErrClosed is returned once the map has been closed.
	ErrClosed = view.ErrClosed

	// ErrBudgetExceeded is returned by Admit when the requested bytes do
	// not fit the memory budget and nothing is left to evict.
	ErrBudgetExceeded = errors.New("memory budget exceeded")
)

// ErrUnfilled indicates that a replayed lookup still missed after the
// fill function ran for every reported gap the allowed number of times.
//
// The fill error (if any) can be accessed via errors.Unwrap.
type ErrUnfilled struct {
	Key    model.PointKey   // set for point lookups
	Misses []model.RangeKey // set for range lookups
	cause  error
}

func (e *ErrUnfilled) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("key %s still missing after fill", e.Key)
	}
	parts := make([]string, len(e.Misses))
	for i, m := range e.Misses {
		parts[i] = m.String()
	}
	return fmt.Sprintf("ranges still missing after fill: %s", strings.Join(parts, ", "))
}

func (e *ErrUnfilled) Unwrap() error { return e.cause }
