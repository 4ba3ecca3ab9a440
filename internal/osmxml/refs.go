package osmxml

import (
	"iter"

	"github.com/paulmach/osm"
)

// WayRefs yields node ids from last up to -1. Ids are assigned downward
// from -1, so this walks the rows from the last one back to the first.
// With emittedOnly set, ids listed in skipped are left out; skipped must
// be in assignment order (descending).
func WayRefs(last osm.NodeID, skipped []osm.NodeID, emittedOnly bool) iter.Seq[osm.NodeID] {
	return func(yield func(osm.NodeID) bool) {
		next := len(skipped) - 1
		for id := last; id < 0; id++ {
			if emittedOnly {
				for next >= 0 && skipped[next] < id {
					next--
				}
				if next >= 0 && skipped[next] == id {
					next--
					continue
				}
			}
			if !yield(id) {
				return
			}
		}
	}
}
