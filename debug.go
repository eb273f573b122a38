package arbor

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// debugStats holds per-frame timing and culling metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	updateTime   time.Duration
	reindexTime  time.Duration
	cullTime     time.Duration
	reindexed    int
	visibleCount int
	cellCount    int
	depth        int
}

// debugLog writes update stats at debug level.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	s.logger.Debug("scene update",
		zap.Duration("update", stats.updateTime),
		zap.Duration("reindex", stats.reindexTime),
		zap.Duration("cull", stats.cullTime),
		zap.Int("reindexed", stats.reindexed),
		zap.Int("visible", stats.visibleCount),
		zap.Int("cells", stats.cellCount),
		zap.Int("depth", stats.depth),
	)
}

// debugCheckDestroyed panics with a descriptive message when a destroyed node
// is used in a tree operation. Only called in debug mode.
func debugCheckDestroyed(n *Node, op string) {
	if n.destroyed || n.destroying {
		panic(fmt.Sprintf("arbor debug: %s on destroyed node %q (ID was %d)", op, n.Name, n.ID))
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(s *Scene, n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		s.logger.Warn("tree depth exceeds threshold",
			zap.String("node", n.Name),
			zap.Int("depth", depth),
			zap.Int("threshold", debugMaxTreeDepth))
	}
}

// debugCheckChildCount warns if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(s *Scene, n *Node) {
	if c := len(n.children.live); c > debugMaxChildCount {
		s.logger.Warn("child count exceeds threshold",
			zap.String("node", n.Name),
			zap.Int("children", c),
			zap.Int("threshold", debugMaxChildCount))
	}
}
