package reel

import (
	"fmt"
	"time"

	"github.com/petermattis/goid"
	"go.uber.org/zap"
)

// DefaultGCThreshold is the number of registrations that must accumulate
// since the previous run before Collect does any work.
const DefaultGCThreshold = 50

// GCMark carries the reachability bit of a Resource. Embed it in every type
// registered with a Collector.
type GCMark struct {
	reachable bool
}

func (m *GCMark) gcMark() *GCMark { return m }

// Reachable reports whether the resource was reached by the current mark
// phase.
func (m *GCMark) Reachable() bool { return m.reachable }

// Resource is anything the Collector traces. Every resource reachable from
// the roots must itself be registered, or its mark bit is never cleared.
type Resource interface {
	gcMark() *GCMark

	// MarkReachableResources calls SetReachable on every resource the
	// receiver references.
	MarkReachableResources()

	// Destroy releases the resource. The Collector calls it at most once.
	Destroy()
}

// Marker visits a set of roots. The Stage is the Collector's Marker.
type Marker interface {
	MarkReachableResources()
}

// SetReachable marks r and, the first time it is reached in a cycle,
// everything it references.
func SetReachable(r Resource) {
	m := r.gcMark()
	if m.reachable {
		return
	}
	m.reachable = true
	r.MarkReachableResources()
}

// CollectStats summarizes collector activity.
type CollectStats struct {
	Runs      int
	Tracked   int
	Swept     int // total across all runs
	LastRun   time.Duration
	LastSwept int
}

// Collector is a mark/sweep collector over registered resources. It is not
// safe for concurrent use: every call must come from the goroutine that
// created it.
type Collector struct {
	roots     Marker
	resources []Resource
	pending   int
	threshold int
	owner     int64
	log       *zap.Logger
	stats     CollectStats
}

// NewCollector creates a collector tracing from roots. A threshold <= 0
// selects DefaultGCThreshold.
func NewCollector(roots Marker, threshold int, log *zap.Logger) *Collector {
	if threshold <= 0 {
		threshold = DefaultGCThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{
		roots:     roots,
		threshold: threshold,
		owner:     goid.Get(),
		log:       log,
	}
}

// Register adds r to the tracked set.
func (c *Collector) Register(r Resource) {
	c.resources = append(c.resources, r)
	c.pending++
}

// Len returns the number of tracked resources.
func (c *Collector) Len() int { return len(c.resources) }

// Stats returns a snapshot of collector activity.
func (c *Collector) Stats() CollectStats {
	s := c.stats
	s.Tracked = len(c.resources)
	return s
}

// Collect runs a full mark and sweep if more than the threshold of new
// resources were registered since the last run. It returns the number of
// resources destroyed.
func (c *Collector) Collect() int {
	if c.pending <= c.threshold {
		return 0
	}
	return c.ForceCollect()
}

// ForceCollect runs a full mark and sweep regardless of the threshold.
func (c *Collector) ForceCollect() int {
	if g := goid.Get(); g != c.owner {
		panic(fmt.Sprintf("reel: collector used from goroutine %d, owned by %d", g, c.owner))
	}
	start := time.Now()

	if c.roots != nil {
		c.roots.MarkReachableResources()
	}

	var dead []Resource
	live := c.resources[:0]
	for _, r := range c.resources {
		m := r.gcMark()
		if m.reachable {
			m.reachable = false
			live = append(live, r)
			continue
		}
		dead = append(dead, r)
	}
	clear(c.resources[len(live):])
	c.resources = live
	c.pending = 0

	// Destructors run only after the tracked set has been rebuilt.
	for _, r := range dead {
		r.Destroy()
	}

	c.stats.Runs++
	c.stats.Swept += len(dead)
	c.stats.LastSwept = len(dead)
	c.stats.LastRun = time.Since(start)
	c.log.Debug("collect",
		zap.Int("swept", len(dead)),
		zap.Int("live", len(live)),
		zap.Duration("took", c.stats.LastRun))
	return len(dead)
}
