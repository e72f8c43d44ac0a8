// Package remap converts a snapshot from one lineage to another. Objects,
// flags, powers, attributes and locks are carried across by their neutral
// meaning; whatever has no equivalent in the target is dropped and counted.
package remap

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/lock"
)

// DefaultCacheSize bounds the converted-lock cache.
const DefaultCacheSize = 4096

// Options tune a conversion.
type Options struct {
	// SyntheticPrefix is prepended to attribute names that collide with a
	// target built-in. Defaults to "X".
	SyntheticPrefix string

	// CacheSize bounds the number of converted lock keys kept. Zero uses
	// DefaultCacheSize.
	CacheSize int

	// Now stamps savedtime on PennMUSH output. Defaults to time.Now.
	Now func() time.Time
}

// Stats counts what a conversion carried and what it lost.
type Stats struct {
	ObjectsIn      int `json:"objects_in"`
	ObjectsOut     int `json:"objects_out"`
	ObjectsDropped int `json:"objects_dropped"`

	FlagsDropped  int `json:"flags_dropped"`
	PowersDropped int `json:"powers_dropped"`

	AttrsCarried  int `json:"attrs_carried"`
	AttrsRenamed  int `json:"attrs_renamed"`
	AttrsMerged   int `json:"attrs_merged"`
	AttrsCollided int `json:"attrs_collided"`
	AttrsDropped  int `json:"attrs_dropped"`

	LocksConverted int `json:"locks_converted"`
	LocksFailed    int `json:"locks_failed"`
	LocksDropped   int `json:"locks_dropped"`
}

func (s *Stats) add(o *Stats) {
	s.ObjectsDropped += o.ObjectsDropped
	s.FlagsDropped += o.FlagsDropped
	s.PowersDropped += o.PowersDropped
	s.AttrsCarried += o.AttrsCarried
	s.AttrsRenamed += o.AttrsRenamed
	s.AttrsMerged += o.AttrsMerged
	s.AttrsCollided += o.AttrsCollided
	s.AttrsDropped += o.AttrsDropped
	s.LocksConverted += o.LocksConverted
	s.LocksFailed += o.LocksFailed
	s.LocksDropped += o.LocksDropped
}

// Converter translates snapshots between two lineages.
type Converter struct {
	From, To *lineage.Lineage
	Log      *zap.Logger
	Options  Options

	cache *lru.Cache[cacheKey, *lock.Node]
}

type cacheKey struct {
	from, to string
	text     string
}

// New returns a converter with default options.
func New(from, to *lineage.Lineage, log *zap.Logger) *Converter {
	return &Converter{From: from, To: to, Log: log}
}

func (c *Converter) init() error {
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
	if c.Options.SyntheticPrefix == "" {
		c.Options.SyntheticPrefix = "X"
	}
	if c.Options.Now == nil {
		c.Options.Now = time.Now
	}
	if c.cache == nil {
		size := c.Options.CacheSize
		if size <= 0 {
			size = DefaultCacheSize
		}
		cache, err := lru.New[cacheKey, *lock.Node](size)
		if err != nil {
			return fmt.Errorf("lock cache: %w", err)
		}
		c.cache = cache
	}
	return nil
}

// Convert builds a new snapshot in the target lineage. The source is never
// modified. Pairs without a direct path go through the hub lineage.
func (c *Converter) Convert(src *gamedb.Snapshot) (*gamedb.Snapshot, *Stats, error) {
	if src.Lineage != c.From {
		return nil, nil, fmt.Errorf("snapshot is %s, converter expects %s", src.Lineage.Name, c.From.Name)
	}
	route := lineage.Route(c.From, c.To)
	if len(route) == 0 {
		return nil, nil, fmt.Errorf("source and target are both %s", c.From.Name)
	}
	if err := c.init(); err != nil {
		return nil, nil, err
	}

	total := &Stats{ObjectsIn: len(src.Objects)}
	cur := src
	for _, step := range route {
		if len(route) > 1 {
			c.Log.Info("conversion hop", zap.String("from", step[0].ID), zap.String("to", step[1].ID))
		}
		h := newHop(c, cur, step[0], step[1])
		next, err := h.run()
		if err != nil {
			return nil, nil, fmt.Errorf("%s to %s: %w", step[0].ID, step[1].ID, err)
		}
		total.add(h.stats)
		cur = next
	}
	total.ObjectsOut = len(cur.Objects)
	return cur, total, nil
}

// TargetHeader is the version and header bits converted output is written
// with: the newest schema plus the optional bits that carry the most data.
func TargetHeader(l *lineage.Lineage) (int, uint32) {
	v := l.Latest()
	flags := v.Mandatory
	switch l {
	case lineage.T6H:
		flags |= lineage.VTimestamps | lineage.VCreateTime | lineage.VVisual
	case lineage.R7H:
		flags |= lineage.VQuoted
	case lineage.P6H:
		flags |= lineage.P6HUpgraded
	}
	return v.Number, flags
}
