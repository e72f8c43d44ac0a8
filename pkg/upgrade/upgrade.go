// Package upgrade moves a snapshot between schema revisions of its own
// lineage. Each pass edits the snapshot in place.
package upgrade

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/charset"
	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/lock"
	"github.com/crystal-mush/mushconv/pkg/remap"
)

// t6hUpgraded are the TinyMUSH header bits an upgrade adds.
const t6hUpgraded = lineage.VTimestamps | lineage.VVisual

// Options select the target revision.
type Options struct {
	// Version is the schema to stop at. Zero means the newest for an
	// upgrade and the oldest for a downgrade.
	Version int

	Now func() time.Time
}

// Pass runs upgrades and downgrades.
type Pass struct {
	Log     *zap.Logger
	Options Options
}

// New returns a pass. A nil logger discards output.
func New(log *zap.Logger, opts Options) *Pass {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pass{Log: log, Options: opts}
}

func (p *Pass) target(snap *gamedb.Snapshot, up bool) (int, error) {
	l := snap.Lineage
	if _, ok := l.Version(snap.Version); !ok {
		return 0, fmt.Errorf("%s version %d is not supported", l.Name, snap.Version)
	}
	t := p.Options.Version
	if t == 0 {
		if up {
			t = l.Latest().Number
		} else {
			t = l.Oldest().Number
		}
	}
	if _, ok := l.Version(t); !ok {
		return 0, fmt.Errorf("%s has no version %d", l.Name, t)
	}
	if up && t < snap.Version {
		return 0, fmt.Errorf("cannot upgrade %s from version %d to %d", l.Name, snap.Version, t)
	}
	if !up && t > snap.Version {
		return 0, fmt.Errorf("cannot downgrade %s from version %d to %d", l.Name, snap.Version, t)
	}
	return t, nil
}

// Upgrade brings snap to the target revision and sets the optional header
// bits this tool knows how to fill.
func (p *Pass) Upgrade(snap *gamedb.Snapshot) error {
	target, err := p.target(snap, true)
	if err != nil {
		return err
	}
	switch snap.Lineage {
	case lineage.T5X:
		for snap.Version < target {
			switch snap.Version {
			case 2:
				p.attrKey(snap)
			case 3:
				p.transcode(snap, charset.Latin1ANSI, charset.UTF8PUA)
			}
			snap.Version++
			p.Log.Info("upgraded", zap.String("lineage", snap.Lineage.ID), zap.Int("version", snap.Version))
		}
	case lineage.T6H:
		p.fillTimestamps(snap)
		snap.HeaderFlags |= t6hUpgraded
		p.Log.Info("upgraded", zap.String("lineage", snap.Lineage.ID), zap.String("set", "V_TIMESTAMPS V_VISUALATTRS"))
	case lineage.R7H:
		snap.HeaderFlags |= lineage.VQuoted
		p.Log.Info("upgraded", zap.String("lineage", snap.Lineage.ID), zap.String("set", "V_QUOTED"))
	case lineage.P6H:
		p.transcode(snap, charset.Latin1ANSI, charset.PennMarkup)
		snap.HeaderFlags |= lineage.P6HUpgraded
		if !snap.HasHeader(gamedb.HeaderDBVersion) {
			snap.DBVersion = remap.PennDBVersion
			snap.SavedTime = p.Options.Now().UTC().Format(time.ANSIC)
			snap.Present |= gamedb.HeaderDBVersion | gamedb.HeaderSavedTime
		}
		p.Log.Info("upgraded", zap.String("lineage", snap.Lineage.ID), zap.String("set", "LABELS NEW_VERSIONS SPIFFY_AF_ANSI HEAR_CONNECT"))
	default:
		return fmt.Errorf("no upgrade pass for %s", snap.Lineage.Name)
	}
	return nil
}

// Downgrade takes snap back to the target revision and clears the header
// bits Upgrade sets.
func (p *Pass) Downgrade(snap *gamedb.Snapshot) error {
	target, err := p.target(snap, false)
	if err != nil {
		return err
	}
	switch snap.Lineage {
	case lineage.T5X:
		for snap.Version > target {
			switch snap.Version {
			case 4:
				p.transcode(snap, charset.UTF8PUA, charset.Latin1ANSI)
			case 3:
				p.headerKey(snap)
			}
			snap.Version--
			p.Log.Info("downgraded", zap.String("lineage", snap.Lineage.ID), zap.Int("version", snap.Version))
		}
	case lineage.T6H:
		snap.HeaderFlags &^= t6hUpgraded
		for _, o := range snap.Objects {
			o.Present &^= gamedb.FieldAccessed | gamedb.FieldModified
		}
		p.Log.Info("downgraded", zap.String("lineage", snap.Lineage.ID), zap.String("cleared", "V_TIMESTAMPS V_VISUALATTRS"))
	case lineage.R7H:
		p.Log.Info("nothing to downgrade", zap.String("lineage", snap.Lineage.ID))
	case lineage.P6H:
		p.transcode(snap, charset.PennMarkup, charset.Latin1ANSI)
		snap.HeaderFlags &^= lineage.DBFSpiffyAFAnsi
		p.Log.Info("downgraded", zap.String("lineage", snap.Lineage.ID), zap.String("cleared", "SPIFFY_AF_ANSI"))
	default:
		return fmt.Errorf("no downgrade pass for %s", snap.Lineage.Name)
	}
	return nil
}

// attrKey moves each header lock into attribute 42.
func (p *Pass) attrKey(snap *gamedb.Snapshot) {
	moved := 0
	for _, ref := range snap.Refs() {
		o := snap.Objects[ref]
		key, text := o.Lock, o.LockText
		o.Lock, o.LockText = nil, ""
		o.Present &^= gamedb.FieldLock
		if key == nil {
			if text != "" {
				p.Log.Warn("lock did not parse, dropped", zap.Int("object", int(ref)), zap.String("text", text))
			}
			continue
		}
		if o.Attr(lineage.DefaultLockAttr) != nil {
			continue
		}
		o.Attrs = append(o.Attrs, &gamedb.Attribute{
			Number: lineage.DefaultLockAttr,
			Name:   snap.AttrName(lineage.DefaultLockAttr),
			Owner:  o.Owner,
			Value:  lock.Write(key),
			IsLock: true,
			Lock:   key,
		})
		moved++
	}
	snap.HeaderFlags |= lineage.VAtrKey
	p.Log.Info("moved header locks to attributes", zap.Int("locks", moved))
}

// headerKey moves attribute 42 back into the object header.
func (p *Pass) headerKey(snap *gamedb.Snapshot) {
	for _, ref := range snap.Refs() {
		o := snap.Objects[ref]
		o.Mark(gamedb.FieldLock)
		a := o.Attr(lineage.DefaultLockAttr)
		if a == nil {
			continue
		}
		o.RemoveAttr(lineage.DefaultLockAttr)
		if a.Lock == nil {
			if a.Value != "" {
				p.Log.Warn("lock did not parse, dropped", zap.Int("object", int(ref)), zap.String("text", a.Value))
			}
			continue
		}
		text, err := lock.WriteLegacy(a.Lock)
		if err != nil {
			p.Log.Warn("lock cannot be expressed, dropped", zap.Int("object", int(ref)),
				zap.String("text", a.Value), zap.Error(err))
			continue
		}
		o.Lock, o.LockText = a.Lock, text
	}
	snap.HeaderFlags &^= lineage.VAtrKey
}

// transcode rewrites object names and attribute text. Lock keys are left
// alone.
func (p *Pass) transcode(snap *gamedb.Snapshot, from, to charset.Encoding) {
	changed := 0
	conv := func(s string) string {
		out := charset.Transcode(s, from, to)
		if out != s {
			changed++
		}
		return out
	}
	for _, o := range snap.Objects {
		o.Name = conv(o.Name)
		for _, a := range o.Attrs {
			if a.IsLock {
				continue
			}
			a.Value = conv(a.Value)
		}
	}
	p.Log.Info("transcoded text", zap.String("from", describe(from)), zap.String("to", describe(to)),
		zap.Int("changed", changed))
}

func describe(e charset.Encoding) string {
	if e.UTF8 {
		return "utf-8/" + e.Color.String()
	}
	return "latin-1/" + e.Color.String()
}

// fillTimestamps gives every object without access and modification times
// the current time.
func (p *Pass) fillTimestamps(snap *gamedb.Snapshot) {
	now := p.Options.Now().Unix()
	filled := 0
	for _, o := range snap.Objects {
		if !o.Has(gamedb.FieldModified) {
			o.Modified = now
			o.Mark(gamedb.FieldModified)
			filled++
		}
		if !o.Has(gamedb.FieldAccessed) {
			o.Accessed = o.Modified
			o.Mark(gamedb.FieldAccessed)
		}
		if snap.HeaderFlags&lineage.VCreateTime != 0 && !o.Has(gamedb.FieldCreated) {
			o.Created = o.Modified
			o.Mark(gamedb.FieldCreated)
		}
	}
	if filled > 0 {
		p.Log.Info("filled missing timestamps", zap.Int("objects", filled))
	}
}
