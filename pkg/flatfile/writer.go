package flatfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/lock"
)

// Write writes the snapshot in its lineage's flatfile format. Fields are
// emitted as the header flags dictate; the snapshot is not modified.
func Write(w io.Writer, snap *gamedb.Snapshot) error {
	wr := &writer{w: w, snap: snap, lin: snap.Lineage, flags: snap.HeaderFlags}
	if wr.lin.Named {
		wr.writePenn()
		return wr.err
	}

	wr.writef("+%c%d\n", wr.lin.Tag, snap.HeaderValue())
	if snap.HasHeader(gamedb.HeaderSize) {
		wr.writef("+S%d\n", snap.Size)
	}
	if snap.HasHeader(gamedb.HeaderNextAttr) {
		wr.writef("+N%d\n", snap.NextAttr)
	}
	for _, def := range snap.UserAttrs() {
		wr.writef("+A%d\n%s\n", def.Number, wr.str(strconv.FormatUint(uint64(def.Flags), 10)+":"+def.Name))
	}
	if snap.HasHeader(gamedb.HeaderRecordPlayers) {
		wr.writef("-R%d\n", snap.RecordPlayers)
	}

	for _, ref := range snap.Refs() {
		if err := wr.writeObject(snap.Objects[ref]); err != nil {
			return fmt.Errorf("writing object #%d: %w", ref, err)
		}
	}

	wr.writef("%s\n", EndOfDump)
	return wr.err
}

// Save writes the snapshot to a file path. The file is written under a
// temporary name and renamed into place, so a failed write leaves any
// existing file untouched.
func Save(path string, snap *gamedb.Snapshot) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	if err := Write(f, snap); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// On Windows, may need to remove target first
		os.Remove(path)
		if err := os.Rename(tmpPath, path); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("rename temp to final: %w", err)
		}
	}

	return nil
}

type writer struct {
	w     io.Writer
	snap  *gamedb.Snapshot
	lin   *lineage.Lineage
	flags uint32
	err   error
}

func (wr *writer) writef(format string, args ...interface{}) {
	if wr.err != nil {
		return
	}
	_, wr.err = fmt.Fprintf(wr.w, format, args...)
}

func (wr *writer) has(v uint32) bool { return wr.flags&v != 0 }

// str renders a string field in the file's quoting style.
func (wr *writer) str(s string) string {
	if wr.lin.Named || wr.has(lineage.VQuoted) {
		return quoteString(s, wr.lin.QuoteControls)
	}
	return plainString(s)
}

func (wr *writer) writeObject(obj *gamedb.Object) error {
	wr.writef("!%d\n", obj.DBRef)

	wr.writef("%s\n", wr.str(obj.Name))
	wr.writef("%d\n", obj.Location)
	if wr.has(lineage.VZone) {
		wr.writef("%d\n", obj.Zone)
	}
	wr.writef("%d\n", obj.Contents)
	wr.writef("%d\n", obj.Exits)
	if wr.has(lineage.VLink) {
		wr.writef("%d\n", obj.Link)
	}
	wr.writef("%d\n", obj.Next)

	if !wr.has(lineage.VAtrKey) {
		key := obj.LockText
		if obj.Lock != nil {
			k, err := lock.WriteLegacy(wr.attrNumbers(obj.Lock))
			if err != nil {
				return err
			}
			key = k
		}
		wr.writef("%s\n", key)
	}

	wr.writef("%d\n", obj.Owner)
	if wr.has(lineage.VParent) {
		wr.writef("%d\n", obj.Parent)
	}
	if !wr.has(lineage.VAtrMoney) {
		wr.writef("%d\n", obj.Pennies)
	}

	wr.writef("%d\n", obj.Flags[0])
	if wr.has(lineage.VXFlags) {
		wr.writef("%d\n", obj.Flags[1])
	}
	if wr.has(lineage.V3Flags) {
		wr.writef("%d\n", obj.Flags[2])
	}
	if wr.has(lineage.VPowers) {
		wr.writef("%d\n", obj.Powers[0])
		wr.writef("%d\n", obj.Powers[1])
	}
	if wr.has(lineage.VTimestamps) {
		wr.writef("%d\n", obj.Accessed)
		wr.writef("%d\n", obj.Modified)
	}
	if wr.has(lineage.VCreateTime) {
		wr.writef("%d\n", obj.Created)
	}

	for _, attr := range obj.Attrs {
		if attr.Number <= 0 {
			continue
		}
		a := attr
		if !a.Encoded {
			a = attr.Clone()
			a.Encode(obj.Owner)
		}
		wr.writef(">%d\n%s\n", a.Number, wr.str(a.Value))
	}

	wr.writef("<\n")

	return wr.err
}

// attrNumbers returns a copy of a header key with attribute names replaced
// by their numbers, the form older servers read back.
func (wr *writer) attrNumbers(n *lock.Node) *lock.Node {
	c := n.Clone()
	c.Walk(func(x *lock.Node) bool {
		if x.Kind != lock.KindAttr && x.Kind != lock.KindEval {
			return true
		}
		if x.Left != nil && x.Left.Kind == lock.KindText {
			if num, ok := wr.snap.AttrNumber(x.Left.Text); ok {
				x.Left.Text = strconv.Itoa(num)
			}
		}
		return false
	})
	return c
}
