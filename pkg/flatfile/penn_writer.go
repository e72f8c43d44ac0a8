package flatfile

import (
	"strings"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// writePenn emits the labeled format. Counts are taken from the lists
// themselves, so a declared count that disagreed on input is corrected.
func (wr *writer) writePenn() {
	snap := wr.snap
	wr.writef("+%c%d\n", wr.lin.Tag, int32(snap.Lineage.HeaderValue(snap.Version, snap.HeaderFlags|lineage.DBFLabels)))
	if wr.has(lineage.DBFNewVersions) {
		wr.writef("dbversion %d\n", snap.DBVersion)
		wr.writef("savedtime %s\n", wr.str(snap.SavedTime))
	}
	wr.writeFlagList("+FLAGS LIST", "flag", snap.FlagDecls, snap.FlagAliases)
	wr.writeFlagList("+POWER LIST", "power", snap.PowerDecls, snap.PowerAliases)
	wr.writef("~%d\n", snap.Size)

	for _, ref := range snap.Refs() {
		wr.writePennObject(snap.Objects[ref])
	}
	wr.writef("%s\n", EndOfDump)
}

func (wr *writer) writeFlagList(header, kind string, decls []*gamedb.FlagDecl, aliases []gamedb.FlagAlias) {
	wr.writef("%s\n", header)
	wr.writef("%scount %d\n", kind, len(decls))
	for _, d := range decls {
		wr.writef(" name %s\n", wr.str(d.Name))
		wr.writef("  letter %s\n", wr.str(d.Letter))
		wr.writef("  type %s\n", wr.str(d.Type))
		wr.writef("  perms %s\n", wr.str(d.Perms))
		wr.writef("  negate_perms %s\n", wr.str(d.NegatePerms))
	}
	wr.writef("%saliascount %d\n", kind, len(aliases))
	for _, a := range aliases {
		wr.writef(" name %s\n", wr.str(a.Name))
		wr.writef("  alias %s\n", wr.str(a.Alias))
	}
}

func (wr *writer) writePennObject(obj *gamedb.Object) {
	wr.writef("!%d\n", obj.DBRef)
	wr.writef("name %s\n", wr.str(obj.Name))
	wr.writef("location #%d\n", obj.Location)
	wr.writef("contents #%d\n", obj.Contents)
	wr.writef("exits #%d\n", obj.Exits)
	wr.writef("next #%d\n", obj.Next)
	wr.writef("parent #%d\n", obj.Parent)

	wr.writef("lockcount %d\n", len(obj.Locks))
	for _, l := range obj.Locks {
		wr.writef(" type %s\n", wr.str(l.Name))
		wr.writef("  creator #%d\n", l.Creator)
		wr.writef("  flags %s\n", wr.str(strings.Join(l.Flags, " ")))
		wr.writef("  derefs %d\n", l.Derefs)
		wr.writef("  key %s\n", wr.str(l.Key))
	}

	wr.writef("owner #%d\n", obj.Owner)
	wr.writef("zone #%d\n", obj.Zone)
	wr.writef("pennies %d\n", obj.Pennies)
	wr.writef("type %d\n", obj.Type)
	wr.writef("flags %s\n", wr.str(strings.Join(obj.FlagNames, " ")))
	wr.writef("powers %s\n", wr.str(strings.Join(obj.PowerNames, " ")))
	wr.writef("warnings %d\n", obj.Warnings)
	wr.writef("created %d\n", obj.Created)
	wr.writef("modified %d\n", obj.Modified)

	wr.writef("attrcount %d\n", len(obj.Attrs))
	for _, a := range obj.Attrs {
		owner := a.Owner
		if owner == gamedb.Nothing {
			owner = obj.Owner
		}
		wr.writef(" name %s\n", wr.str(a.Name))
		wr.writef("  owner #%d\n", owner)
		wr.writef("  flags %s\n", wr.str(strings.Join(a.FlagNames, " ")))
		wr.writef("  derefs %d\n", a.Derefs)
		wr.writef("  value %s\n", wr.str(a.Value))
	}
}
