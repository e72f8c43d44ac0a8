package crypt

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// ResetPassword stores a fresh hash of password on player ref.
func ResetPassword(snap *gamedb.Snapshot, ref gamedb.DBRef, password string) error {
	return Default.ResetPassword(snap, ref, password)
}

// ResetPassword stores a fresh hash of password on player ref.
func (h *Hasher) ResetPassword(snap *gamedb.Snapshot, ref gamedb.DBRef, password string) error {
	o := snap.Object(ref)
	if o == nil {
		return fmt.Errorf("object %s not found", ref)
	}
	if k := snap.Kind(o); k != lineage.KindPlayer {
		return fmt.Errorf("%s is a %s, not a player", ref, k)
	}
	l := snap.Lineage
	hash, err := h.Hash(l, password)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", ref, err)
	}

	if l.Named {
		if a := o.AttrNamed(l.PasswordAttr); a != nil {
			a.Value = hash
			return nil
		}
		o.Attrs = append(o.Attrs, &gamedb.Attribute{
			Name:      l.PasswordAttr,
			Owner:     ref,
			FlagNames: []string{"no_command", "wizard", "locked", "internal"},
			Value:     hash,
		})
		o.AttrCount = len(o.Attrs)
		return nil
	}

	num, ok := snap.AttrNumber(l.PasswordAttr)
	if !ok {
		return fmt.Errorf("%s has no %s attribute", l.Name, strings.ToUpper(l.PasswordAttr))
	}
	if a := o.Attr(num); a != nil {
		a.Decode(o.Owner)
		a.Value = hash
		return nil
	}
	o.Attrs = append(o.Attrs, &gamedb.Attribute{
		Number: num,
		Name:   l.PasswordAttr,
		Owner:  ref,
		Value:  hash,
	})
	return nil
}
