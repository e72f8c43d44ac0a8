// Package boltstore keeps a converted snapshot in a bbolt file so later
// commands can work on it without re-reading the flatfile.
package boltstore

import (
	"errors"
	"fmt"
	"os"
	"strings"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// ErrEmpty is returned by Load when nothing has been saved yet.
var ErrEmpty = errors.New("boltstore: store is empty")

// Store wraps a bbolt database holding one snapshot.
type Store struct {
	bolt *bbolt.DB
	log  *zap.Logger
}

// Open opens or creates a bbolt database file and ensures all buckets exist.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: create buckets: %w", err)
	}
	return &Store{bolt: db, log: log}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

// Path returns the filesystem path of the underlying bbolt database.
func (s *Store) Path() string {
	if s.bolt != nil {
		return s.bolt.Path()
	}
	return ""
}

// Save replaces the stored snapshot with snap in one transaction. On error
// the previous snapshot is left as it was.
func (s *Store) Save(snap *gamedb.Snapshot) error {
	refs := snap.Refs()
	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		if err := putMeta(tx.Bucket(bucketMeta), snap); err != nil {
			return err
		}
		b := tx.Bucket(bucketAttrDefs)
		for _, def := range snap.AttrNames {
			data, err := encode(def)
			if err != nil {
				return fmt.Errorf("encode attrdef %d: %w", def.Number, err)
			}
			if err := b.Put(intToKey(def.Number), data); err != nil {
				return err
			}
		}
		return s.putObjects(tx, snap, refs)
	})
	if err != nil {
		return fmt.Errorf("boltstore: save: %w", err)
	}

	s.log.Info("snapshot stored",
		zap.String("path", s.Path()),
		zap.String("lineage", snap.Lineage.ID),
		zap.Int("objects", len(refs)),
		zap.Int("attrdefs", len(snap.AttrNames)))
	return nil
}

func putMeta(b *bbolt.Bucket, snap *gamedb.Snapshot) error {
	d, err := encode(decls{
		FlagDecls:      snap.FlagDecls,
		FlagAliases:    snap.FlagAliases,
		PowerDecls:     snap.PowerDecls,
		PowerAliases:   snap.PowerAliases,
		FlagListCount:  snap.FlagListCount,
		PowerListCount: snap.PowerListCount,
	})
	if err != nil {
		return fmt.Errorf("encode flag lists: %w", err)
	}
	puts := []struct {
		key, val []byte
	}{
		{keyLineage, []byte(snap.Lineage.ID)},
		{keyVersion, intToKey(snap.Version)},
		{keyFlags, intToKey(int(snap.HeaderFlags))},
		{keyPresent, intToKey(int(snap.Present))},
		{keySize, intToKey(snap.Size)},
		{keyNextAttr, intToKey(snap.NextAttr)},
		{keyRecordPlayers, intToKey(snap.RecordPlayers)},
		{keyDBVersion, intToKey(snap.DBVersion)},
		{keySavedTime, []byte(snap.SavedTime)},
		{keyDecls, d},
	}
	for _, p := range puts {
		if err := b.Put(p.key, p.val); err != nil {
			return err
		}
	}
	return nil
}

// putObjects writes the objects named by refs and the player name index.
// When two live players share a name the lower dbref keeps the index entry.
func (s *Store) putObjects(tx *bbolt.Tx, snap *gamedb.Snapshot, refs []gamedb.DBRef) error {
	b := tx.Bucket(bucketObjects)
	players := tx.Bucket(bucketPlayers)
	for _, ref := range refs {
		obj := snap.Object(ref)
		if obj == nil {
			return fmt.Errorf("object %s is nil", ref)
		}
		data, err := encode(obj)
		if err != nil {
			return fmt.Errorf("encode %s: %w", ref, err)
		}
		if err := b.Put(refToKey(ref), data); err != nil {
			return err
		}
		if snap.Kind(obj) != lineage.KindPlayer || snap.IsGoing(obj) {
			continue
		}
		key := []byte(strings.ToLower(obj.Name))
		if prev := players.Get(key); prev != nil {
			s.log.Warn("duplicate player name not indexed",
				zap.String("name", obj.Name),
				zap.Stringer("kept", keyToRef(prev)),
				zap.Stringer("skipped", ref))
			continue
		}
		if err := players.Put(key, refToKey(ref)); err != nil {
			return err
		}
	}
	return nil
}

// PutObject rewrites a single stored object.
func (s *Store) PutObject(obj *gamedb.Object) error {
	data, err := encode(obj)
	if err != nil {
		return fmt.Errorf("boltstore: encode object %s: %w", obj.DBRef, err)
	}
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketObjects).Put(refToKey(obj.DBRef), data)
	})
}

// Load reads the stored snapshot.
func (s *Store) Load() (*gamedb.Snapshot, error) {
	var snap *gamedb.Snapshot
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		id := meta.Get(keyLineage)
		if id == nil {
			return ErrEmpty
		}
		l, err := lineage.ByID(string(id))
		if err != nil {
			return err
		}
		snap = gamedb.NewSnapshot(l)
		snap.Version = keyToInt(meta.Get(keyVersion))
		snap.HeaderFlags = uint32(keyToInt(meta.Get(keyFlags)))
		snap.Present = gamedb.HeaderField(keyToInt(meta.Get(keyPresent)))
		snap.Size = keyToInt(meta.Get(keySize))
		snap.NextAttr = keyToInt(meta.Get(keyNextAttr))
		snap.RecordPlayers = keyToInt(meta.Get(keyRecordPlayers))
		snap.DBVersion = keyToInt(meta.Get(keyDBVersion))
		snap.SavedTime = string(meta.Get(keySavedTime))
		if v := meta.Get(keyDecls); v != nil {
			d, err := decode[decls](v)
			if err != nil {
				return fmt.Errorf("decode flag lists: %w", err)
			}
			snap.FlagDecls, snap.FlagAliases = d.FlagDecls, d.FlagAliases
			snap.PowerDecls, snap.PowerAliases = d.PowerDecls, d.PowerAliases
			snap.FlagListCount, snap.PowerListCount = d.FlagListCount, d.PowerListCount
		}

		err = tx.Bucket(bucketAttrDefs).ForEach(func(k, v []byte) error {
			def, err := decode[gamedb.AttrDef](v)
			if err != nil {
				return fmt.Errorf("decode attrdef %d: %w", keyToInt(k), err)
			}
			snap.AddAttrDef(def.Number, def.Name, def.Flags)
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(bucketObjects).ForEach(func(k, v []byte) error {
			obj, err := decode[gamedb.Object](v)
			if err != nil {
				return fmt.Errorf("decode object %s: %w", keyToRef(k), err)
			}
			return snap.AddObject(obj)
		})
	})
	if err != nil {
		if errors.Is(err, ErrEmpty) {
			return nil, err
		}
		return nil, fmt.Errorf("boltstore: load: %w", err)
	}
	s.log.Debug("snapshot loaded",
		zap.String("path", s.Path()),
		zap.String("lineage", snap.Lineage.ID),
		zap.Int("objects", len(snap.Objects)))
	return snap, nil
}

// LookupPlayer finds a player by name, ignoring case.
func (s *Store) LookupPlayer(name string) (gamedb.DBRef, bool) {
	ref, found := gamedb.Nothing, false
	s.bolt.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketPlayers).Get([]byte(strings.ToLower(name))); v != nil {
			ref, found = keyToRef(v), true
		}
		return nil
	})
	return ref, found
}

// HasData reports whether the store holds any objects.
func (s *Store) HasData() bool {
	hasData := false
	s.bolt.View(func(tx *bbolt.Tx) error {
		hasData = tx.Bucket(bucketObjects).Stats().KeyN > 0
		return nil
	})
	return hasData
}

// Backup creates a hot copy of the bbolt database using tx.WriteTo().
func (s *Store) Backup(path string) error {
	return s.bolt.View(func(tx *bbolt.Tx) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("boltstore: create backup %s: %w", path, err)
		}
		defer f.Close()
		if _, err := tx.WriteTo(f); err != nil {
			return fmt.Errorf("boltstore: write backup: %w", err)
		}
		s.log.Info("store backed up", zap.String("path", path))
		return nil
	})
}
