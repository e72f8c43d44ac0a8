package boltstore

import (
	"encoding/binary"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
)

var (
	bucketMeta     = []byte("meta")
	bucketObjects  = []byte("objects")
	bucketAttrDefs = []byte("attrdefs")
	bucketPlayers  = []byte("players")

	buckets = [][]byte{bucketMeta, bucketObjects, bucketAttrDefs, bucketPlayers}
)

var (
	keyLineage       = []byte("lineage")
	keyVersion       = []byte("version")
	keyFlags         = []byte("flags")
	keyPresent       = []byte("present")
	keySize          = []byte("size")
	keyNextAttr      = []byte("nextattr")
	keyRecordPlayers = []byte("recordplayers")
	keyDBVersion     = []byte("dbversion")
	keySavedTime     = []byte("savedtime")
	keyDecls         = []byte("decls")
)

// refToKey converts a DBRef to an 8-byte big-endian key.
// The offset keeps negative references (NOTHING, AMBIGUOUS) sorted first.
func refToKey(ref gamedb.DBRef) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(int64(ref)+1<<32))
	return buf
}

func keyToRef(b []byte) gamedb.DBRef {
	v := binary.BigEndian.Uint64(b)
	return gamedb.DBRef(int64(v) - 1<<32)
}

func intToKey(n int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

func keyToInt(b []byte) int {
	if len(b) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(b))
}
