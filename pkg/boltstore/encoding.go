package boltstore

import (
	"bytes"
	"encoding/gob"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
)

// decls carries the stored flag and power lists of a named lineage.
type decls struct {
	FlagDecls      []*gamedb.FlagDecl
	FlagAliases    []gamedb.FlagAlias
	PowerDecls     []*gamedb.FlagDecl
	PowerAliases   []gamedb.FlagAlias
	FlagListCount  int
	PowerListCount int
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode[T any](data []byte) (*T, error) {
	var v T
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}
