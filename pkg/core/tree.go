package core

import (
	"fmt"

	"caf/pkg/types"
)

type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

type TreeEntry struct {
	Name string    `cbor:"n"`
	Type EntryType `cbor:"t"`
	Hash Link      `cbor:"h"`
	Size int64     `cbor:"s"`
}

type Tree struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal ObjectType  `cbor:"t"`
	Entries []TreeEntry `cbor:"e"`
}

// NewTree 创建一个新的目录树节点
func NewTree(entries []TreeEntry) (*Tree, error) {
	t := &Tree{
		TypeVal: TypeTree,
		Entries: entries,
	}
	h, b, err := CalculateHash(t)
	if err != nil {
		return nil, err
	}
	t.hash = h
	t.rawBytes = b
	return t, nil
}

// NewTreeEntryFromObject 自动根据子对象生成条目
func NewTreeEntryFromObject(name string, child Object) (TreeEntry, error) {
	var entryType EntryType
	var size int64

	switch n := child.(type) {
	case *Blob:
		entryType = EntryFile
		size = n.Size()
	case *Tree:
		entryType = EntryDir
		size = 0 // 目录大小记为 0
	default:
		// Commit/Tag 不能作为目录树的子节点
		return TreeEntry{}, fmt.Errorf("unsupported object type: %s", child.Type())
	}

	return TreeEntry{
		Name: name,
		Type: entryType,
		Hash: NewLink(string(child.ID())),
		Size: size,
	}, nil
}

func (t *Tree) Type() ObjectType { return TypeTree }
func (t *Tree) ID() types.Hash   { return t.hash }
func (t *Tree) Bytes() []byte    { return t.rawBytes }
