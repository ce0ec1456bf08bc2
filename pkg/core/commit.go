package core

import (
	"caf/pkg/types"
)

type Commit struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal ObjectType `cbor:"t"`

	TreeCid Link   `cbor:"th"`
	Parents []Link `cbor:"p"`

	Author  string `cbor:"a"`
	Message string `cbor:"m"`

	Timestamp int64 `cbor:"ts"`
}

// NewCommit 创建一个版本快照
// timestamp 和 Tag 一样由调用方传入，core 层不碰墙上时钟
func NewCommit(treeHash types.Hash, parents []types.Hash, author, msg string, timestamp int64) (*Commit, error) {
	// 转换 parents string -> Link
	parentLinks := make([]Link, len(parents))
	for i, p := range parents {
		parentLinks[i] = NewLink(string(p))
	}

	c := &Commit{
		TypeVal:   TypeCommit,
		TreeCid:   NewLink(string(treeHash)),
		Parents:   parentLinks,
		Author:    author,
		Message:   msg,
		Timestamp: timestamp,
	}

	h, b, err := CalculateHash(c)
	if err != nil {
		return nil, err
	}
	c.hash = h
	c.rawBytes = b
	return c, nil
}

func (c *Commit) Type() ObjectType { return TypeCommit }
func (c *Commit) ID() types.Hash   { return c.hash }
func (c *Commit) Bytes() []byte    { return c.rawBytes }
