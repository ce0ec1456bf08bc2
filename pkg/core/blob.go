package core

import "caf/pkg/types"

// Blob 代表一份原始文件内容
// 它不经过 CBOR 包装：哈希直接对内容计算，存储的也是原始字节
type Blob struct {
	hash types.Hash
	data []byte
}

func NewBlob(data []byte) *Blob {
	h := CalculateBlobHash(data)
	return &Blob{
		hash: h,
		data: data,
	}
}

func (b *Blob) Type() ObjectType { return TypeBlob }
func (b *Blob) ID() types.Hash   { return b.hash }
func (b *Blob) Bytes() []byte    { return b.data }
func (b *Blob) Size() int64      { return int64(len(b.data)) }
