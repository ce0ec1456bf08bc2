package storage

import (
	"context"
	"errors"
	"io"

	"caf/pkg/core"
	"caf/pkg/types"
)

var (
	ErrNotFound      = errors.New("object not found")
	ErrAmbiguousHash = errors.New("ambiguous hash prefix")
)

// Store defines the interface for a storage backend.
// Implementations can be local disk, cloud storage, or in-memory storage.
type Store interface {
	// Put 将一个核心对象持久化
	// 它不需要返回 Hash，因为 Hash 已经在 core.Object 里了
	Put(ctx context.Context, obj core.Object) error

	// Get 根据 Hash 读取原始数据
	// 注意：这里返回的是 io.ReadCloser 而不是 []byte
	// 原因：为了支持大对象的流式读取，避免一次性全部读进内存
	Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error)

	// Has 检查对象是否存在 (用于去重逻辑)
	Has(ctx context.Context, hash types.Hash) (bool, error)

	// ExpandHash 把用户输入的短哈希扩展为完整 Hash
	// 0 个匹配 -> ErrNotFound，多于 1 个 -> ErrAmbiguousHash
	ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error)
}
