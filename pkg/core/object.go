package core

import "caf/pkg/types"

// ObjectType 定义了 caf 对象库中的对象类型
// 这是一个封闭集合：Tag 可以指向其中任意一种 (包括另一个 Tag，支持嵌套标注)
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"   // 原始文件内容
	TypeTree   ObjectType = "tree"   // 目录树
	TypeCommit ObjectType = "commit" // 版本快照
	TypeTag    ObjectType = "tag"    // 带注释的标签 (Annotated Tag)
)

// IsValid 判断类型是否属于封闭集合
func (t ObjectType) IsValid() bool {
	switch t {
	case TypeBlob, TypeTree, TypeCommit, TypeTag:
		return true
	default:
		return false
	}
}

// Object 是所有内容寻址对象的通用接口
type Object interface {
	// Type 返回对象类型
	Type() ObjectType

	// ID 返回对象的哈希值 (内容地址)
	ID() types.Hash

	// Bytes 返回对象的规范序列化数据 (用于存储和哈希)
	Bytes() []byte
}
