// pkg/types/common.go
package types

// Hash 代表对象的唯一标识符 (SHA256 Hex String)
// 这是一个“值对象”，应当是不可变的。
// 注意区分：Tag 对象自身的 Hash vs 它指向的 Target Hash，类型上不做区分
type Hash string

func (h Hash) String() string { return string(h) }

// 验证 Hash 合法性
func (h Hash) IsZero() bool  { return h == "" }
func (h Hash) IsValid() bool { return len(h) == 64 } // 简单的长度检查

// HashPrefix 是用户输入的短哈希 (例如 "a8fd12")
// 必须经过 Store.ExpandHash 扩展成完整 Hash 才能使用
type HashPrefix string

func (p HashPrefix) String() string { return string(p) }

type RepoPath string
