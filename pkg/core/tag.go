package core

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"unicode"

	"caf/pkg/types"
)

// Tag 是带注释的标签对象 (Annotated Tag)
// 它把一个人类可读的名字指向另一个对象，并携带作者、消息和时间元数据。
// Tag 自身也是内容寻址对象：它的 ID 是规范 CBOR 字节的 SHA-256，
// 与 commit/tree/blob 处于同一个地址空间。
//
// 构造完成后所有字段视为只读。两个字段值相同的 Tag 序列化字节必然相同，
// 因此 ID 也必然相同 (值语义)。
type Tag struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal ObjectType `cbor:"t"` // 恒为 "tag"

	// Target 是被指向对象的哈希。Tag 不负责解引用，
	// 目标对象是否存在由外部的对象库保证
	Target     Link       `cbor:"tg"`
	TargetType ObjectType `cbor:"tt"`

	Name   string `cbor:"n"`
	Author string `cbor:"a"` // 自由文本，格式校验属于外层策略

	// Timestamp 是打标签的时间 (Unix 秒)
	// 由调用方显式传入：core 层绝不偷偷取当前时间，
	// 否则相同输入会产生不同哈希，破坏可复现性
	Timestamp int64 `cbor:"ts"`

	// Message 逐字节保存 (可为空，可多行)
	// CBOR 的长度前缀编码保证消息里出现任何字节都能无歧义还原
	Message string `cbor:"m"`
}

// NamePolicy 定义标签名的字符集约束
// 具体字符集是仓库层面的策略，core 只负责接受并执行它
type NamePolicy func(name string) error

// DefaultNamePolicy 拒绝空名字、空白符、控制字符，
// 以及会让名字无法安全充当引用路径的符号
func DefaultNamePolicy(name string) error {
	if name == "" {
		return fmt.Errorf("tag name is empty")
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("tag name contains whitespace or control character %q", r)
		}
		switch r {
		case '/', '\\', ':', '~', '^', '?', '*', '[':
			return fmt.Errorf("tag name contains forbidden character %q", r)
		}
	}
	return nil
}

// NewTag 创建一个新的标签对象，使用默认的名字策略
// timestamp 必须由调用方提供 (通常是 CLI 层的 time.Now().Unix())
func NewTag(target types.Hash, targetType ObjectType, name, author, message string, timestamp int64) (*Tag, error) {
	return NewTagWithPolicy(DefaultNamePolicy, target, targetType, name, author, message, timestamp)
}

// NewTagWithPolicy 允许仓库注入自己的名字策略
func NewTagWithPolicy(policy NamePolicy, target types.Hash, targetType ObjectType, name, author, message string, timestamp int64) (*Tag, error) {
	if err := validateTarget(target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if !targetType.IsValid() {
		return nil, fmt.Errorf("%w: unknown target type %q", ErrInvalidArgument, targetType)
	}
	if policy == nil {
		policy = DefaultNamePolicy
	}
	if err := policy(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	t := &Tag{
		TypeVal:    TypeTag,
		Target:     NewLink(string(target)),
		TargetType: targetType,
		Name:       name,
		Author:     author,
		Timestamp:  timestamp,
		Message:    message,
	}

	// 哈希在构造时立即计算并缓存
	// 之后 ID()/Bytes() 是纯读取，天然并发安全
	h, b, err := CalculateHash(t)
	if err != nil {
		return nil, err
	}
	t.hash = h
	t.rawBytes = b
	return t, nil
}

// DecodeTag 是序列化的逆操作
// 它要么返回一个重新序列化后与输入逐字节一致的 Tag (Round-Trip 保证)，
// 要么返回 ErrMalformedObject 并指出哪个字段坏了
func DecodeTag(data []byte) (*Tag, error) {
	var t Tag
	if err := dm.Unmarshal(data, &t); err != nil {
		// 截断的长度前缀、尾部多余字节、重复 Key 等都在这里被拒绝
		return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}

	if t.TypeVal != TypeTag {
		return nil, fmt.Errorf("%w: type field is %q, want %q", ErrMalformedObject, t.TypeVal, TypeTag)
	}
	if err := validateTarget(types.Hash(t.Target.Hash)); err != nil {
		return nil, fmt.Errorf("%w: target: %v", ErrMalformedObject, err)
	}
	if !t.TargetType.IsValid() {
		return nil, fmt.Errorf("%w: unknown target type %q", ErrMalformedObject, t.TargetType)
	}
	if t.Name == "" {
		return nil, fmt.Errorf("%w: tag name is empty", ErrMalformedObject)
	}

	// 重新序列化并与输入比对：
	// 只有规范编码才被接受，否则同一个 Tag 会出现两个不同的哈希
	h, b, err := CalculateHash(&t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	if !bytes.Equal(b, data) {
		return nil, fmt.Errorf("%w: input is not in canonical encoding", ErrMalformedObject)
	}

	t.hash = h
	t.rawBytes = b
	return &t, nil
}

// validateTarget 检查被指向的哈希是否结构合法
// 注意：只校验格式，不校验目标对象是否真的存在 (那是对象库的事)
func validateTarget(target types.Hash) error {
	if target.IsZero() {
		return fmt.Errorf("target hash is empty")
	}
	if !target.IsValid() {
		return fmt.Errorf("target hash must be 64 hex characters, got %d", len(target))
	}
	if _, err := hex.DecodeString(string(target)); err != nil {
		return fmt.Errorf("target hash is not valid hex: %v", err)
	}
	return nil
}

// Equal 判断两个 Tag 是否相等
// 定义：规范序列化字节相同。这与 ID 相等是同一件事，不会出现两种“相同”
func (t *Tag) Equal(other *Tag) bool {
	if t == nil || other == nil {
		return t == other
	}
	return bytes.Equal(t.rawBytes, other.rawBytes)
}

func (t *Tag) Type() ObjectType { return TypeTag }
func (t *Tag) ID() types.Hash   { return t.hash }
func (t *Tag) Bytes() []byte    { return t.rawBytes }
