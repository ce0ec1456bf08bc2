package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"caf/pkg/types"

	"github.com/fxamacker/cbor/v2"
)

// 定义符合 DAG-CBOR 规范的编码选项
var encOptions = cbor.EncOptions{
	// 1. 强制 Map Key 排序 (Canonical)
	// 保证相同的字段值永远生成同一串字节，进而生成唯一的 Hash
	// 这是跨实现哈希兼容的核心前提
	Sort: cbor.SortCanonical,

	// 2. 浮点数必须使用确定性表示
	ShortestFloat: cbor.ShortestFloatNone,

	// 3. 时间格式化为 Unix 整数
	// 禁止自动生成 Tag 0/1 (RFC 3339 字符串)
	Time:    cbor.TimeUnix,
	TimeTag: cbor.EncTagNone,

	// 4. 禁止不定长编码 (Indefinite Length)
	// 数组、Map、字符串必须在头部声明长度
	// 这同时意味着所有文本字段都是长度前缀编码的：
	// message/author 里出现任何分隔字节都不会破坏字段边界
	IndefLength: cbor.IndefLengthForbidden,

	// 5. 大整数使用最短编码
	BigIntConvert: cbor.BigIntConvertShortest,
}

// 全局复用的编码模式
var em, _ = encOptions.EncMode()

// 定义符合 DAG-CBOR 规范的解码选项
var decOptions = cbor.DecOptions{
	// --- 安全性配置 (防 DoS 攻击) ---
	// 限制容器元素数量和嵌套深度，防止恶意构造的巨大头部耗尽内存或栈
	MaxArrayElements: 10000,
	MaxMapPairs:      10000,
	MaxNestedLevels:  100,

	// --- 规范性配置 (Strictness) ---
	// 禁止不定长编码
	IndefLength: cbor.IndefLengthForbidden,

	// 强制检查 Map Key 重复 (规范编码不允许重复 Key)
	DupMapKey: cbor.DupMapKeyEnforcedAPF,

	// 禁止自动解析 Bignum Tag (Tag 2/3)
	BignumTag: cbor.BignumTagForbidden,

	// 忽略时间 Tag (Tag 0/1)，强制按数字解析，由 Struct 类型决定
	TimeTag: cbor.DecTagIgnored,
}

// dm 供包内部使用 (如 link.go / tag.go)
var dm, _ = decOptions.DecMode()

// CalculateHash 计算对象的 Hash 和规范序列化数据
func CalculateHash(v any) (types.Hash, []byte, error) {
	data, err := em.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal object: %w", err)
	}

	// 计算 SHA-256
	hashBytes := sha256.Sum256(data)
	hashStr := hex.EncodeToString(hashBytes[:])

	return types.Hash(hashStr), data, nil
}

// CalculateBlobHash 计算原始数据的 Hash
// Blob 不经过 CBOR 包装，直接对内容寻址
func CalculateBlobHash(data []byte) types.Hash {
	hashBytes := sha256.Sum256(data)
	return types.Hash(hex.EncodeToString(hashBytes[:]))
}

// DecodeObject 通用的解码函数 (供外部使用)
// 注意：它只做结构解码，不做字段校验。
// 需要完整性保证时应使用各类型专属的 DecodeXxx (如 DecodeTag)
func DecodeObject(data []byte, v any) error {
	return dm.Unmarshal(data, v)
}
