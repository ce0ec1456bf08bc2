package meta

import (
	"time"

	"gorm.io/datatypes"
)

// Ref 存储命名引用 (例如 "refs/tags/v1.0")
// 引用层的职责：把人类可读的名字映射到某个对象自身的内容哈希
type Ref struct {
	// Name 是主键，例如 "refs/tags/v1.0"
	Name string `gorm:"primaryKey;type:varchar(255)"`

	// Hash 指向对象的内容哈希 (对 tag 引用来说是 Tag 对象自己的 ID，不是它的 Target)
	Hash string `gorm:"type:char(64);not null"`

	// Version 用于乐观锁并发控制 (CAS)
	// 每次更新时 +1，防止并发覆盖
	Version int64 `gorm:"default:1"`

	UpdatedAt time.Time
}

// TagModel 是 core.Tag 在关系型数据库中的投影 (索引)
// 用于快速查询 (caf tag list)，支持按作者、时间搜索
// 注意：为了避免跟 core.Tag 混淆，我们叫它 TagModel
// 真相永远在对象库的规范 CBOR 字节里，这张表只是可重建的缓存
type TagModel struct {
	// Hash 是主键 (Tag 对象自身的内容哈希)
	Hash string `gorm:"primaryKey;type:char(64)"`

	// 基础元数据 (B-Tree 索引，适合排序和精确查找)
	Name      string `gorm:"index;type:varchar(255)"`
	Author    string `gorm:"index;type:varchar(100)"`
	Message   string `gorm:"type:text"`
	Timestamp int64  `gorm:"index"` // 使用 int64 存时间戳，方便范围查询

	// 指向目标对象
	TargetHash string `gorm:"type:char(64);not null"`
	TargetType string `gorm:"type:varchar(16);not null"`

	// Meta: 策略层的附加标注 (例如签名、审批信息)
	// core.Tag 不认识这些字段，它们不参与内容哈希
	Meta datatypes.JSON

	CreatedAt time.Time
}

// TableName 强制指定表名
func (TagModel) TableName() string {
	return "tags"
}
