package meta

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"caf/pkg/core"
	"caf/pkg/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRefNotFound      = errors.New("reference not found")
	ErrConcurrentUpdate = errors.New("concurrent update detected (CAS failed)")
	ErrTagNotFound      = errors.New("tag not found in metadata")
)

// Repository 封装所有对 SQL 数据库的操作
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// -----------------------------------------------------------------------------
// 1. 引用管理 (Refs)
// -----------------------------------------------------------------------------

// GetRef 获取引用的当前指向 (例如 "refs/tags/v1.0" -> "hash...")
func (r *Repository) GetRef(ctx context.Context, name string) (*Ref, error) {
	var ref Ref
	err := r.db.GetConn().WithContext(ctx).
		Where("name = ?", name).
		First(&ref).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRefNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// UpdateRef 原子更新引用 (CAS - Compare And Swap)
// oldVersion: 你之前读到的版本号。如果数据库里现在的版本号不等于这个，说明有人抢先改了，更新失败。
// oldVersion == 0 表示“创建”：名字已存在则失败。
func (r *Repository) UpdateRef(ctx context.Context, name string, newHash types.Hash, oldVersion int64) error {
	// 开启事务 (虽然单条 SQL 不需要显式事务，但为了扩展性保留习惯)
	return r.db.GetConn().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 场景 A: 第一次创建 (Create)
		if oldVersion == 0 {
			ref := Ref{
				Name:    name,
				Hash:    string(newHash),
				Version: 1,
			}
			// 如果已经存在 (Name 冲突)，则报错
			if err := tx.Create(&ref).Error; err != nil {
				// 兼容性: 处理不同数据库 (PG 与 SQLite) 的唯一约束错误
				if errors.Is(err, gorm.ErrDuplicatedKey) ||
					strings.Contains(err.Error(), "UNIQUE constraint failed") {
					return ErrConcurrentUpdate
				}
				return fmt.Errorf("failed to create ref: %w", err)
			}
			return nil
		}

		// 场景 B: 更新现有引用 (Update with CAS)
		// SQL: UPDATE refs SET hash = ?, version = version + 1 WHERE name = ? AND version = ?
		result := tx.Model(&Ref{}).
			Where("name = ? AND version = ?", name, oldVersion).
			Updates(map[string]any{
				"hash":       string(newHash),
				"version":    gorm.Expr("version + 1"), // 版本号自增
				"updated_at": time.Now(),
			})

		if result.Error != nil {
			return result.Error
		}

		// 关键检查：如果影响行数为 0，说明 version 不匹配（被人抢先改了）
		if result.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		return nil
	})
}

// DeleteRef 删除引用
// 只删名字，对象本身留在对象库里 (内容寻址存储只增不删)
func (r *Repository) DeleteRef(ctx context.Context, name string) error {
	result := r.db.GetConn().WithContext(ctx).
		Where("name = ?", name).
		Delete(&Ref{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRefNotFound
	}
	return nil
}

// ListRefs 按前缀列出引用 (例如 "refs/tags/")
func (r *Repository) ListRefs(ctx context.Context, prefix string) ([]Ref, error) {
	var refs []Ref
	err := r.db.GetConn().WithContext(ctx).
		Where("name LIKE ?", prefix+"%").
		Order("name ASC").
		Find(&refs).Error
	return refs, err
}

// -----------------------------------------------------------------------------
// 2. 标签索引 (Tag Indexing)
// -----------------------------------------------------------------------------

// IndexTag 将 core.Tag 对象“投影”到 SQL 数据库中
// 这样我们就可以用 SQL 进行复杂查询 (按作者、时间搜索)
func (r *Repository) IndexTag(ctx context.Context, t *core.Tag) error {
	model := TagModel{
		Hash:       string(t.ID()),
		Name:       t.Name,
		Author:     t.Author,
		Message:    t.Message,
		Timestamp:  t.Timestamp,
		TargetHash: t.Target.Hash,
		TargetType: string(t.TargetType),
		CreatedAt:  time.Unix(t.Timestamp, 0),
	}

	// 写入数据库 (幂等写入)
	// 同一个 Hash 重复索引是 no-op：内容寻址对象不可变，投影也不会变
	err := r.db.GetConn().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}}, // 冲突列
			DoNothing: true,                            // 忽略
		}).
		Create(&model).Error

	if err != nil {
		return fmt.Errorf("failed to index tag: %w", err)
	}
	return nil
}

func (r *Repository) GetTag(ctx context.Context, hash types.Hash) (*TagModel, error) {
	var tag TagModel
	// 因为 Hash 是主键，查询非常快
	err := r.db.GetConn().WithContext(ctx).
		Where("hash = ?", string(hash)).
		First(&tag).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindTagsByAuthor 利用 SQL 能力进行查询
func (r *Repository) FindTagsByAuthor(ctx context.Context, author string, limit int) ([]TagModel, error) {
	var tags []TagModel
	err := r.db.GetConn().WithContext(ctx).
		Where("author = ?", author).
		Order("timestamp DESC").
		Limit(limit).
		Find(&tags).Error
	return tags, err
}

// ListTags 按时间倒序列出最近的标签
func (r *Repository) ListTags(ctx context.Context, limit int) ([]TagModel, error) {
	var tags []TagModel
	err := r.db.GetConn().WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&tags).Error
	return tags, err
}
