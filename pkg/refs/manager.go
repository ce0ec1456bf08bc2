package refs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"caf/pkg/meta"
	"caf/pkg/types"
)

var (
	ErrTagNotFound = errors.New("tag reference not found")
	ErrTagExists   = errors.New("tag reference already exists")
)

const tagPrefix = "refs/tags/"

// Manager 负责管理引用 (Refs)
// 它只维护“名字 -> Tag 对象哈希”的映射，名字本身不携带任何元数据；
// 作者、消息、时间都在 Tag 对象里 (这正是 Annotated Tag 和轻量引用的区别)
type Manager struct {
	repo *meta.Repository
}

func NewManager(repo *meta.Repository) *Manager {
	return &Manager{repo: repo}
}

func tagRefName(name string) string {
	return tagPrefix + name
}

// CreateTag 创建标签引用
// 标签引用一经创建不可移动：想“重打”同名标签必须先删除。
// 同名的新标签是一个全新的 Tag 对象，有全新的内容哈希。
func (m *Manager) CreateTag(ctx context.Context, name string, tagHash types.Hash) error {
	err := m.repo.UpdateRef(ctx, tagRefName(name), tagHash, 0)
	if errors.Is(err, meta.ErrConcurrentUpdate) {
		return fmt.Errorf("%w: %s", ErrTagExists, name)
	}
	return err
}

// ResolveTag 把标签名解析成 Tag 对象的哈希
func (m *Manager) ResolveTag(ctx context.Context, name string) (types.Hash, error) {
	ref, err := m.repo.GetRef(ctx, tagRefName(name))
	if errors.Is(err, meta.ErrRefNotFound) {
		return "", fmt.Errorf("%w: %s", ErrTagNotFound, name)
	}
	if err != nil {
		return "", err
	}
	return types.Hash(ref.Hash), nil
}

// DeleteTag 删除标签引用
// 只删名字，Tag 对象留在对象库里
func (m *Manager) DeleteTag(ctx context.Context, name string) error {
	err := m.repo.DeleteRef(ctx, tagRefName(name))
	if errors.Is(err, meta.ErrRefNotFound) {
		return fmt.Errorf("%w: %s", ErrTagNotFound, name)
	}
	return err
}

// ListTags 列出所有标签名及其指向的哈希 (按名字排序)
func (m *Manager) ListTags(ctx context.Context) (map[string]types.Hash, []string, error) {
	refs, err := m.repo.ListRefs(ctx, tagPrefix)
	if err != nil {
		return nil, nil, err
	}

	result := make(map[string]types.Hash, len(refs))
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		name := strings.TrimPrefix(ref.Name, tagPrefix)
		result[name] = types.Hash(ref.Hash)
		names = append(names, name)
	}
	return result, names, nil
}
