package meta

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"caf/pkg/core"
	"caf/pkg/types"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 通用辅助函数 (Helpers)
// 注意：文件名必须以 _test.go 结尾，否则会被编译进生产代码！
// -----------------------------------------------------------------------------

// mockHash 生成合法的测试用 Hash
func mockHash(input string) types.Hash {
	sum := sha256.Sum256([]byte(input))
	return types.Hash(hex.EncodeToString(sum[:]))
}

// mustNewTag 创建 Tag，如果失败直接终止测试
// 这让主测试代码极其干净
func mustNewTag(t *testing.T, target types.Hash, name, author, msg string, ts int64, msgAndArgs ...any) *core.Tag {
	t.Helper()
	tag, err := core.NewTag(target, core.TypeCommit, name, author, msg, ts)
	require.NoError(t, err, msgAndArgs...) // 透传消息
	return tag
}

// mustIndexTag 强制索引 Tag，失败则终止
func mustIndexTag(t *testing.T, repo *Repository, tag *core.Tag, msgAndArgs ...any) {
	t.Helper() // 关键：报错时回溯栈帧
	err := repo.IndexTag(context.Background(), tag)
	require.NoError(t, err, msgAndArgs...)
}

// mustUpdateRef 强制更新引用，失败则终止
// 适用于 Happy Path (预期成功的场景)
func mustUpdateRef(t *testing.T, repo *Repository, name string, newHash types.Hash, oldVersion int64, msgAndArgs ...any) {
	t.Helper()
	err := repo.UpdateRef(context.Background(), name, newHash, oldVersion)
	require.NoError(t, err, msgAndArgs...)
}
