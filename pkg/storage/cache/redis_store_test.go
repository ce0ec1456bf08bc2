package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"caf/pkg/core"
	"caf/pkg/types"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 1. SpyStore (间谍存储)
// 用于统计底层方法被调用的次数，验证请求是否穿透了缓存
// -----------------------------------------------------------------------------
type SpyStore struct {
	hasCount int32
	putCount int32
	objects  map[types.Hash][]byte
}

func NewSpyStore() *SpyStore {
	return &SpyStore{
		objects: make(map[types.Hash][]byte),
	}
}

func (s *SpyStore) Has(ctx context.Context, hash types.Hash) (bool, error) {
	atomic.AddInt32(&s.hasCount, 1) // 记录调用次数
	_, ok := s.objects[hash]
	return ok, nil
}

func (s *SpyStore) Put(ctx context.Context, obj core.Object) error {
	atomic.AddInt32(&s.putCount, 1) // 记录调用次数
	s.objects[obj.ID()] = obj.Bytes()
	return nil
}

// 其他接口存根 (Stub)
func (s *SpyStore) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) { return nil, nil }
func (s *SpyStore) ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error) {
	return "", nil
}

// -----------------------------------------------------------------------------
// 2. 测试辅助
// -----------------------------------------------------------------------------

func isRedisAvailable(t *testing.T) bool {
	conn, err := net.DialTimeout("tcp", "localhost:6379", 1*time.Second)
	if err != nil {
		t.Logf("⚠️ Redis not reachable at localhost:6379. Skipping integration tests.")
		return false
	}
	conn.Close()
	return true
}

func mockHash(input string) types.Hash {
	sum := sha256.Sum256([]byte(input))
	return types.Hash(hex.EncodeToString(sum[:]))
}

// -----------------------------------------------------------------------------
// 3. 集成测试 (需要本地 Redis)
// -----------------------------------------------------------------------------

func TestCachedStore_PutAndHas(t *testing.T) {
	if !isRedisAvailable(t) {
		t.Skip("Redis not available")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	// 用独立 DB 避免污染；测试结束清理
	t.Cleanup(func() { client.FlushDB(context.Background()) })

	spy := NewSpyStore()
	store := newWithClient(spy, client, time.Minute)

	tag, err := core.NewTag(mockHash("target"), core.TypeCommit, "v1.0", "alice", "release", 1700000000)
	require.NoError(t, err)

	// 1. 第一次 Put：穿透到底层
	require.NoError(t, store.Put(ctx, tag))
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.putCount))

	// 2. 第二次 Put：Redis 命中，不再穿透
	before := atomic.LoadInt32(&spy.hasCount)
	require.NoError(t, store.Put(ctx, tag))
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.putCount), "第二次 Put 应该被缓存拦截")
	assert.Equal(t, before, atomic.LoadInt32(&spy.hasCount), "缓存命中时不应该查询底层 Has")

	// 3. Has：直接从 Redis 返回
	exists, err := store.Has(ctx, tag.ID())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCachedStore_CacheFill(t *testing.T) {
	if !isRedisAvailable(t) {
		t.Skip("Redis not available")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	t.Cleanup(func() { client.FlushDB(context.Background()) })

	spy := NewSpyStore()
	// 对象只存在于底层，Redis 里没有
	tag, err := core.NewTag(mockHash("fill"), core.TypeBlob, "fill-test", "bob", "", 1700000000)
	require.NoError(t, err)
	spy.objects[tag.ID()] = tag.Bytes()

	store := newWithClient(spy, client, time.Minute)

	// 第一次 Has：缓存未命中，穿透底层并异步回填
	exists, err := store.Has(ctx, tag.ID())
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.hasCount))

	// 等待异步回填完成
	require.Eventually(t, func() bool {
		n, err := client.Exists(context.Background(), "caf:obj:"+string(tag.ID())).Result()
		return err == nil && n > 0
	}, 2*time.Second, 50*time.Millisecond, "缓存回填应该在后台完成")

	// 第二次 Has：命中缓存，底层计数不再增加
	exists, err = store.Has(ctx, tag.ID())
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.hasCount), "回填后应该直接命中缓存")
}
