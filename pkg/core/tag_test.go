package core

import (
	"strings"
	"testing"

	"caf/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustNewTag 构造合法 Tag，失败直接终止测试
func mustNewTag(t *testing.T, target string, targetType ObjectType, name, author, msg string, ts int64) *Tag {
	t.Helper()
	tag, err := NewTag(types.Hash(target), targetType, name, author, msg, ts)
	require.NoError(t, err)
	return tag
}

// -----------------------------------------------------------------------------
// 1. 构造校验 (InvalidArgument)
// -----------------------------------------------------------------------------

func TestTag_Validation(t *testing.T) {
	valid := mockHash("target")

	cases := []struct {
		name       string
		target     string
		targetType ObjectType
		tagName    string
	}{
		{"empty target", "", TypeCommit, "v1.0"},
		{"short target", valid[:63], TypeCommit, "v1.0"},
		{"non-hex target", strings.Repeat("z", 64), TypeCommit, "v1.0"},
		{"unknown target type", valid, ObjectType("branch"), "v1.0"},
		{"empty target type", valid, ObjectType(""), "v1.0"},
		{"empty name", valid, TypeCommit, ""},
		{"name with space", valid, TypeCommit, "v1 .0"},
		{"name with slash", valid, TypeCommit, "release/v1"},
		{"name with colon", valid, TypeCommit, "v1:0"},
		{"name with control char", valid, TypeCommit, "v1\x00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTag(types.Hash(tc.target), tc.targetType, tc.tagName, "alice", "msg", 1700000000)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	// 空 message 是合法的
	tag, err := NewTag(types.Hash(valid), TypeCommit, "v1.0", "alice", "", 1700000000)
	require.NoError(t, err)
	assert.Empty(t, tag.Message)

	// Tag 可以指向另一个 Tag (嵌套标注)
	_, err = NewTag(types.Hash(valid), TypeTag, "meta-tag", "alice", "", 1700000000)
	assert.NoError(t, err)
}

func TestTag_CustomNamePolicy(t *testing.T) {
	// 字符集是仓库层策略：换一个宽松的策略，带斜杠的名字也能通过
	loose := func(name string) error {
		if name == "" {
			return assert.AnError
		}
		return nil
	}

	_, err := NewTagWithPolicy(loose, types.Hash(mockHash("t")), TypeCommit, "release/v1", "alice", "", 1700000000)
	assert.NoError(t, err)

	// 默认策略仍然拒绝
	_, err = NewTag(types.Hash(mockHash("t")), TypeCommit, "release/v1", "alice", "", 1700000000)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// -----------------------------------------------------------------------------
// 2. 确定性与相等性
// -----------------------------------------------------------------------------

func TestTag_Determinism(t *testing.T) {
	target := mockHash("deterministic")
	t1 := mustNewTag(t, target, TypeCommit, "v2.1", "bob <b@x.com>", "stable", 1700000000)
	t2 := mustNewTag(t, target, TypeCommit, "v2.1", "bob <b@x.com>", "stable", 1700000000)

	// 同样的字段元组 => 同样的序列化 => 同样的哈希
	assert.Equal(t, t1.ID(), t2.ID())
	assert.Equal(t, t1.Bytes(), t2.Bytes())
	assert.True(t, t1.Equal(t2))

	// 同一进程内重复读取哈希必须稳定
	assert.Equal(t, t1.ID(), t1.ID())
}

func TestTag_HashSensitivity(t *testing.T) {
	target := mockHash("base")
	base := mustNewTag(t, target, TypeCommit, "v1.0", "alice", "release", 1700000000)

	variants := []*Tag{
		mustNewTag(t, mockHash("other"), TypeCommit, "v1.0", "alice", "release", 1700000000),
		mustNewTag(t, target, TypeTree, "v1.0", "alice", "release", 1700000000),
		mustNewTag(t, target, TypeCommit, "v1.1", "alice", "release", 1700000000),
		mustNewTag(t, target, TypeCommit, "v1.0", "alicia", "release", 1700000000),
		mustNewTag(t, target, TypeCommit, "v1.0", "alice", "release!", 1700000000),
		mustNewTag(t, target, TypeCommit, "v1.0", "alice", "release", 1700000001), // 差一秒
	}

	for i, v := range variants {
		assert.NotEqual(t, base.ID(), v.ID(), "variant %d should change the hash", i)
		assert.False(t, base.Equal(v))
	}
}

// -----------------------------------------------------------------------------
// 3. Round-Trip (serialize -> deserialize)
// -----------------------------------------------------------------------------

func TestTag_RoundTrip(t *testing.T) {
	original := mustNewTag(t, mockHash("rt"), TypeCommit, "v3.0-rc1", "carol <c@x.com>", "first release\ncandidate", 1699999999)

	decoded, err := DecodeTag(original.Bytes())
	require.NoError(t, err)

	// 字段逐一还原
	assert.Equal(t, original.Target.Hash, decoded.Target.Hash)
	assert.Equal(t, original.TargetType, decoded.TargetType)
	assert.Equal(t, original.Name, decoded.Name)
	assert.Equal(t, original.Author, decoded.Author)
	assert.Equal(t, original.Timestamp, decoded.Timestamp)
	assert.Equal(t, original.Message, decoded.Message)

	// 哈希一致 + 再序列化逐字节一致
	assert.Equal(t, original.ID(), decoded.ID())
	assert.Equal(t, original.Bytes(), decoded.Bytes())
	assert.True(t, original.Equal(decoded))
}

func TestTag_RoundTrip_DelimiterBytes(t *testing.T) {
	// message 里故意塞进换行、引号、冒号、NUL 等“看起来像分隔符”的字节
	// CBOR 是长度前缀编码，这些内容不可能被误认为字段边界
	msg := "line1\nline2\r\n\"quoted\": {a:1},\x00end"
	author := "eve \"the tagger\"\n<e@x.com>"

	original := mustNewTag(t, mockHash("delim"), TypeBlob, "tricky", author, msg, 1700000000)

	decoded, err := DecodeTag(original.Bytes())
	require.NoError(t, err)
	assert.Equal(t, msg, decoded.Message)
	assert.Equal(t, author, decoded.Author)
	assert.True(t, original.Equal(decoded))
}

// -----------------------------------------------------------------------------
// 4. 反序列化严格性 (MalformedObject)
// -----------------------------------------------------------------------------

func TestDecodeTag_Malformed(t *testing.T) {
	valid := mustNewTag(t, mockHash("m"), TypeCommit, "v1.0", "alice", "ok", 1700000000)
	data := valid.Bytes()

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodeTag(data[:len(data)-3])
		assert.ErrorIs(t, err, ErrMalformedObject)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := DecodeTag(append(append([]byte{}, data...), 0x00))
		assert.ErrorIs(t, err, ErrMalformedObject)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := DecodeTag(nil)
		assert.ErrorIs(t, err, ErrMalformedObject)
	})

	t.Run("wrong type token", func(t *testing.T) {
		bad := *valid
		bad.TypeVal = TypeCommit
		badData, err := em.Marshal(&bad)
		require.NoError(t, err)

		_, err = DecodeTag(badData)
		assert.ErrorIs(t, err, ErrMalformedObject)
	})

	t.Run("unknown target type", func(t *testing.T) {
		bad := *valid
		bad.TargetType = ObjectType("branch")
		badData, err := em.Marshal(&bad)
		require.NoError(t, err)

		_, err = DecodeTag(badData)
		assert.ErrorIs(t, err, ErrMalformedObject)
		assert.Contains(t, err.Error(), "target type")
	})

	t.Run("empty name", func(t *testing.T) {
		bad := *valid
		bad.Name = ""
		badData, err := em.Marshal(&bad)
		require.NoError(t, err)

		_, err = DecodeTag(badData)
		assert.ErrorIs(t, err, ErrMalformedObject)
	})

	t.Run("non-canonical encoding", func(t *testing.T) {
		// 多出一个未知字段：解码时被忽略，但重新序列化后字节不一致
		// 这样的输入不能被接受，否则同一个 Tag 会有两个哈希
		type fatTag struct {
			TypeVal    ObjectType `cbor:"t"`
			Target     Link       `cbor:"tg"`
			TargetType ObjectType `cbor:"tt"`
			Name       string     `cbor:"n"`
			Author     string     `cbor:"a"`
			Timestamp  int64      `cbor:"ts"`
			Message    string     `cbor:"m"`
			Extra      string     `cbor:"zz"`
		}
		fat := fatTag{
			TypeVal:    TypeTag,
			Target:     valid.Target,
			TargetType: valid.TargetType,
			Name:       valid.Name,
			Author:     valid.Author,
			Timestamp:  valid.Timestamp,
			Message:    valid.Message,
			Extra:      "smuggled",
		}
		fatData, err := em.Marshal(&fat)
		require.NoError(t, err)

		_, err = DecodeTag(fatData)
		assert.ErrorIs(t, err, ErrMalformedObject)
		assert.Contains(t, err.Error(), "canonical")
	})
}

// -----------------------------------------------------------------------------
// 5. 完整场景
// -----------------------------------------------------------------------------

func TestTag_Scenario(t *testing.T) {
	// v1.0 指向一个 commit，作者 Alice，消息 "Release"
	target := "a1b2c3" + strings.Repeat("a1b2c3", 9) + "a1b2" // 64 hex chars
	require.Len(t, target, 64)

	tag, err := NewTag(types.Hash(target), TypeCommit, "v1.0", "Alice <a@x.com>", "Release", 1700000000)
	require.NoError(t, err)

	// serialize -> deserialize 得到相等的值
	decoded, err := DecodeTag(tag.Bytes())
	require.NoError(t, err)
	assert.True(t, tag.Equal(decoded))

	// 哈希在同一进程内重复计算保持稳定
	id := tag.ID()
	for i := 0; i < 3; i++ {
		again, err := NewTag(types.Hash(target), TypeCommit, "v1.0", "Alice <a@x.com>", "Release", 1700000000)
		require.NoError(t, err)
		assert.Equal(t, id, again.ID())
	}
}
