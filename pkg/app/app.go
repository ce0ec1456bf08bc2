// pkg/app/app.go
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"caf/pkg/meta"
	"caf/pkg/refs"
	"caf/pkg/storage"
	"caf/pkg/storage/cache"
	"caf/pkg/storage/disk"
	"caf/pkg/storage/s3"

	"github.com/spf13/viper"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
// 它持有所有“单例”服务
type App struct {
	Store    storage.Store
	Refs     *refs.Manager
	Meta     *meta.Repository
	RepoPath string
}

// NewApp 是工厂函数，负责组装这一台机器
// 它遵循 Viper 的配置，但不知道具体的 CLI 命令
func NewApp(ctx context.Context) (*App, error) {
	// 1. 获取仓库根路径 (Single Source of Truth)
	storePath := viper.GetString("storage.path")
	if storePath == "" {
		return nil, fmt.Errorf("storage path not set")
	}
	repoPath := filepath.Dir(storePath)

	// 2. 初始化存储层 (Dependency Injection)
	store, err := buildStore(ctx, storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// 3. 初始化元数据层
	// 引用和标签索引存在本地 SQLite (服务端部署时换成 Postgres)
	metaDB, err := buildMetaDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init metadata db: %w", err)
	}
	repo := meta.NewRepository(metaDB)

	return &App{
		Store:    store,
		Refs:     refs.NewManager(repo),
		Meta:     repo,
		RepoPath: repoPath,
	}, nil
}

// buildStore 根据配置选择存储后端
func buildStore(ctx context.Context, storePath string) (storage.Store, error) {
	var backend storage.Store
	var err error

	switch viper.GetString("storage.type") {
	case "s3":
		backend, err = s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString("s3.endpoint"),
			Region:          viper.GetString("s3.region"),
			Bucket:          viper.GetString("s3.bucket"),
			AccessKeyID:     viper.GetString("s3.access_key_id"),
			SecretAccessKey: viper.GetString("s3.secret_access_key"),
		})
	default:
		backend, err = disk.NewAdapter(storePath)
	}
	if err != nil {
		return nil, err
	}

	// 可选的 Redis 存在性缓存 (主要配合 S3 后端使用)
	if redisURL := viper.GetString("cache.redis_url"); redisURL != "" {
		cached, err := cache.NewCachedStore(backend, cache.Config{
			RedisURL: redisURL,
			TTL:      viper.GetDuration("cache.ttl"),
		})
		if err != nil {
			return nil, err
		}
		return cached, nil
	}

	return backend, nil
}

// buildMetaDB 根据配置选择元数据库
func buildMetaDB(ctx context.Context) (*meta.DB, error) {
	if viper.GetString("meta.driver") == "postgres" {
		return meta.NewDB(ctx, meta.Config{
			Host:     viper.GetString("meta.host"),
			Port:     viper.GetInt("meta.port"),
			User:     viper.GetString("meta.user"),
			Password: viper.GetString("meta.password"),
			DBName:   viper.GetString("meta.dbname"),
			SSLMode:  viper.GetString("meta.sslmode"),
		})
	}
	return meta.NewSQLiteDB(viper.GetString("meta.sqlite_path"))
}
