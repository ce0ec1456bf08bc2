package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	// 1. 设置默认值 (Defaults)
	setDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		// 如果用户指定了文件，直接使用
		viper.SetConfigFile(cfgFile)
	} else {
		// 否则按优先级搜索
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 搜索顺序：
		// 1. 当前目录
		viper.AddConfigPath(".")
		// 2. 当前目录下的 .caf
		viper.AddConfigPath(".caf")
		// 3. 用户主目录下的 .caf
		viper.AddConfigPath(filepath.Join(home, ".caf"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config") // 找 config.yaml
	}

	// 3. 读取环境变量 (CAF_STORAGE_TYPE 等)
	viper.SetEnvPrefix("CAF")
	viper.AutomaticEnv()

	// 4. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		// 如果只是没找到配置文件，但可能有环境变量，不一定算错
		// 但如果是配置文件格式错，那就是错
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}

	return nil
}

func setDefaults() {
	// 存储默认值
	wd, _ := os.Getwd()
	repoPath := filepath.Join(wd, ".caf")
	viper.SetDefault("storage.path", filepath.Join(repoPath, "objects"))
	viper.SetDefault("storage.type", "disk")

	// 元数据默认值 (本地 SQLite)
	viper.SetDefault("meta.sqlite_path", filepath.Join(repoPath, "meta.db"))

	// S3 默认值 (仅当 storage.type = "s3" 时生效)
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("s3.bucket", "caf-objects")

	// 缓存默认关闭 (cache.redis_url 非空时启用)
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.ttl", "24h")
}
