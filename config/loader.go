package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPrefix 环境变量覆盖前缀。
const envPrefix = "BOOKLAMP_"

// Load 从 YAML 文件加载配置，并应用 BOOKLAMP_* 环境变量覆盖。
// 参数：file 为空时只使用默认值与环境变量。
func Load(file string) (Config, error) {
	var c Config
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, err
		}
	}
	applyEnv(&c)
	c.withDefaults()
	return c, nil
}

// MustLoad 从 YAML 文件加载配置（失败 panic）。
func MustLoad(file string) Config {
	c, err := Load(file)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadEnvFile 将 .env 文件载入进程环境；文件不存在不视为错误，已有变量不覆盖。
func LoadEnvFile(file string) error {
	if file == "" {
		return nil
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func applyEnv(c *Config) {
	set := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	set("LISTEN", &c.Listen)
	set("BASE_URL", &c.BaseURL)
	set("LOG_LEVEL", &c.Log.Level)
	set("STORAGE_DRIVER", &c.Storage.Driver)
	set("SQLITE_PATH", &c.Storage.SQLitePath)
	set("REDIS_URL", &c.Storage.RedisURL)
}
