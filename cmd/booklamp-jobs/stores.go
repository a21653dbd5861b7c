package main

import (
	"fmt"
	"time"

	"github.com/mengeric/booklamp-jobs-go/booklamp"
	"github.com/mengeric/booklamp-jobs-go/client"
	"github.com/mengeric/booklamp-jobs-go/config"
	"github.com/mengeric/booklamp-jobs-go/storage"
	"github.com/mengeric/booklamp-jobs-go/storage/gormstore"
	"github.com/mengeric/booklamp-jobs-go/storage/memstore"
	"github.com/mengeric/booklamp-jobs-go/storage/redisstore"
)

// openKV 按配置构造活跃任务指针存储。
func openKV(c config.Config) (storage.KV, func(), error) {
	switch c.Storage.Driver {
	case "memory":
		return memstore.New(), func() {}, nil
	case "sqlite":
		db, err := gormstore.OpenSQLite(c.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return gormstore.New(db), closeGorm(db), nil
	case "redis":
		s, err := redisstore.New(c.Storage.RedisURL, "")
		if err != nil {
			return nil, nil, fmt.Errorf("open redis: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
}

// openJobStore 按配置构造任务记录存储；nil 表示使用服务内置内存存储。
// redis 驱动只承载指针，任务记录仍在内存中。
func openJobStore(c config.Config) (booklamp.JobStore, func(), error) {
	switch c.Storage.Driver {
	case "memory", "redis":
		return nil, func() {}, nil
	case "sqlite":
		db, err := gormstore.OpenSQLite(c.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return gormstore.New(db), closeGorm(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
}

// newJobsAPI 按配置构造任务接口客户端。
func newJobsAPI(c config.Config) client.JobsAPI {
	return client.NewHTTPJobsAPI(c.BaseURL, client.WithHTTPTimeout(time.Duration(c.HTTPTimeoutMS)*time.Millisecond))
}
