package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/mengeric/booklamp-jobs-go/client"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// kvEntry 映射 KV 表，保存活跃任务指针等单值。
type kvEntry struct {
	Name      string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string { return "booklamp_kv" }

// jobRecord 映射任务表。
type jobRecord struct {
	ID           uint       `gorm:"primaryKey"`
	JobID        string     `gorm:"uniqueIndex;size:64"`
	Status       string     `gorm:"index;size:16"`
	Progress     int        `gorm:"default:0"`
	Result       string     `gorm:"type:text"`
	Error        string     `gorm:"type:text"`
	FunctionName string     `gorm:"size:64"`
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time `gorm:"index"`
}

func (jobRecord) TableName() string { return "booklamp_jobs" }

// Store 基于 GORM 的存储实现：既是 storage.KV，也是任务记录的 JobStore。
type Store struct{ db *gorm.DB }

// New 创建 Store；如需建表请先调用 Migrate。
func New(db *gorm.DB) *Store { return &Store{db: db} }

// Migrate 自动建表。
func Migrate(db *gorm.DB) error { return db.AutoMigrate(&kvEntry{}, &jobRecord{}) }

// OpenSQLite 打开 SQLite 数据库并完成建表，path 可为 ":memory:"。
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Get 实现 KV.Get。
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var e kvEntry
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return e.Value, true, nil
}

// Set 实现 KV.Set。
func (s *Store) Set(ctx context.Context, key, value string) error {
	e := kvEntry{Name: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

// Delete 实现 KV.Delete。
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("name = ?", key).Delete(&kvEntry{}).Error
}

// Upsert 按任务 ID 插入或覆盖任务记录。
func (s *Store) Upsert(ctx context.Context, job *client.Job) error {
	m := toRecord(job)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "progress", "result", "error", "function_name", "started_at", "completed_at",
		}),
	}).Create(&m).Error
}

// GetJob 读取任务；不存在返回 client.ErrJobNotFound。
func (s *Store) GetJob(ctx context.Context, id string) (*client.Job, error) {
	var m jobRecord
	err := s.db.WithContext(ctx).Where("job_id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, client.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromRecord(m), nil
}

// PruneFinished 删除 before 之前结束的终态任务，返回删除条数。
func (s *Store) PruneFinished(ctx context.Context, before time.Time) (int, error) {
	res := s.db.WithContext(ctx).
		Where("status IN ? AND completed_at < ?", []string{string(client.StatusCompleted), string(client.StatusFailed)}, before).
		Delete(&jobRecord{})
	return int(res.RowsAffected), res.Error
}

func toRecord(j *client.Job) jobRecord {
	return jobRecord{JobID: j.ID, Status: string(j.Status), Progress: j.Progress, Result: j.Result, Error: j.Error,
		FunctionName: j.FunctionName, CreatedAt: j.CreatedAt, StartedAt: j.StartedAt, CompletedAt: j.CompletedAt}
}

func fromRecord(m jobRecord) *client.Job {
	return &client.Job{ID: m.JobID, Status: client.JobStatus(m.Status), Progress: m.Progress, Result: m.Result, Error: m.Error,
		FunctionName: m.FunctionName, CreatedAt: m.CreatedAt, StartedAt: m.StartedAt, CompletedAt: m.CompletedAt}
}
