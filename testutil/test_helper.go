/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, time
 * @refs service/models
 */

package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"dq-assessment-service/service/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.Case{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"dq_cases",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

var idCounter int64

func generateSuffix() string {
	n := atomic.AddInt64(&idCounter, 1)
	return fmt.Sprintf("%d_%d", time.Now().UnixNano(), n)
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// CaseOption 案例选项函数类型
type CaseOption func(*models.Case)

// CreateCase 创建测试案例
func (f *TestDataFactory) CreateCase(opts ...CaseOption) *models.Case {
	c := &models.Case{
		CaseID:      fmt.Sprintf("CASE-%s", generateSuffix()),
		Title:       "测试案例",
		Type:        models.CaseTypeManual,
		Priority:    models.CasePriorityMedium,
		Status:      models.CaseStatusOpen,
		Description: "这是一个测试案例",
		Source:      "manual",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	// 应用选项
	for _, opt := range opts {
		opt(c)
	}

	err := f.DB.Create(c).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test case: %v", err))
	}

	return c
}

// SampleDataset 构造带典型质量问题的样例数据集
func SampleDataset() *models.Dataset {
	return &models.Dataset{
		Columns: []string{"id", "name", "email", "age", "city"},
		Rows: []models.Row{
			{"id": 1, "name": "Alice", "email": "alice@example.com", "age": 30, "city": "Beijing"},
			{"id": 2, "name": "Bob", "email": "bob@example.com", "age": 25, "city": "Shanghai"},
			{"id": 3, "name": "alice", "email": "ALICE@EXAMPLE.COM", "age": 30, "city": "beijing"},
			{"id": 4, "name": "", "email": "invalid-email", "age": -1, "city": "Shenzhen"},
			{"id": 5, "name": "Carol", "email": nil, "age": 41, "city": "Guangzhou"},
		},
	}
}
