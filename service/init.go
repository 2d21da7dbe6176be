/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移与全局服务实例装配
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 应用启动时执行初始化流程：数据库 -> 迁移 -> 服务实例
 * @rules 核心评估引擎不持有持久化状态；案例库默认使用内存 sqlite，配置环境变量后切换 postgres
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite
 * @refs service/models, service/casemgmt, service/session
 */

package service

import (
	"fmt"
	"log"
	"os"
	"time"

	"dq-assessment-service/service/casemgmt"
	"dq-assessment-service/service/cleanup"
	"dq-assessment-service/service/dataquality"
	"dq-assessment-service/service/dedup"
	"dq-assessment-service/service/events"
	"dq-assessment-service/service/models"
	"dq-assessment-service/service/session"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	DB *gorm.DB

	GlobalQualityEngine    *dataquality.DataQualityEngine
	GlobalColumnProfiler   *dedup.ColumnProfiler
	GlobalDupDetector      *dedup.DuplicateDetector
	GlobalSurvivorship     *dedup.SurvivorshipResolver
	GlobalCaseService      *casemgmt.CaseService
	GlobalSessionStore     *session.Store
	GlobalSessionJanitor   *cleanup.SessionJanitor
	GlobalEventBroadcaster *events.Broadcaster
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化案例数据库连接。
// 默认内存 sqlite 保持单次运行内的临时存储语义；
// 设置 DATABASE_URL 或 DB_HOST 等环境变量后切换到 postgres
func initDatabase() {
	var err error

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		DB, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	} else if os.Getenv("DB_HOST") != "" {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
			host, port, user, password, dbname, sslmode, schema)
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	} else {
		DB, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	}

	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	log.Println("数据库连接成功")
}

// runMigrations 执行数据库迁移
func runMigrations() {
	if err := DB.AutoMigrate(&models.Case{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库迁移完成")
}

// initServices 装配全局服务实例
func initServices() {
	GlobalQualityEngine = dataquality.NewDataQualityEngine()
	GlobalColumnProfiler = dedup.NewColumnProfiler()
	GlobalDupDetector = dedup.NewDuplicateDetector()
	GlobalSurvivorship = dedup.NewSurvivorshipResolver()
	GlobalCaseService = casemgmt.NewCaseService(DB)

	ttl := 2 * time.Hour
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			ttl = parsed
		}
	}
	GlobalSessionStore = session.NewStore(ttl)
	GlobalSessionJanitor = cleanup.NewSessionJanitor(GlobalSessionStore)
	GlobalEventBroadcaster = events.NewBroadcasterFromEnv()

	log.Println("服务实例初始化完成")
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
