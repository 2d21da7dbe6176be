/*
 * @module service/models/case_models
 * @description 数据治理案例数据模型，贯穿案例创建、指派、状态流转与关闭的完整生命周期
 * @architecture 数据模型层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow Open -> In Progress -> Resolved -> Closed（允许任意方向流转，每次流转追加历史）
 * @rules CaseID 形如 CASE-0001，按创建顺序递增且唯一；历史条目只追加不修改
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/casemgmt/case_service.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 案例状态常量
const (
	CaseStatusOpen        = "Open"
	CaseStatusInProgress  = "In Progress"
	CaseStatusUnderReview = "Under Review"
	CaseStatusResolved    = "Resolved"
	CaseStatusClosed      = "Closed"
)

// 案例优先级常量
const (
	CasePriorityLow      = "Low"
	CasePriorityMedium   = "Medium"
	CasePriorityHigh     = "High"
	CasePriorityCritical = "Critical"
)

// 案例类型常量
const (
	CaseTypeDataQuality = "Data Quality"
	CaseTypeDuplicate   = "Duplicate Records"
	CaseTypeManual      = "Manual Review"
)

// CaseStatuses 合法状态集合，用于入参校验
var CaseStatuses = []string{CaseStatusOpen, CaseStatusInProgress, CaseStatusUnderReview, CaseStatusResolved, CaseStatusClosed}

// CasePriorities 合法优先级集合
var CasePriorities = []string{CasePriorityLow, CasePriorityMedium, CasePriorityHigh, CasePriorityCritical}

// Case 数据治理案例
type Case struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CaseID          string          `json:"case_id" gorm:"uniqueIndex;type:varchar(32);not null"` // 业务编号 CASE-NNNN
	Title           string          `json:"title" gorm:"type:varchar(512);not null"`
	Type            string          `json:"type" gorm:"type:varchar(64);index"`
	Priority        string          `json:"priority" gorm:"type:varchar(16);index"`
	Status          string          `json:"status" gorm:"type:varchar(32);index"`
	Description     string          `json:"description" gorm:"type:text"`
	AffectedRecords int             `json:"affected_records"`
	AffectedColumns string          `json:"affected_columns" gorm:"type:text"`
	Source          string          `json:"source" gorm:"type:varchar(64)"` // quality_assessment / duplicate_detection / manual
	AssignedTo      string          `json:"assigned_to" gorm:"type:varchar(128);index"`
	History         CaseHistoryList `json:"history" gorm:"type:text"`
	Extra           JSONB           `json:"extra,omitempty" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
}

// TableName 指定表名
func (Case) TableName() string {
	return "dq_cases"
}

// BeforeCreate 创建前生成主键
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
