/*
 * @module service/models/jsonb
 * @description 通用 JSONB 列类型，供案例模型的历史与扩展字段在 sqlite/postgres 间通用存储
 * @architecture 数据模型层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 模型读写 -> Scan/Value 序列化 -> 数据库
 * @rules Scan 接受 []byte 或 string，其余类型视为错误
 * @dependencies database/sql/driver, encoding/json
 * @refs service/models/case_models.go
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB 通用 JSON 映射类型
type JSONB map[string]interface{}

// 实现 Scanner 接口
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, err := jsonbBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, j)
}

// 实现 Valuer 接口
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// CaseHistoryEntry 案例审计轨迹条目
type CaseHistoryEntry struct {
	Timestamp string `json:"ts"`
	Action    string `json:"action"`
	Actor     string `json:"by"`
}

// CaseHistoryList 案例历史列表的 JSONB 存储类型
type CaseHistoryList []CaseHistoryEntry

func (l *CaseHistoryList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, err := jsonbBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, l)
}

func (l CaseHistoryList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func jsonbBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("类型断言失败: 不是 []byte 或 string")
	}
}
