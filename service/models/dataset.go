/*
 * @module service/models/dataset
 * @description 数据集模型，定义评估引擎处理的表格数据结构及空值判定辅助函数
 * @architecture 数据模型层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 外部加载器产出数据集 -> 规则执行/重复检测消费 -> 不可变
 * @rules 数据集在一次评估运行期间只读，行身份由位置索引确定
 * @dependencies github.com/spf13/cast, golang.org/x/crypto/blake2b
 * @refs service/dataquality/, service/dedup/
 */

package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/crypto/blake2b"
)

// Row 单行记录，列名到标量值的映射
type Row map[string]interface{}

// Dataset 表格数据集，列顺序显式保留
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// RowCount 返回记录数
func (d *Dataset) RowCount() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn 判断列是否存在
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// NonInternalColumns 返回非内部列（下划线前缀为内部命名空间）
func (d *Dataset) NonInternalColumns() []string {
	cols := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		if !strings.HasPrefix(c, "_") {
			cols = append(cols, c)
		}
	}
	return cols
}

// Copy 返回数据集的行级拷贝，供追加派生列使用
func (d *Dataset) Copy() *Dataset {
	out := &Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([]Row, len(d.Rows)),
	}
	for i, row := range d.Rows {
		nr := make(Row, len(row))
		for k, v := range row {
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out
}

// Fingerprint 计算数据集指纹，用于会话状态与事件载荷中的标识
func (d *Dataset) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	cols := append([]string(nil), d.Columns...)
	sort.Strings(cols)
	h.Write([]byte(strings.Join(cols, "\x1f")))
	for _, row := range d.Rows {
		for _, c := range cols {
			h.Write([]byte(cast.ToString(row[c])))
			h.Write([]byte{0x1e})
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// IsNullOrEmpty 判断值是否为空：nil、去空白后为空串或字面 "nan"（不区分大小写）
func IsNullOrEmpty(value interface{}) bool {
	if value == nil {
		return true
	}
	str := strings.TrimSpace(cast.ToString(value))
	return str == "" || strings.EqualFold(str, "nan")
}
