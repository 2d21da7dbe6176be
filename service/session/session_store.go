/*
 * @module service/session/session_store
 * @description 评估会话状态存储：数据集、规则手册、评估报告与重复检测结果按会话显式持有，
 *              由应用层注入各组件入口，组件不触碰任何环境全局状态
 * @architecture 分层架构 - 应用状态层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 会话创建 -> 组件读写会话内状态 -> TTL 过期由清扫任务回收
 * @rules 单会话单写者，跨会话不共享；访问即刷新最后活跃时间
 * @dependencies github.com/google/uuid, dq-assessment-service/service/models
 * @refs service/cleanup/session_janitor.go, api/controllers/
 */

package session

import (
	"sync"
	"time"

	"dq-assessment-service/service/models"
	"dq-assessment-service/service/monitoring"

	"github.com/google/uuid"
)

// State 单个评估会话持有的全部可变状态
type State struct {
	ID         string                   `json:"id"`
	Dataset    *models.Dataset          `json:"-"`
	Rulebook   *models.Rulebook         `json:"-"`
	Report     *models.AssessmentReport `json:"-"`
	DupResult  *models.DuplicateResult  `json:"-"`
	Partition  *models.GoldenPartition  `json:"-"`
	CreatedAt  time.Time                `json:"created_at"`
	LastAccess time.Time                `json:"last_access"`
}

// Store 带 TTL 的会话存储
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
	ttl      time.Duration
}

// NewStore 创建会话存储，ttl 为会话空闲过期时长
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{
		sessions: make(map[string]*State),
		ttl:      ttl,
	}
}

// GetOrCreate 查找会话，不存在则创建；id 为空时生成新会话
func (s *Store) GetOrCreate(id string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if state, ok := s.sessions[id]; ok {
			state.LastAccess = time.Now()
			return state
		}
	}
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now()
	state := &State{ID: id, CreatedAt: now, LastAccess: now}
	s.sessions[id] = state
	monitoring.ActiveSessions.Set(float64(len(s.sessions)))
	return state
}

// Get 查找会话并刷新活跃时间
func (s *Store) Get(id string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if ok {
		state.LastAccess = time.Now()
	}
	return state, ok
}

// Delete 删除会话
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	monitoring.ActiveSessions.Set(float64(len(s.sessions)))
}

// Count 当前会话数
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep 回收空闲超过 TTL 的会话，返回回收数
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for id, state := range s.sessions {
		if state.LastAccess.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		monitoring.ActiveSessions.Set(float64(len(s.sessions)))
	}
	return removed
}
