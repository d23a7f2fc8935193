package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/dto"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/repository"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/workflow"
	apperrors "github.com/Net-Geometry/otms-tidal-sub000/pkg/errors"
)

// ── 手写 map 存储的 mock 仓库 ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUserRepo(users ...*model.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		m.users[u.UserID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.UserID == "" {
		user.UserID = "user-" + user.EmployeeNo
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmployeeNo(_ context.Context, employeeNo string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.EmployeeNo == employeeNo {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filters *repository.UserListFilters, _, _ int) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if filters != nil && filters.Role != "" && u.Role != filters.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

type mockOvertimeRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.OvertimeRequest
	created []model.OvertimeRequest
	// applied 记录每次 ApplyTransition 的 (目标状态, ID 集合)
	applied []appliedPartition
	// failOnID 包含该 ID 的分区模拟乐观锁冲突
	failOnID string
}

type appliedPartition struct {
	status string
	ids    []string
}

func newMockOvertimeRepo(reqs ...*model.OvertimeRequest) *mockOvertimeRepo {
	m := &mockOvertimeRepo{byID: make(map[string]*model.OvertimeRequest)}
	for _, r := range reqs {
		m.byID[r.RequestID] = r
	}
	return m
}

func (m *mockOvertimeRepo) BatchCreate(_ context.Context, reqs []model.OvertimeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range reqs {
		if reqs[i].RequestID == "" {
			reqs[i].RequestID = "gen-" + reqs[i].StartTime.Format("150405")
		}
		stored := reqs[i]
		m.byID[stored.RequestID] = &stored
	}
	m.created = append(m.created, reqs...)
	return nil
}

func (m *mockOvertimeRepo) GetByID(_ context.Context, id string) (*model.OvertimeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.byID[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOvertimeRepo) ListByIDs(_ context.Context, ids []string) ([]model.OvertimeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OvertimeRequest
	for _, id := range ids {
		if r, ok := m.byID[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockOvertimeRepo) ApplyTransition(_ context.Context, reqs []*model.OvertimeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		if r.RequestID == m.failOnID {
			return apperrors.ErrOptimisticLock
		}
		ids[i] = r.RequestID
	}
	// 分区内全部行一起提交
	for _, r := range reqs {
		stored := *r
		stored.Version = r.Version + 1
		m.byID[r.RequestID] = &stored
	}
	status := ""
	if len(reqs) > 0 {
		status = reqs[0].Status
	}
	m.applied = append(m.applied, appliedPartition{status: status, ids: ids})
	return nil
}

func (m *mockOvertimeRepo) ListVisible(_ context.Context, viewerID string, rule workflow.VisibilityRule, _, _ int) ([]model.OvertimeRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inSet := func(set []workflow.Status, status string) bool {
		for _, s := range set {
			if string(s) == status {
				return true
			}
		}
		return false
	}
	var out []model.OvertimeRequest
	for _, r := range m.byID {
		visible := false
		switch rule.Scope {
		case workflow.ScopeEmployee:
			visible = r.EmployeeID == viewerID && inSet(rule.Statuses, r.Status)
		case workflow.ScopeSupervisor:
			visible = (r.SupervisorID == viewerID && inSet(rule.DirectStatuses, r.Status)) ||
				(r.RespectiveSupervisorID != nil && *r.RespectiveSupervisorID == viewerID &&
					inSet(rule.RespectiveStatuses, r.Status))
		default:
			visible = inSet(rule.Statuses, r.Status)
		}
		if visible {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockOvertimeRepo) ListByStatuses(_ context.Context, statuses []string, _, _ time.Time) ([]model.OvertimeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OvertimeRequest
	for _, r := range m.byID {
		for _, s := range statuses {
			if r.Status == s {
				out = append(out, *r)
				break
			}
		}
	}
	return out, nil
}

type mockNotificationRepo struct {
	mu      sync.Mutex
	entries []model.Notification
}

func (m *mockNotificationRepo) BatchCreate(_ context.Context, notifications []model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, notifications...)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, _, _ int) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.entries {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, int64(len(out)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].UserID != userID {
			continue
		}
		for _, id := range ids {
			if m.entries[i].NotificationID == id {
				m.entries[i].IsRead = true
			}
		}
	}
	return nil
}

func (m *mockNotificationRepo) byUser(userID string) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.entries {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type mockOutboxRepo struct {
	mu      sync.Mutex
	entries []model.NotificationOutbox
}

func (m *mockOutboxRepo) BatchCreate(_ context.Context, entries []model.NotificationOutbox) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range entries {
		if entries[i].OutboxID == "" {
			entries[i].OutboxID = "outbox-" + entries[i].RecipientID + "-" + entries[i].Kind
		}
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockOutboxRepo) ListDue(_ context.Context, now time.Time, limit int) ([]model.NotificationOutbox, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.NotificationOutbox
	for _, e := range m.entries {
		if e.Status == model.OutboxPending && !e.NextAttemptAt.After(now) {
			out = append(out, e)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockOutboxRepo) MarkSent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].OutboxID == id {
			m.entries[i].Status = model.OutboxSent
			return nil
		}
	}
	return errors.New("出箱条目不存在")
}

func (m *mockOutboxRepo) MarkFailed(_ context.Context, id string, attempts int, nextAttempt time.Time, lastError string, dead bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].OutboxID == id {
			if dead {
				m.entries[i].Status = model.OutboxDead
			}
			m.entries[i].Attempts = attempts
			m.entries[i].NextAttemptAt = nextAttempt
			m.entries[i].LastError = &lastError
			return nil
		}
	}
	return errors.New("出箱条目不存在")
}

func (m *mockOutboxRepo) snapshot() []model.NotificationOutbox {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.NotificationOutbox, len(m.entries))
	copy(out, m.entries)
	return out
}

// ── 其他测试替身 ──

// mockSender 记录发送的邮件，可配置失败
type mockSender struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

type sentMail struct {
	to      string
	subject string
}

func (m *mockSender) Send(to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

// stubNotifier 记录通知调用的空实现（加班服务测试用）
type stubNotifier struct {
	mu          sync.Mutex
	submissions int
	transitions []stubTransition
}

type stubTransition struct {
	action workflow.Action
	ids    []string
}

func (s *stubNotifier) NotifySubmission(_ context.Context, reqs []model.OvertimeRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions += len(reqs)
}

func (s *stubNotifier) NotifyTransition(_ context.Context, _ workflow.Actor, action workflow.Action, reqs []*model.OvertimeRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.RequestID
	}
	s.transitions = append(s.transitions, stubTransition{action: action, ids: ids})
}

func (s *stubNotifier) ProcessOutbox(context.Context) {}

func (s *stubNotifier) List(context.Context, string, bool, *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error) {
	return nil, 0, nil
}

func (s *stubNotifier) MarkRead(context.Context, string, []string) error { return nil }
