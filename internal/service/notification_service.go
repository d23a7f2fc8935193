package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Net-Geometry/otms-tidal-sub000/config"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/dto"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/repository"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/workflow"
)

// NotificationService 通知业务接口。
// 投递对审批流严格尽力而为：入箱、落站内通知、发邮件的任何失败
// 只记录日志，绝不向审批事务传播错误。
type NotificationService interface {
	NotifySubmission(ctx context.Context, reqs []model.OvertimeRequest)
	NotifyTransition(ctx context.Context, actor workflow.Actor, action workflow.Action, reqs []*model.OvertimeRequest)
	// ProcessOutbox 投递到期的出箱条目；由定时任务驱动，也在入箱后
	// 立即触发一次
	ProcessOutbox(ctx context.Context)
	List(ctx context.Context, userID string, unreadOnly bool, page *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, userID string, ids []string) error
}

// notificationService NotificationService 实现
type notificationService struct {
	cfg    *config.WorkflowConfig
	repo   *repository.Repository
	sender Sender
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(cfg *config.Config, repo *repository.Repository, sender Sender, logger *zap.Logger) NotificationService {
	return &notificationService{cfg: &cfg.Workflow, repo: repo, sender: sender, logger: logger}
}

// ── 收件人推导 ──

// target 单条通知的收件目标：指定用户，或指定角色的全部用户
type target struct {
	userID string
	role   string
	kind   string
}

// submissionTargets 提交通知：直属主管进入验证队列；
// Route B 同时告知指示主管
func submissionTargets(req *model.OvertimeRequest) []target {
	out := []target{{userID: req.SupervisorID, kind: model.NotificationSubmission}}
	if req.HasRespectiveSupervisor() {
		out = append(out, target{userID: *req.RespectiveSupervisorID, kind: model.NotificationSubmission})
	}
	return out
}

// transitionTargets 按 (动作, 转移后状态) 推导收件目标。
// req 已完成状态转移，Status 为目标状态。
func transitionTargets(action workflow.Action, req *model.OvertimeRequest) []target {
	status := workflow.Status(req.Status)
	var out []target

	switch action {
	case workflow.ActionApprove, workflow.ActionConfirm:
		switch status {
		case workflow.StatusPendingSupervisorConfirmation:
			// Route B 验证通过，进入确认子流程
			out = append(out, target{userID: req.EmployeeID, kind: model.NotificationVerificationPending})
		case workflow.StatusSupervisorConfirmed, workflow.StatusSupervisorVerified:
			out = append(out,
				target{userID: req.EmployeeID, kind: model.NotificationApproved},
				target{role: model.RoleHR, kind: model.NotificationReadyForCertification})
		case workflow.StatusHRCertified:
			out = append(out,
				target{userID: req.EmployeeID, kind: model.NotificationApproved},
				target{role: model.RoleManagement, kind: model.NotificationReadyForApproval})
		case workflow.StatusManagementApproved:
			out = append(out, target{userID: req.EmployeeID, kind: model.NotificationApproved})
		}

	case workflow.ActionReject:
		out = append(out, target{userID: req.EmployeeID, kind: model.NotificationRejected})
		switch status {
		case workflow.StatusPendingHRRecertification:
			// 管理层退回，HR 重新排队
			out = append(out, target{role: model.RoleHR, kind: model.NotificationReadyForCertification})
		case workflow.StatusPendingVerification:
			// HR 驳回 Route A，直属主管重新验证
			out = append(out, target{userID: req.SupervisorID, kind: model.NotificationSubmission})
		case workflow.StatusPendingRespectiveConfirmation:
			// HR 驳回 Route B，指示主管重新确认
			if req.HasRespectiveSupervisor() {
				out = append(out, target{userID: *req.RespectiveSupervisorID, kind: model.NotificationConfirmationRequested})
			}
		}

	case workflow.ActionRequestRespectiveConfirmation, workflow.ActionRevise:
		if req.HasRespectiveSupervisor() {
			out = append(out, target{userID: *req.RespectiveSupervisorID, kind: model.NotificationConfirmationRequested})
		}

	case workflow.ActionConfirmRespective:
		out = append(out,
			target{userID: req.EmployeeID, kind: model.NotificationConfirmed},
			target{userID: req.SupervisorID, kind: model.NotificationConfirmed})

	case workflow.ActionDenyRespective:
		out = append(out,
			target{userID: req.EmployeeID, kind: model.NotificationDenied},
			target{userID: req.SupervisorID, kind: model.NotificationDenied})
	}

	return out
}

// ── 文案 ──

var kindTitles = map[string]string{
	model.NotificationSubmission:            "新的加班申请待验证",
	model.NotificationVerificationPending:   "加班申请已通过验证",
	model.NotificationReadyForCertification: "加班申请待 HR 认证",
	model.NotificationReadyForApproval:      "加班申请待管理层核准",
	model.NotificationApproved:              "加班申请已批准",
	model.NotificationRejected:              "加班申请已被驳回",
	model.NotificationConfirmationRequested: "加班申请待指示主管确认",
	model.NotificationConfirmed:             "指示主管已确认加班申请",
	model.NotificationDenied:                "指示主管已拒绝加班申请",
}

func notificationContent(kind string, req *model.OvertimeRequest) string {
	name := req.EmployeeID
	if req.Employee != nil {
		name = req.Employee.Name
	}
	return fmt.Sprintf("%s %s 的加班申请（%.2f 小时）当前状态：%s",
		name, req.OTDate.Format("2006-01-02"), req.TotalHours, req.Status)
}

// outboxPayload 出箱条目的自包含载荷：投递时不再回查申请
type outboxPayload struct {
	RequestID string `json:"request_id"`
	OTDate    string `json:"ot_date"`
	Status    string `json:"status"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// ── 入箱 ──

func (s *notificationService) NotifySubmission(ctx context.Context, reqs []model.OvertimeRequest) {
	var pairs []targetRequest
	for i := range reqs {
		for _, t := range submissionTargets(&reqs[i]) {
			pairs = append(pairs, targetRequest{target: t, req: &reqs[i]})
		}
	}
	s.enqueue(ctx, pairs)
}

func (s *notificationService) NotifyTransition(ctx context.Context, actor workflow.Actor, action workflow.Action, reqs []*model.OvertimeRequest) {
	var pairs []targetRequest
	for _, req := range reqs {
		for _, t := range transitionTargets(action, req) {
			pairs = append(pairs, targetRequest{target: t, req: req})
		}
	}
	s.enqueue(ctx, pairs)
}

type targetRequest struct {
	target target
	req    *model.OvertimeRequest
}

// enqueue 展开角色目标、写入站内通知与出箱，然后异步触发一次投递。
// 任何失败只记录日志。
func (s *notificationService) enqueue(ctx context.Context, pairs []targetRequest) {
	if len(pairs) == 0 {
		return
	}

	roleMembers := make(map[string][]string)
	relatedType := "overtime_request"

	var notifications []model.Notification
	var entries []model.NotificationOutbox
	for _, pair := range pairs {
		recipients := []string{pair.target.userID}
		if pair.target.role != "" {
			members, err := s.membersOfRole(ctx, pair.target.role, roleMembers)
			if err != nil {
				s.logger.Error("展开角色收件人失败",
					zap.String("role", pair.target.role), zap.Error(err))
				continue
			}
			recipients = members
		}

		title := kindTitles[pair.target.kind]
		content := notificationContent(pair.target.kind, pair.req)
		payload, err := json.Marshal(outboxPayload{
			RequestID: pair.req.RequestID,
			OTDate:    pair.req.OTDate.Format("2006-01-02"),
			Status:    pair.req.Status,
			Kind:      pair.target.kind,
			Title:     title,
			Content:   content,
		})
		if err != nil {
			s.logger.Error("序列化出箱载荷失败", zap.Error(err))
			continue
		}

		for _, userID := range recipients {
			requestID := pair.req.RequestID
			notifications = append(notifications, model.Notification{
				UserID:      userID,
				Kind:        pair.target.kind,
				Title:       title,
				Content:     content,
				RelatedType: &relatedType,
				RelatedID:   &requestID,
			})
			entries = append(entries, model.NotificationOutbox{
				RecipientID:   userID,
				Kind:          pair.target.kind,
				Payload:       string(payload),
				Status:        model.OutboxPending,
				NextAttemptAt: time.Now(),
			})
		}
	}

	if err := s.repo.Notification.BatchCreate(ctx, notifications); err != nil {
		s.logger.Error("写入站内通知失败", zap.Int("count", len(notifications)), zap.Error(err))
	}
	if err := s.repo.Outbox.BatchCreate(ctx, entries); err != nil {
		s.logger.Error("写入通知出箱失败", zap.Int("count", len(entries)), zap.Error(err))
		return
	}

	// 入箱后立即尝试一次投递，失败留给定时任务重试
	go s.ProcessOutbox(context.Background())
}

func (s *notificationService) membersOfRole(ctx context.Context, role string, cache map[string][]string) ([]string, error) {
	if members, ok := cache[role]; ok {
		return members, nil
	}
	users, _, err := s.repo.User.List(ctx, &repository.UserListFilters{Role: role}, 0, 200)
	if err != nil {
		return nil, err
	}
	members := make([]string, len(users))
	for i := range users {
		members[i] = users[i].UserID
	}
	cache[role] = members
	return members, nil
}

// ── 投递 ──

// ProcessOutbox 投递到期条目：成功置 sent；失败按指数退避重排
// （base * 2^attempts），达到最大尝试次数进入死信。
func (s *notificationService) ProcessOutbox(ctx context.Context) {
	entries, err := s.repo.Outbox.ListDue(ctx, time.Now(), s.cfg.OutboxBatchSize)
	if err != nil {
		s.logger.Error("读取到期出箱条目失败", zap.Error(err))
		return
	}

	for i := range entries {
		s.deliver(ctx, &entries[i])
	}
}

func (s *notificationService) deliver(ctx context.Context, entry *model.NotificationOutbox) {
	var payload outboxPayload
	sendErr := json.Unmarshal([]byte(entry.Payload), &payload)
	if sendErr == nil {
		var recipient *model.User
		recipient, sendErr = s.repo.User.GetByID(ctx, entry.RecipientID)
		if sendErr == nil {
			sendErr = s.sender.Send(recipient.Email, payload.Title, payload.Content)
		}
	}

	if sendErr == nil {
		if err := s.repo.Outbox.MarkSent(ctx, entry.OutboxID); err != nil {
			s.logger.Error("标记出箱已发送失败",
				zap.String("outbox_id", entry.OutboxID), zap.Error(err))
		}
		return
	}

	attempts := entry.Attempts + 1
	dead := attempts >= s.cfg.OutboxMaxAttempts
	backoff := s.cfg.OutboxBaseBackoff * time.Duration(1<<attempts)
	nextAttempt := time.Now().Add(backoff)

	s.logger.Warn("通知投递失败",
		zap.String("outbox_id", entry.OutboxID),
		zap.String("recipient_id", entry.RecipientID),
		zap.Int("attempts", attempts),
		zap.Bool("dead", dead),
		zap.Error(sendErr))

	if err := s.repo.Outbox.MarkFailed(ctx, entry.OutboxID, attempts, nextAttempt, sendErr.Error(), dead); err != nil {
		s.logger.Error("更新出箱失败状态失败",
			zap.String("outbox_id", entry.OutboxID), zap.Error(err))
	}
}

// ── 站内通知查询 ──

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, page *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error) {
	notifications, total, err := s.repo.Notification.ListByUser(ctx, userID, unreadOnly, page.GetOffset(), page.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.NotificationResponse, len(notifications))
	for i, n := range notifications {
		out[i] = dto.NotificationResponse{
			ID:          n.NotificationID,
			Kind:        n.Kind,
			Title:       n.Title,
			Content:     n.Content,
			IsRead:      n.IsRead,
			RelatedType: n.RelatedType,
			RelatedID:   n.RelatedID,
			CreatedAt:   n.CreatedAt.Format(time.RFC3339),
		}
	}
	return out, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID string, ids []string) error {
	return s.repo.Notification.MarkRead(ctx, userID, ids)
}
