package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/dto"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/repository"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/workflow"
	apperrors "github.com/Net-Geometry/otms-tidal-sub000/pkg/errors"
)

func strp(s string) *string { return &s }

func testRepo(userRepo *mockUserRepo, otRepo *mockOvertimeRepo) *repository.Repository {
	return &repository.Repository{
		User:         userRepo,
		Overtime:     otRepo,
		Notification: &mockNotificationRepo{},
		Outbox:       &mockOutboxRepo{},
	}
}

func newTestOvertimeService(userRepo *mockUserRepo, otRepo *mockOvertimeRepo) (OvertimeService, *stubNotifier) {
	notifier := &stubNotifier{}
	svc := NewOvertimeService(testRepo(userRepo, otRepo), notifier, NewStandardRateCalculator(10), zap.NewNop())
	return svc, notifier
}

func pendingRequest(id, employeeID, supervisorID string, respectiveID *string) *model.OvertimeRequest {
	return &model.OvertimeRequest{
		RequestID:              id,
		EmployeeID:             employeeID,
		OTDate:                 time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
		SupervisorID:           supervisorID,
		RespectiveSupervisorID: respectiveID,
		Status:                 string(workflow.StatusPendingVerification),
		TotalHours:             2,
		VersionedModel:         model.VersionedModel{Version: 1},
	}
}

// ── 提交 ──

func TestSubmit_CreatesOneRowPerSession(t *testing.T) {
	employee := &model.User{
		UserID: "emp-1", Name: "张三", EmployeeNo: "E001",
		Role: model.RoleEmployee, SupervisorID: strp("sup-1"),
	}
	userRepo := newMockUserRepo(employee)
	otRepo := newMockOvertimeRepo()
	svc, notifier := newTestOvertimeService(userRepo, otRepo)

	day := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC) // 周三
	req := &dto.SubmitOTRequest{
		OTDate: "2026-08-12",
		Sessions: []dto.OTSessionInput{
			{StartTime: day.Add(18 * time.Hour), EndTime: day.Add(20 * time.Hour)},
			{StartTime: day.Add(21 * time.Hour), EndTime: day.Add(22 * time.Hour)},
		},
		Reason: "赶发布",
	}

	sessions, err := svc.Submit(context.Background(), "emp-1", req)
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("期望 2 条时段记录，实际 %d", len(sessions))
	}
	for _, s := range sessions {
		if s.Status != string(workflow.StatusPendingVerification) {
			t.Errorf("初始状态应为 pending_verification，实际 %s", s.Status)
		}
	}
	// 费率字段在提交时一次性赋值
	if sessions[0].TotalHours != 2 || sessions[0].ORP != 1.5 || sessions[0].OTAmount != 30 {
		t.Errorf("工作日费率计算错误: hours=%v orp=%v amount=%v",
			sessions[0].TotalHours, sessions[0].ORP, sessions[0].OTAmount)
	}
	// 直属主管来自员工档案
	for _, r := range otRepo.created {
		if r.SupervisorID != "sup-1" {
			t.Errorf("直属主管应取自员工档案，实际 %s", r.SupervisorID)
		}
	}
	if notifier.submissions != 2 {
		t.Errorf("提交通知应覆盖全部时段记录，实际 %d", notifier.submissions)
	}
}

func TestSubmit_RequiresSupervisor(t *testing.T) {
	employee := &model.User{UserID: "emp-1", Role: model.RoleEmployee}
	svc, _ := newTestOvertimeService(newMockUserRepo(employee), newMockOvertimeRepo())

	_, err := svc.Submit(context.Background(), "emp-1", &dto.SubmitOTRequest{
		OTDate:   "2026-08-12",
		Sessions: []dto.OTSessionInput{{StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)}},
		Reason:   "x",
	})
	if !errors.Is(err, ErrNoSupervisorAssigned) {
		t.Errorf("期望 ErrNoSupervisorAssigned，实际 %v", err)
	}
}

func TestSubmit_RespectiveMustDifferFromDirect(t *testing.T) {
	employee := &model.User{UserID: "emp-1", Role: model.RoleEmployee, SupervisorID: strp("sup-1")}
	svc, _ := newTestOvertimeService(newMockUserRepo(employee), newMockOvertimeRepo())

	_, err := svc.Submit(context.Background(), "emp-1", &dto.SubmitOTRequest{
		OTDate:                 "2026-08-12",
		Sessions:               []dto.OTSessionInput{{StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)}},
		Reason:                 "x",
		RespectiveSupervisorID: strp("sup-1"),
	})
	if !errors.Is(err, ErrRespectiveIsDirect) {
		t.Errorf("期望 ErrRespectiveIsDirect，实际 %v", err)
	}
}

// ── 批处理管线 ──

func TestApprove_MixedRoutesSplitIntoPartitions(t *testing.T) {
	a := pendingRequest("req-a", "emp-1", "sup-1", nil)
	b := pendingRequest("req-b", "emp-2", "sup-1", strp("resp-1"))
	otRepo := newMockOvertimeRepo(a, b)
	svc, notifier := newTestOvertimeService(newMockUserRepo(), otRepo)

	actor := workflow.Actor{ID: "sup-1", Role: model.RoleSupervisor}
	result, err := svc.Approve(context.Background(), actor, &dto.BatchActionRequest{
		RequestIDs: []string{"req-a", "req-b"},
	})
	if err != nil {
		t.Fatalf("批量验证失败: %v", err)
	}

	if len(result.Partitions) != 2 {
		t.Fatalf("混合路线应分为 2 个分区，实际 %d", len(result.Partitions))
	}
	// 分区按请求中的首次出现顺序
	if result.Partitions[0].Status != string(workflow.StatusSupervisorConfirmed) ||
		result.Partitions[1].Status != string(workflow.StatusPendingSupervisorConfirmation) {
		t.Errorf("分区目标状态错误: %+v", result.Partitions)
	}
	for _, p := range result.Partitions {
		if !p.Committed {
			t.Errorf("分区 %s 应已提交", p.Status)
		}
	}
	// 每个分区一次事务写入
	if len(otRepo.applied) != 2 {
		t.Fatalf("期望 2 次分区写入，实际 %d", len(otRepo.applied))
	}
	// 提交后通知覆盖全部记录
	if len(notifier.transitions) != 1 || len(notifier.transitions[0].ids) != 2 {
		t.Errorf("转移通知记录错误: %+v", notifier.transitions)
	}
}

func TestApprove_SameTargetSingleTransaction(t *testing.T) {
	a := pendingRequest("req-a", "emp-1", "sup-1", nil)
	b := pendingRequest("req-b", "emp-1", "sup-1", nil)
	otRepo := newMockOvertimeRepo(a, b)
	svc, _ := newTestOvertimeService(newMockUserRepo(), otRepo)

	actor := workflow.Actor{ID: "sup-1", Role: model.RoleSupervisor}
	_, err := svc.Approve(context.Background(), actor, &dto.BatchActionRequest{
		RequestIDs: []string{"req-a", "req-b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(otRepo.applied) != 1 || len(otRepo.applied[0].ids) != 2 {
		t.Errorf("同目标状态应合并为一次写入: %+v", otRepo.applied)
	}
}

func TestBatch_AllOrNothingValidation(t *testing.T) {
	ok := pendingRequest("req-ok", "emp-1", "sup-1", nil)
	bad := pendingRequest("req-bad", "emp-2", "sup-1", nil)
	bad.Status = string(workflow.StatusRejected)
	otRepo := newMockOvertimeRepo(ok, bad)
	svc, notifier := newTestOvertimeService(newMockUserRepo(), otRepo)

	actor := workflow.Actor{ID: "sup-1", Role: model.RoleSupervisor}
	_, err := svc.Approve(context.Background(), actor, &dto.BatchActionRequest{
		RequestIDs: []string{"req-ok", "req-bad"},
	})

	var batchErr *workflow.BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("期望 BatchError，实际 %v", err)
	}
	// 零写入、零通知
	if len(otRepo.applied) != 0 {
		t.Errorf("校验失败不应有任何写入: %+v", otRepo.applied)
	}
	if len(notifier.transitions) != 0 {
		t.Error("校验失败不应触发通知")
	}
	// 原记录状态不变
	stored, _ := otRepo.GetByID(context.Background(), "req-ok")
	if stored.Status != string(workflow.StatusPendingVerification) {
		t.Errorf("有效申请不应被修改，实际状态 %s", stored.Status)
	}
}

func TestBatch_PartialCommitReported(t *testing.T) {
	// req-a → supervisor_confirmed，req-b → pending_supervisor_confirmation
	a := pendingRequest("req-a", "emp-1", "sup-1", nil)
	b := pendingRequest("req-b", "emp-2", "sup-1", strp("resp-1"))
	otRepo := newMockOvertimeRepo(a, b)
	otRepo.failOnID = "req-b" // 第二分区乐观锁冲突

	svc, notifier := newTestOvertimeService(newMockUserRepo(), otRepo)
	actor := workflow.Actor{ID: "sup-1", Role: model.RoleSupervisor}
	result, err := svc.Approve(context.Background(), actor, &dto.BatchActionRequest{
		RequestIDs: []string{"req-a", "req-b"},
	})

	if !errors.Is(err, apperrors.ErrOptimisticLock) {
		t.Fatalf("期望乐观锁错误，实际 %v", err)
	}
	if result == nil {
		t.Fatal("部分提交时应返回结果")
	}
	if !result.Partitions[0].Committed {
		t.Error("第一分区已提交，应如实标注")
	}
	if result.Partitions[1].Committed {
		t.Error("失败分区不应标注为已提交")
	}
	// 已提交分区的通知仍然发出
	if len(notifier.transitions) != 1 || len(notifier.transitions[0].ids) != 1 {
		t.Errorf("已提交分区应触发通知: %+v", notifier.transitions)
	}
}

func TestRunAction_DuplicateIDsAppliedOnce(t *testing.T) {
	a := pendingRequest("req-a", "emp-1", "sup-1", nil)
	otRepo := newMockOvertimeRepo(a)
	svc, _ := newTestOvertimeService(newMockUserRepo(), otRepo)

	actor := workflow.Actor{ID: "sup-1", Role: model.RoleSupervisor}
	result, err := svc.Approve(context.Background(), actor, &dto.BatchActionRequest{
		RequestIDs: []string{"req-a", "req-a"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Partitions) != 1 || len(result.Partitions[0].RequestIDs) != 1 {
		t.Errorf("重复 ID 只应处理一次: %+v", result.Partitions)
	}
}

func TestDenyRespective_RequiresActorAndRemarks(t *testing.T) {
	req := pendingRequest("req-1", "emp-1", "sup-1", strp("resp-1"))
	req.Status = string(workflow.StatusPendingRespectiveConfirmation)
	otRepo := newMockOvertimeRepo(req)
	svc, _ := newTestOvertimeService(newMockUserRepo(), otRepo)

	actor := workflow.Actor{ID: "resp-1", Role: model.RoleSupervisor}

	_, err := svc.DenyRespective(context.Background(), actor, &dto.BatchActionRequest{
		RequestIDs: []string{"req-1"}, Remarks: "太短",
	})
	if !errors.Is(err, workflow.ErrDenialRemarksTooShort) {
		t.Fatalf("拒绝理由不足 10 字符应失败，实际 %v", err)
	}

	result, err := svc.DenyRespective(context.Background(), actor, &dto.BatchActionRequest{
		RequestIDs: []string{"req-1"}, Remarks: "时段与排班记录不符，请修订后重新提交",
	})
	if err != nil {
		t.Fatalf("拒绝失败: %v", err)
	}
	if result.Partitions[0].Status != string(workflow.StatusPendingSupervisorReview) {
		t.Errorf("拒绝应退回直属主管修订，实际 %s", result.Partitions[0].Status)
	}
}

// ── 查询 ──

func TestList_SupervisorDoesNotSeePendingRespective(t *testing.T) {
	waiting := pendingRequest("req-1", "emp-1", "sup-1", strp("resp-1"))
	waiting.Status = string(workflow.StatusPendingRespectiveConfirmation)
	direct := pendingRequest("req-2", "emp-2", "sup-1", nil)
	otRepo := newMockOvertimeRepo(waiting, direct)
	svc, _ := newTestOvertimeService(newMockUserRepo(), otRepo)

	// 直属主管的待办只有 req-2
	groups, _, err := svc.List(context.Background(),
		workflow.Actor{ID: "sup-1", Role: model.RoleSupervisor},
		&dto.OTListRequest{Filter: "pending"})
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].RequestIDs[0] != "req-2" {
		t.Errorf("等待指示主管确认的申请不应出现在直属主管待办: %+v", groups)
	}

	// 指示主管能看到 req-1
	groups, _, err = svc.List(context.Background(),
		workflow.Actor{ID: "resp-1", Role: model.RoleSupervisor},
		&dto.OTListRequest{Filter: "pending"})
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].RequestIDs[0] != "req-1" {
		t.Errorf("指示主管应看到待确认申请: %+v", groups)
	}
}

func TestGroupRequests_AggregatesByEmployeeAndDate(t *testing.T) {
	day := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	rows := []model.OvertimeRequest{
		{RequestID: "r1", EmployeeID: "emp-1", OTDate: day, TotalHours: 2, OTAmount: 30,
			Status:   string(workflow.StatusPendingVerification),
			Employee: &model.User{Name: "张三", EmployeeNo: "E001"}},
		{RequestID: "r2", EmployeeID: "emp-1", OTDate: day, TotalHours: 1, OTAmount: 15,
			Status: string(workflow.StatusPendingVerification)},
		{RequestID: "r3", EmployeeID: "emp-2", OTDate: day, TotalHours: 3, OTAmount: 60,
			Status: string(workflow.StatusPendingVerification)},
	}

	groups := GroupRequests(rows)
	if len(groups) != 2 {
		t.Fatalf("期望 2 组，实际 %d", len(groups))
	}
	g := groups[0]
	if g.EmployeeID != "emp-1" || g.TotalHours != 3 || g.OTAmount != 45 {
		t.Errorf("聚合字段错误: %+v", g)
	}
	if len(g.RequestIDs) != 2 || g.RequestIDs[0] != "r1" || g.RequestIDs[1] != "r2" {
		t.Errorf("request_ids 应覆盖组内全部记录: %v", g.RequestIDs)
	}
	if g.EmployeeName != "张三" || g.EmployeeNo != "E001" {
		t.Errorf("员工信息取首条记录: %+v", g)
	}

	// 幂等：重复聚合同一输入结果一致
	again := GroupRequests(rows)
	if len(again) != 2 || again[0].TotalHours != groups[0].TotalHours {
		t.Error("聚合应幂等")
	}
}

func TestAllowedActions_Endpoint(t *testing.T) {
	svc, _ := newTestOvertimeService(newMockUserRepo(), newMockOvertimeRepo())

	result, err := svc.AllowedActions(model.RoleHR, string(workflow.StatusSupervisorConfirmed))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Actions) != 2 {
		t.Errorf("HR 对 supervisor_confirmed 应有 approve/reject: %v", result.Actions)
	}

	if _, err := svc.AllowedActions(model.RoleHR, "not_a_status"); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("未知状态应报错，实际 %v", err)
	}
}
