package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/expr-lang/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatterfix/backend/internal/domain/events"
	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/constants"
)

func TestCompileCondition(t *testing.T) {
	valid := []string{
		`priority == "high"`,
		`age_hours > 24 && !assigned`,
		`overdue && status != "in_progress"`,
		`labor_hours > 8 || priority == "critical"`,
	}
	for _, cond := range valid {
		_, err := CompileCondition(cond)
		assert.NoError(t, err, "condition %q should compile", cond)
	}

	invalid := []string{
		`priority ==`,
		`&& overdue`,
		``,
	}
	for _, cond := range invalid {
		_, err := CompileCondition(cond)
		assert.Error(t, err, "condition %q should be rejected", cond)
	}
}

func TestConditionEvaluation(t *testing.T) {
	now := time.Now()
	assignee := "tech-1"
	dueYesterday := now.Add(-24 * time.Hour)

	w := &models.WorkOrder{
		Status:      constants.WorkOrderStatusAssigned,
		Priority:    constants.PriorityHigh,
		AssignedTo:  &assignee,
		DueDate:     &dueYesterday,
		LaborHours:  2.5,
		CreatedDate: now.Add(-48 * time.Hour),
	}
	env := conditionEnv(w, now)

	cases := []struct {
		condition string
		want      bool
	}{
		{`priority == "high"`, true},
		{`overdue`, true},
		{`age_hours > 24`, true},
		{`age_hours > 100`, false},
		{`assigned && assigned_to == "tech-1"`, true},
		{`status == "open"`, false},
		{`labor_hours > 2 && overdue`, true},
	}
	for _, tc := range cases {
		program, err := CompileCondition(tc.condition)
		require.NoError(t, err, tc.condition)

		out, err := expr.Run(program, env)
		require.NoError(t, err, tc.condition)
		assert.Equal(t, tc.want, out, tc.condition)
	}
}

func TestConditionEnvUnassigned(t *testing.T) {
	w := &models.WorkOrder{
		Status:      constants.WorkOrderStatusOpen,
		Priority:    constants.PriorityCritical,
		CreatedDate: time.Now().Add(-10 * time.Hour),
	}
	env := conditionEnv(w, time.Now())

	assert.Equal(t, false, env["assigned"])
	assert.Equal(t, "", env["assigned_to"])
	assert.Equal(t, false, env["overdue"])

	// The seed rule: critical work sitting unassigned past a shift
	program, err := CompileCondition(`priority == "critical" && !assigned && age_hours > 8`)
	require.NoError(t, err)

	out, err := expr.Run(program, env)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestValidateRule(t *testing.T) {
	svc := &EscalationService{}

	// A rule needs at least one action
	err := svc.validateRule(EscalationRuleRequest{Name: "r", Condition: "overdue"})
	assert.Error(t, err)

	// Unknown priority rejected
	err = svc.validateRule(EscalationRuleRequest{Name: "r", Condition: "overdue", SetPriority: "urgent"})
	assert.Error(t, err)

	// Unknown role rejected
	err = svc.validateRule(EscalationRuleRequest{Name: "r", Condition: "overdue", NotifyRole: "owner"})
	assert.Error(t, err)

	// Broken condition rejected
	err = svc.validateRule(EscalationRuleRequest{Name: "r", Condition: "status ==", SetPriority: constants.PriorityHigh})
	assert.Error(t, err)

	// Valid rule passes
	err = svc.validateRule(EscalationRuleRequest{
		Name:        "Overdue high priority",
		Condition:   `overdue && priority == "high"`,
		SetPriority: constants.PriorityCritical,
		NotifyRole:  constants.RoleManager,
	})
	assert.NoError(t, err)
}

func TestApplyCommitsMarkerWithEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	conn := database.NewFromDB(db)
	svc := NewEscalationService(conn, persistence.NewEscalationRepository(db),
		persistence.NewWorkOrderRepository(db), NewOutboxService(conn, NewEventBus()))

	w := &models.WorkOrder{ID: "wo-1", Number: "WO-00009", Title: "Pump leak", Priority: constants.PriorityMedium}
	rule := &models.EscalationRule{ID: "rule-1", Name: "Raise stale work", SetPriority: constants.PriorityHigh, NotifyRole: constants.RoleManager}
	fired := []string{}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE work_orders SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(sqlmock.AnyArg(), string(events.WorkOrderEscalated), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.apply(context.Background(), w, rule, &fired))
	assert.Equal(t, constants.PriorityHigh, w.Priority)
	assert.Equal(t, []string{"rule-1"}, fired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyKeepsPriorityWhenMarkerWriteFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	conn := database.NewFromDB(db)
	svc := NewEscalationService(conn, persistence.NewEscalationRepository(db),
		persistence.NewWorkOrderRepository(db), NewOutboxService(conn, NewEventBus()))

	w := &models.WorkOrder{ID: "wo-1", Number: "WO-00009", Title: "Pump leak", Priority: constants.PriorityMedium}
	rule := &models.EscalationRule{ID: "rule-1", Name: "Raise stale work", SetPriority: constants.PriorityHigh}
	fired := []string{}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE work_orders SET").WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	require.Error(t, svc.apply(context.Background(), w, rule, &fired))
	// In-memory priority only moves once the transaction commits
	assert.Equal(t, constants.PriorityMedium, w.Priority)
	assert.NoError(t, mock.ExpectationsWereMet())
}
