package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

func setupMockCasesDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresCasesRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresCasesRepository(db)
}

var caseColumns = []string{
	"case_id", "patient_id", "phone_number", "agent_id",
	"full_name", "username",
	"symptom_input", "language_code", "payment_declaration",
	"status", "agent_notes", "checkout_request_id",
	"ai_urgency", "ai_category", "ai_summary",
	"created_at", "updated_at",
}

func TestGetCase_Success(t *testing.T) {
	db, mock, repo := setupMockCasesDB(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(caseColumns).AddRow(
		int64(7), int64(3), "254700000001", int64(2),
		"Jane Wanjiru", "jane",
		"fever and cough", "en", "standard",
		"assigned_to_agent", "", "ws_CO_1",
		"Moderate", "Respiratory Issue", "summary",
		now, now,
	)
	mock.ExpectQuery(`SELECT .* FROM cases c`).WithArgs(int64(7)).WillReturnRows(rows)

	c, err := repo.GetCase(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.CaseID)
	require.NotNil(t, c.AgentID)
	assert.Equal(t, int64(2), *c.AgentID)
	assert.Equal(t, "Jane Wanjiru", c.AgentName)
	assert.Equal(t, domain.StatusAssigned, c.Status)
	assert.Equal(t, "Respiratory Issue", c.Category)
	assert.Equal(t, "ws_CO_1", c.CheckoutRequestID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCase_Unassigned(t *testing.T) {
	db, mock, repo := setupMockCasesDB(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(caseColumns).AddRow(
		int64(8), int64(3), "254700000001", nil,
		"", "",
		"headache", "sw", "cannot_pay",
		"new", "", "",
		"Low", "General Inquiry", "summary",
		now, now,
	)
	mock.ExpectQuery(`SELECT`).WithArgs(int64(8)).WillReturnRows(rows)

	c, err := repo.GetCase(context.Background(), 8)
	require.NoError(t, err)
	assert.Nil(t, c.AgentID)
	assert.False(t, c.IsAssigned())
	assert.Equal(t, "", c.AgentName)
}

func TestGetCase_NotFound(t *testing.T) {
	db, mock, repo := setupMockCasesDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

	c, err := repo.GetCase(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, c)
}

func TestCreateCase_WritesHistoryInSameTx(t *testing.T) {
	db, mock, repo := setupMockCasesDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO cases`).
		WithArgs(int64(3), "fever", "en", "standard", "new", "Moderate", "Respiratory Issue", "s").
		WillReturnRows(sqlmock.NewRows([]string{"case_id", "created_at", "updated_at"}).AddRow(int64(11), now, now))
	mock.ExpectExec(`INSERT INTO case_history`).
		WithArgs(int64(11), "Case created via USSD.").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	c := &domain.Case{
		PatientID:          3,
		SymptomInput:       "fever",
		LanguageCode:       "en",
		PaymentDeclaration: "standard",
		Triage:             domain.Triage{Urgency: "Moderate", Category: "Respiratory Issue", Summary: "s"},
	}
	require.NoError(t, repo.CreateCase(context.Background(), c, "Case created via USSD."))
	assert.Equal(t, int64(11), c.CaseID)
	assert.Equal(t, domain.StatusNew, c.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignIfUnassigned_Claimed(t *testing.T) {
	db, mock, repo := setupMockCasesDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE cases SET agent_id = \$2, status = \$3`).
		WithArgs(int64(5), int64(2), "assigned_to_agent").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO case_history`).
		WithArgs(int64(5), "Case claimed by agent jane.").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ok, err := repo.AssignIfUnassigned(context.Background(), 5, 2, "Case claimed by agent jane.")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignIfUnassigned_AlreadyHeld(t *testing.T) {
	db, mock, repo := setupMockCasesDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE cases SET agent_id`).
		WithArgs(int64(5), int64(4), "assigned_to_agent").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := repo.AssignIfUnassigned(context.Background(), 5, 4, "Case claimed by agent bob.")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCase_OnlyProvidedFields(t *testing.T) {
	db, mock, repo := setupMockCasesDB(t)
	defer db.Close()

	status := domain.StatusResolved
	notes := "referred to clinic"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE cases SET updated_at = NOW\(\), status = \$2, agent_notes = \$3 WHERE case_id = \$1`).
		WithArgs(int64(5), "resolved", notes).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO case_history`).
		WithArgs(int64(5), "Case updated by agent jane.").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.UpdateCase(context.Background(), 5, CaseUpdate{Status: &status, AgentNotes: &notes}, "Case updated by agent jane.")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCase_Missing(t *testing.T) {
	db, mock, repo := setupMockCasesDB(t)
	defer db.Close()

	notes := "x"
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE cases SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateCase(context.Background(), 42, CaseUpdate{AgentNotes: &notes}, "h")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListHistory_NewestFirstQuery(t *testing.T) {
	db, mock, repo := setupMockCasesDB(t)
	defer db.Close()

	t2 := time.Now()
	t1 := t2.Add(-time.Minute)
	rows := sqlmock.NewRows([]string{"history_id", "case_id", "timestamp", "description"}).
		AddRow(int64(2), int64(5), t2, "Case automatically assigned to agent Jane Wanjiru.").
		AddRow(int64(1), int64(5), t1, "Case created via USSD.")
	mock.ExpectQuery(`ORDER BY timestamp DESC, history_id DESC`).WithArgs(int64(5)).WillReturnRows(rows)

	h, err := repo.ListHistory(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, "Case created via USSD.", h[1].Description)
}

func TestConfirmPayment_DuplicateReceiptIgnored(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresPaymentsRepository(db)

	txDate := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE cases SET status`).WithArgs(int64(5), "paid").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO case_history`).WithArgs(int64(5), "Payment confirmed successfully.").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`ON CONFLICT \(mpesa_receipt_number\) DO NOTHING`).
		WithArgs(int64(5), sqlmock.AnyArg(), "QKX123", txDate).
		WillReturnRows(sqlmock.NewRows([]string{"payment_id", "created_at"}))
	mock.ExpectCommit()

	p := &domain.Payment{Amount: decimal.NewFromInt(1), MpesaReceiptNumber: "QKX123", TransactionDate: txDate}
	require.NoError(t, repo.ConfirmPayment(context.Background(), 5, p, "Payment confirmed successfully."))
	assert.Equal(t, int64(0), p.PaymentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveWorkload(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresAgentsRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"agent_id", "account_id", "username", "full_name", "phone_number", "is_active", "created_at", "open_cases"}).
		AddRow(int64(2), int64(10), "jane", "Jane Wanjiru", "", true, now, 0).
		AddRow(int64(1), int64(9), "otieno", "Otieno", "", true, now.Add(-time.Hour), 3)
	mock.ExpectQuery(`FILTER \(WHERE c.status = ANY\(\$1\)\)`).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)

	out, err := repo.ListActiveWorkload(context.Background(), []domain.CaseStatus{domain.StatusNew, domain.StatusAssigned})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Jane Wanjiru", out[0].Agent.FullName)
	assert.Equal(t, 3, out[1].OpenCases)
}

func TestActivateAgent_AlreadyActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresAgentsRepository(db)

	mock.ExpectExec(`UPDATE accounts SET is_active = TRUE`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM agents ag`).WithArgs(int64(2)).WillReturnRows(
		sqlmock.NewRows([]string{"agent_id", "account_id", "username", "full_name", "phone_number", "is_active", "created_at"}).
			AddRow(int64(2), int64(10), "jane", "Jane", "", true, time.Now()))

	changed, err := repo.ActivateAgent(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateAgent_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresAgentsRepository(db)

	mock.ExpectExec(`UPDATE accounts`).WithArgs(int64(77)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM agents ag`).WithArgs(int64(77)).WillReturnError(sql.ErrNoRows)

	_, err = repo.ActivateAgent(context.Background(), 77)
	assert.ErrorIs(t, err, ErrNotFound)
}
