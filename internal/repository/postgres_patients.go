package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

// PostgresPatientsRepository patients table
type PostgresPatientsRepository struct {
	db *sql.DB
}

// NewPostgresPatientsRepository creates the repository
func NewPostgresPatientsRepository(db *sql.DB) *PostgresPatientsRepository {
	return &PostgresPatientsRepository{db: db}
}

var _ PatientsRepository = (*PostgresPatientsRepository)(nil)

const patientColumns = `patient_id, phone_number, COALESCE(language_code, ''), COALESCE(payment_declaration, ''),
	COALESCE(otp, ''), otp_expiry, created_at, updated_at`

func scanPatient(row interface{ Scan(...any) error }) (*domain.Patient, error) {
	var p domain.Patient
	var expiry sql.NullTime
	if err := row.Scan(&p.PatientID, &p.PhoneNumber, &p.LanguageCode, &p.PaymentDeclaration,
		&p.OTP, &expiry, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time
		p.OTPExpiry = &t
	}
	return &p, nil
}

// UpsertPatientByPhone relies on the unique phone_number constraint; the no-op update makes RETURNING yield the existing row
func (r *PostgresPatientsRepository) UpsertPatientByPhone(ctx context.Context, phone string) (*domain.Patient, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone_number is required")
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO patients (phone_number, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (phone_number) DO UPDATE SET phone_number = EXCLUDED.phone_number
		RETURNING `+patientColumns, phone)
	p, err := scanPatient(row)
	if err != nil {
		return nil, fmt.Errorf("upsert patient: %w", err)
	}
	return p, nil
}

func (r *PostgresPatientsRepository) GetPatientByPhone(ctx context.Context, phone string) (*domain.Patient, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE phone_number = $1`, phone)
	p, err := scanPatient(row)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return p, nil
}

func (r *PostgresPatientsRepository) GetPatient(ctx context.Context, patientID int64) (*domain.Patient, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE patient_id = $1`, patientID)
	p, err := scanPatient(row)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return p, nil
}

func (r *PostgresPatientsRepository) SetPatientLanguage(ctx context.Context, patientID int64, languageCode string) error {
	return r.exec(ctx, `UPDATE patients SET language_code = $2, updated_at = NOW() WHERE patient_id = $1`, patientID, languageCode)
}

func (r *PostgresPatientsRepository) SetPatientPaymentDeclaration(ctx context.Context, patientID int64, declaration string) error {
	return r.exec(ctx, `UPDATE patients SET payment_declaration = $2, updated_at = NOW() WHERE patient_id = $1`, patientID, declaration)
}

func (r *PostgresPatientsRepository) SetPatientOTP(ctx context.Context, patientID int64, code string, expiry *time.Time) error {
	var otp sql.NullString
	if code != "" {
		otp = sql.NullString{String: code, Valid: true}
	}
	var exp sql.NullTime
	if expiry != nil {
		exp = sql.NullTime{Time: *expiry, Valid: true}
	}
	return r.exec(ctx, `UPDATE patients SET otp = $2, otp_expiry = $3, updated_at = NOW() WHERE patient_id = $1`, patientID, otp, exp)
}

func (r *PostgresPatientsRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
