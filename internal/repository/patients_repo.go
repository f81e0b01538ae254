package repository

import (
	"context"
	"time"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

// PatientsRepository patient records keyed by phone number
type PatientsRepository interface {
	// UpsertPatientByPhone returns the existing patient or creates one; safe to call on every USSD step
	UpsertPatientByPhone(ctx context.Context, phone string) (*domain.Patient, error)
	GetPatientByPhone(ctx context.Context, phone string) (*domain.Patient, error)
	GetPatient(ctx context.Context, patientID int64) (*domain.Patient, error)

	SetPatientLanguage(ctx context.Context, patientID int64, languageCode string) error
	SetPatientPaymentDeclaration(ctx context.Context, patientID int64, declaration string) error

	// SetPatientOTP stores a code; an empty code with nil expiry clears it
	SetPatientOTP(ctx context.Context, patientID int64, code string, expiry *time.Time) error
}
