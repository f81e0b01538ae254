package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/fanuel08/Medicine-project/internal/auth"
	"github.com/fanuel08/Medicine-project/internal/repository"
	"github.com/fanuel08/Medicine-project/internal/store"

	"go.uber.org/zap"
)

// PatientLoginService passwordless web login for patients known from USSD
type PatientLoginService interface {
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (*auth.Pair, error)
}

// OTPOptions code lifetime and per-phone request throttle
type OTPOptions struct {
	TTL         time.Duration
	MaxRequests int
	Window      time.Duration
}

// ErrPatientNotFound no patient has this phone number; matches ErrNotFound
var ErrPatientNotFound error = &notFoundError{msg: "User with this phone number not found."}

type patientLoginService struct {
	patients repository.PatientsRepository
	accounts repository.AccountsRepository
	sms      SMSSender
	kv       store.KV // optional throttle counter store
	tokens   *auth.TokenIssuer
	opts     OTPOptions
	logger   *zap.Logger
	now      func() time.Time
}

// NewPatientLoginService creates a PatientLoginService; kv may be nil to disable throttling
func NewPatientLoginService(repos *repository.Repositories, sms SMSSender, kv store.KV, tokens *auth.TokenIssuer, opts OTPOptions, logger *zap.Logger) PatientLoginService {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	return &patientLoginService{
		patients: repos.Patients,
		accounts: repos.Accounts,
		sms:      sms,
		kv:       kv,
		tokens:   tokens,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *patientLoginService) RequestOTP(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return validationf("Phone number is required.")
	}
	patient, err := s.patients.GetPatientByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPatientNotFound
		}
		return err
	}

	if err := s.throttle(ctx, phone); err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	expiry := s.now().Add(s.opts.TTL)
	if err := s.patients.SetPatientOTP(ctx, patient.PatientID, code, &expiry); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}

	msg := fmt.Sprintf("Your AfyaLink verification code is %s. It is valid for %d minutes.", code, int(s.opts.TTL.Minutes()))
	if err := s.sms.Send(ctx, phone, msg); err != nil {
		s.logger.Error("OTP SMS failed", zap.Int64("patient_id", patient.PatientID), zap.Error(err))
		return err
	}
	s.logger.Info("OTP issued", zap.Int64("patient_id", patient.PatientID))
	return nil
}

// throttle fails open when the counter store is unreachable
func (s *patientLoginService) throttle(ctx context.Context, phone string) error {
	if s.kv == nil || s.opts.MaxRequests <= 0 {
		return nil
	}
	n, err := s.kv.Incr(ctx, "afyalink:otp:requests:"+phone, s.opts.Window)
	if err != nil {
		s.logger.Warn("OTP throttle unavailable", zap.Error(err))
		return nil
	}
	if n > int64(s.opts.MaxRequests) {
		return ErrTooManyRequests
	}
	return nil
}

func (s *patientLoginService) VerifyOTP(ctx context.Context, phone, code string) (*auth.Pair, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" {
		return nil, validationf("Phone number and OTP are required.")
	}
	patient, err := s.patients.GetPatientByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, err
	}
	if patient.OTP == "" || patient.OTPExpiry == nil || !s.now().Before(*patient.OTPExpiry) ||
		subtle.ConstantTimeCompare([]byte(patient.OTP), []byte(code)) != 1 {
		return nil, ErrInvalidOTP
	}

	if err := s.patients.SetPatientOTP(ctx, patient.PatientID, "", nil); err != nil {
		return nil, fmt.Errorf("clear otp: %w", err)
	}
	account, err := s.accounts.GetOrCreatePatientAccount(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validationf("This phone number belongs to a dashboard account. Sign in with your username and password.")
		}
		return nil, err
	}
	s.logger.Info("Patient logged in via OTP", zap.Int64("patient_id", patient.PatientID))
	return s.tokens.IssuePair(account)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
