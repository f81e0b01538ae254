package ussd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fanuel08/Medicine-project/internal/repository"
	"github.com/fanuel08/Medicine-project/internal/service"

	"go.uber.org/zap"
)

// Request one gateway callback
type Request struct {
	SessionID   string
	ServiceCode string
	PhoneNumber string
	Text        string
}

// Session executes a parsed step. It holds no per-session state; the gateway's
// cumulative text is replayed on every request.
type Session struct {
	patients repository.PatientsRepository
	cases    service.CaseService
	menus    *MenuLookup
	logger   *zap.Logger
}

func NewSession(patients repository.PatientsRepository, cases service.CaseService, menus *MenuLookup, logger *zap.Logger) *Session {
	return &Session{patients: patients, cases: cases, menus: menus, logger: logger}
}

// Handle returns the screen text for req, including the CON/END prefix stored with the menu
func (s *Session) Handle(ctx context.Context, req Request) (string, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" {
		return "", fmt.Errorf("%w: phoneNumber is required", service.ErrValidation)
	}
	patient, err := s.patients.UpsertPatientByPhone(ctx, phone)
	if err != nil {
		return "", err
	}

	step := Parse(req.Text)
	s.logger.Debug("USSD step",
		zap.String("session_id", req.SessionID),
		zap.Int64("patient_id", patient.PatientID),
		zap.String("step", step.Kind.String()),
	)

	switch step.Kind {
	case StepWelcome:
		return s.menus.Text(ctx, MenuWelcome, s.menus.defaultLanguage), nil

	case StepLanguage:
		if err := s.patients.SetPatientLanguage(ctx, patient.PatientID, step.Language); err != nil {
			return "", err
		}
		return s.menus.Text(ctx, MenuPaymentDecl, step.Language), nil

	case StepPayment:
		if err := s.patients.SetPatientPaymentDeclaration(ctx, patient.PatientID, step.Declaration); err != nil {
			return "", err
		}
		return s.menus.Text(ctx, MenuEnterSymptom, step.Language), nil

	case StepSymptom:
		// the gateway text is authoritative; re-persist it so the case snapshot matches
		if patient.LanguageCode != step.Language {
			if err := s.patients.SetPatientLanguage(ctx, patient.PatientID, step.Language); err != nil {
				return "", err
			}
		}
		if patient.PaymentDeclaration != step.Declaration {
			if err := s.patients.SetPatientPaymentDeclaration(ctx, patient.PatientID, step.Declaration); err != nil {
				return "", err
			}
		}
		c, err := s.cases.CreateCase(ctx, service.CreateCaseRequest{
			PatientID: patient.PatientID,
			Symptom:   step.Symptom,
			Source:    service.SourceUSSD,
		})
		if err != nil {
			return "", err
		}
		text := s.menus.Text(ctx, MenuCaseCreated, step.Language)
		return strings.ReplaceAll(text, "{case_id}", strconv.FormatInt(c.CaseID, 10)), nil
	}

	return s.menus.Text(ctx, MenuInvalidSelection, patient.LanguageCode), nil
}
