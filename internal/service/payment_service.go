package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fanuel08/Medicine-project/internal/domain"
	"github.com/fanuel08/Medicine-project/internal/events"
	"github.com/fanuel08/Medicine-project/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService M-Pesa payment initiation and callback reconciliation
type PaymentService interface {
	InitiatePayment(ctx context.Context, caseID int64, actor Actor) (*STKPushResponse, error)
	// HandleCallback never fails on payload content; unknown checkouts are logged and dropped
	HandleCallback(ctx context.Context, cb STKCallback) error
	ListPayments(ctx context.Context, actor Actor) ([]domain.Payment, error)
}

// PaymentOptions request parameters that come from configuration
type PaymentOptions struct {
	AccountPrefix string
	Amount        int
	Location      *time.Location // TransactionDate in callbacks is local time
}

// STKCallback Daraja result notification body
type STKCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  *struct {
				Item []CallbackItem `json:"Item"`
			} `json:"CallbackMetadata,omitempty"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// CallbackItem Value is a JSON number or string depending on Name
type CallbackItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value,omitempty"`
}

func (i CallbackItem) text() string {
	v := strings.TrimSpace(string(i.Value))
	if v == "" || v == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(i.Value, &s); err == nil {
		return s
	}
	return v
}

type paymentService struct {
	cases     repository.CasesRepository
	payments  repository.PaymentsRepository
	patients  repository.PatientsRepository
	gateway   STKPusher
	opts      PaymentOptions
	publisher events.Publisher
	logger    *zap.Logger
}

// NewPaymentService creates a PaymentService
func NewPaymentService(repos *repository.Repositories, gateway STKPusher, opts PaymentOptions, publisher events.Publisher, logger *zap.Logger) PaymentService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Amount <= 0 {
		opts.Amount = 1
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &paymentService{
		cases:     repos.Cases,
		payments:  repos.Payments,
		patients:  repos.Patients,
		gateway:   gateway,
		opts:      opts,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, caseID int64, actor Actor) (*STKPushResponse, error) {
	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !actor.seesAllCases() && c.PatientPhone != actor.Username {
		return nil, ErrNotFound
	}

	resp, err := s.gateway.STKPush(ctx, STKPushRequest{
		Phone:            c.PatientPhone,
		Amount:           s.opts.Amount,
		AccountReference: fmt.Sprintf("%s%d", s.opts.AccountPrefix, c.CaseID),
		Description:      fmt.Sprintf("Payment for Case #%d", c.CaseID),
	})
	if err != nil {
		s.logger.Error("STK push failed", zap.Int64("case_id", caseID), zap.Error(err))
		return nil, err
	}

	if resp.CheckoutRequestID != "" {
		if err := s.cases.SetCheckoutRequestID(ctx, caseID, resp.CheckoutRequestID); err != nil {
			return nil, fmt.Errorf("save checkout request id: %w", err)
		}
	}
	if resp.Accepted() {
		if err := s.cases.TransitionStatus(ctx, caseID, domain.StatusPaymentPending, "Payment requested from patient."); err != nil {
			return nil, fmt.Errorf("mark payment pending: %w", err)
		}
		s.publish(ctx, events.Event{Type: events.PaymentRequested, CaseID: caseID, AgentID: c.AgentID, Status: string(domain.StatusPaymentPending)})
	}

	s.logger.Info("STK push sent",
		zap.Int64("case_id", caseID),
		zap.String("checkout_request_id", resp.CheckoutRequestID),
		zap.String("response_code", resp.ResponseCode),
	)
	return resp, nil
}

func (s *paymentService) HandleCallback(ctx context.Context, cb STKCallback) error {
	stk := cb.Body.StkCallback
	c, err := s.cases.GetCaseByCheckoutID(ctx, stk.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Payment callback for unknown checkout request",
				zap.String("checkout_request_id", stk.CheckoutRequestID),
				zap.Int("result_code", stk.ResultCode),
			)
			return nil
		}
		return err
	}

	if stk.ResultCode != 0 {
		if err := s.cases.AppendHistory(ctx, c.CaseID, fmt.Sprintf("Payment failed: %s", stk.ResultDesc)); err != nil {
			return err
		}
		s.logger.Info("Payment failed", zap.Int64("case_id", c.CaseID), zap.Int("result_code", stk.ResultCode), zap.String("result_desc", stk.ResultDesc))
		s.publish(ctx, events.Event{Type: events.PaymentFailed, CaseID: c.CaseID, AgentID: c.AgentID, Status: string(c.Status), Detail: stk.ResultDesc})
		return nil
	}

	var payment *domain.Payment
	if stk.CallbackMetadata != nil {
		payment = s.paymentFromMetadata(c.CaseID, stk.CallbackMetadata.Item)
	}
	if err := s.payments.ConfirmPayment(ctx, c.CaseID, payment, "Payment confirmed successfully."); err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}

	fields := []zap.Field{zap.Int64("case_id", c.CaseID)}
	if payment != nil {
		fields = append(fields, zap.String("receipt", payment.MpesaReceiptNumber), zap.String("amount", payment.Amount.String()))
	}
	s.logger.Info("Payment confirmed", fields...)
	s.publish(ctx, events.Event{Type: events.PaymentConfirmed, CaseID: c.CaseID, AgentID: c.AgentID, Status: string(domain.StatusPaid)})
	return nil
}

// paymentFromMetadata returns nil unless amount, receipt and date are all usable
func (s *paymentService) paymentFromMetadata(caseID int64, items []CallbackItem) *domain.Payment {
	var amountText, receipt, dateText string
	for _, it := range items {
		switch it.Name {
		case "Amount":
			amountText = it.text()
		case "MpesaReceiptNumber":
			receipt = it.text()
		case "TransactionDate":
			dateText = it.text()
		}
	}
	if amountText == "" || receipt == "" || dateText == "" {
		return nil
	}

	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		s.logger.Warn("Unparseable callback amount", zap.Int64("case_id", caseID), zap.String("amount", amountText))
		return nil
	}
	txDate, err := time.ParseInLocation(darajaTimestampLayout, dateText, s.opts.Location)
	if err != nil {
		s.logger.Warn("Unparseable callback transaction date", zap.Int64("case_id", caseID), zap.String("transaction_date", dateText))
		return nil
	}
	return &domain.Payment{
		CaseID:             caseID,
		Amount:             amount,
		MpesaReceiptNumber: receipt,
		TransactionDate:    txDate,
	}
}

func (s *paymentService) ListPayments(ctx context.Context, actor Actor) ([]domain.Payment, error) {
	if actor.seesAllCases() {
		return s.payments.ListPayments(ctx, nil)
	}
	patient, err := s.patients.GetPatientByPhone(ctx, actor.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.Payment{}, nil
		}
		return nil, err
	}
	return s.payments.ListPayments(ctx, &patient.PatientID)
}

func (s *paymentService) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Payment event not published", zap.String("type", string(ev.Type)), zap.Int64("case_id", ev.CaseID), zap.Error(err))
	}
}
