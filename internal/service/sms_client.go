package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const smsProvider = "africastalking"

// SMSSender delivers one text message
type SMSSender interface {
	Send(ctx context.Context, to, message string) error
}

// SMSConfig Africa's Talking credentials
type SMSConfig struct {
	BaseURL  string
	Username string
	APIKey   string
	SenderID string
}

// AfricasTalkingClient SMS gateway client
type AfricasTalkingClient struct {
	httpClient *resty.Client
	cfg        SMSConfig
	logger     *zap.Logger
}

// NewAfricasTalkingClient creates the client
func NewAfricasTalkingClient(cfg SMSConfig, logger *zap.Logger) *AfricasTalkingClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("apiKey", cfg.APIKey)

	return &AfricasTalkingClient{httpClient: client, cfg: cfg, logger: logger}
}

type atSendResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			Number     string `json:"number"`
			Status     string `json:"status"`
			StatusCode int    `json:"statusCode"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

func (c *AfricasTalkingClient) Send(ctx context.Context, to, message string) error {
	form := map[string]string{
		"username": c.cfg.Username,
		"to":       "+" + NormalizeMSISDN(to),
		"message":  message,
	}
	if c.cfg.SenderID != "" {
		form["from"] = c.cfg.SenderID
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/version1/messaging")
	if err != nil {
		return &GatewayError{Provider: smsProvider, Err: err}
	}
	if resp.IsError() {
		return &GatewayError{Provider: smsProvider, Status: resp.StatusCode(), Body: resp.String()}
	}

	var out atSendResponse
	if err := json.Unmarshal(resp.Body(), &out); err == nil {
		for _, r := range out.SMSMessageData.Recipients {
			// 100-102 are the queued/sent/processed codes
			if r.StatusCode > 102 {
				return &GatewayError{Provider: smsProvider, Status: r.StatusCode, Body: r.Status}
			}
		}
	}
	c.logger.Debug("SMS sent", zap.String("provider_message", out.SMSMessageData.Message))
	return nil
}

// LogSMSSender logs instead of sending; used when SMS is disabled
type LogSMSSender struct {
	Logger *zap.Logger
}

// Send logs the body at debug level only, so dev OTP logins work with LOG_LEVEL=debug
func (s LogSMSSender) Send(_ context.Context, to, message string) error {
	s.Logger.Info("SMS disabled, message not sent", zap.String("to", to), zap.Int("length", len(message)))
	s.Logger.Debug("SMS body", zap.String("to", to), zap.String("message", message))
	return nil
}
