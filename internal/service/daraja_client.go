package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fanuel08/Medicine-project/internal/store"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	darajaProvider        = "daraja"
	darajaTimestampLayout = "20060102150405"
	darajaTokenKey        = "afyalink:daraja:access_token"
)

// DarajaConfig credentials and endpoints for the M-Pesa STK push API
type DarajaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	PassKey        string
	CallbackURL    string
	Timeout        time.Duration
}

// STKPushRequest one payment prompt to a phone
type STKPushRequest struct {
	Phone            string
	Amount           int
	AccountReference string
	Description      string
}

// STKPushResponse Daraja's synchronous answer; Raw is the body as received
type STKPushResponse struct {
	MerchantRequestID   string          `json:"MerchantRequestID"`
	CheckoutRequestID   string          `json:"CheckoutRequestID"`
	ResponseCode        string          `json:"ResponseCode"`
	ResponseDescription string          `json:"ResponseDescription"`
	CustomerMessage     string          `json:"CustomerMessage"`
	Raw                 json.RawMessage `json:"-"`
}

// Accepted reports whether Daraja queued the prompt
func (r *STKPushResponse) Accepted() bool {
	return r.ResponseCode == "0"
}

// STKPusher is implemented by DarajaClient
type STKPusher interface {
	STKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error)
}

// DarajaClient Safaricom Daraja API client.
// Payment prompts are not retried: a retried push can charge the patient twice.
type DarajaClient struct {
	httpClient *resty.Client
	cfg        DarajaConfig
	kv         store.KV // optional token cache
	logger     *zap.Logger
	now        func() time.Time
}

// NewDarajaClient creates the client; kv may be nil
func NewDarajaClient(cfg DarajaConfig, kv store.KV, logger *zap.Logger) *DarajaClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &DarajaClient{
		httpClient: client,
		cfg:        cfg,
		kv:         kv,
		logger:     logger,
		now:        time.Now,
	}
}

type darajaToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// accessToken OAuth client-credentials token, cached until shortly before expiry
func (c *DarajaClient) accessToken(ctx context.Context) (string, error) {
	if c.kv != nil {
		if tok, err := c.kv.Get(ctx, darajaTokenKey); err == nil && tok != "" {
			return tok, nil
		} else if err != nil && !errors.Is(err, store.ErrMiss) {
			c.logger.Warn("Daraja token cache read failed", zap.Error(err))
		}
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret).
		SetQueryParam("grant_type", "client_credentials").
		Get("/oauth/v1/generate")
	if err != nil {
		return "", &GatewayError{Provider: darajaProvider, Err: err}
	}
	if resp.IsError() {
		return "", &GatewayError{Provider: darajaProvider, Status: resp.StatusCode(), Body: resp.String()}
	}
	// decoded by hand: the OAuth endpoint is not reliable about its Content-Type
	var tok darajaToken
	if err := json.Unmarshal(resp.Body(), &tok); err != nil || tok.AccessToken == "" {
		return "", &GatewayError{Provider: darajaProvider, Status: resp.StatusCode(), Body: resp.String(), Err: err}
	}

	if c.kv != nil {
		ttl := 50 * time.Minute
		var secs int
		if _, err := fmt.Sscanf(tok.ExpiresIn, "%d", &secs); err == nil && secs > 120 {
			ttl = time.Duration(secs-60) * time.Second
		}
		if err := c.kv.Set(ctx, darajaTokenKey, tok.AccessToken, ttl); err != nil {
			c.logger.Warn("Daraja token cache write failed", zap.Error(err))
		}
	}
	return tok.AccessToken, nil
}

// Password base64(shortcode + passkey + timestamp)
func (c *DarajaClient) Password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.PassKey + timestamp))
}

// STKPush asks the phone's owner to authorise a payment
func (c *DarajaClient) STKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().Format(darajaTimestampLayout)
	phone := NormalizeMSISDN(req.Phone)
	payload := map[string]any{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          c.Password(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            req.Amount,
		"PartyA":            phone,
		"PartyB":            c.cfg.ShortCode,
		"PhoneNumber":       phone,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  req.AccountReference,
		"TransactionDesc":   req.Description,
	}

	c.logger.Info("Calling Daraja API: stkpush",
		zap.String("account_reference", req.AccountReference),
		zap.Int("amount", req.Amount),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post("/mpesa/stkpush/v1/processrequest")
	if err != nil {
		return nil, &GatewayError{Provider: darajaProvider, Err: err}
	}
	if resp.IsError() {
		return nil, &GatewayError{Provider: darajaProvider, Status: resp.StatusCode(), Body: resp.String()}
	}

	out := &STKPushResponse{Raw: json.RawMessage(resp.Body())}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return nil, &GatewayError{Provider: darajaProvider, Status: resp.StatusCode(), Body: resp.String(), Err: err}
	}
	return out, nil
}

// NormalizeMSISDN rewrites local 07.. / +254.. numbers to 2547..
func NormalizeMSISDN(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.TrimPrefix(phone, "+")
	if strings.HasPrefix(phone, "0") {
		return "254" + phone[1:]
	}
	return phone
}
