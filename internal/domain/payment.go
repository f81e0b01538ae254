package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment confirmed M-Pesa transaction linked to a case
type Payment struct {
	PaymentID          int64           `json:"payment_id"`
	CaseID             int64           `json:"case"`
	Amount             decimal.Decimal `json:"amount"`
	MpesaReceiptNumber string          `json:"mpesa_receipt_number"`
	TransactionDate    time.Time       `json:"transaction_date"`
	CreatedAt          time.Time       `json:"created_at"`
}

// MenuText one USSD screen in one language
type MenuText struct {
	MenuKey      string `json:"menu_key" yaml:"key"`
	LanguageCode string `json:"language" yaml:"language"`
	Text         string `json:"menu_text" yaml:"text"`
}
