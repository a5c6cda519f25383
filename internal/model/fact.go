package model

import (
	"time"

	"github.com/sells-group/fincal/internal/fiscal"
)

// UnknownLabel fills descriptive attributes that have no dimension match.
const UnknownLabel = "Unknown"

// SalesFact is one enriched sales line.
type SalesFact struct {
	DocNumber      string        `json:"doc_number"`
	LineSeq        int           `json:"line_seq"`
	TransDate      fiscal.Date   `json:"trans_date"`
	FinPeriod      string        `json:"fin_period,omitempty"`
	Fiscal         fiscal.Period `json:"fiscal"`
	CustomerNumber string        `json:"customer_number"`
	RegionCode     string        `json:"region_code"`
	RegionDesc     string        `json:"region_desc"`
	RepCode        string        `json:"rep_code"`
	RepDesc        string        `json:"rep_desc"`
	CategoryCode   string        `json:"category_code"`
	CreditLimit    float64       `json:"credit_limit"`
	InventoryCode  string        `json:"inventory_code"`
	ProdCatCode    string        `json:"prodcat_code"`
	ProdCatDesc    string        `json:"prodcat_desc"`
	BrandCode      string        `json:"brand_code"`
	BrandDesc      string        `json:"brand_desc"`
	RangeCode      string        `json:"range_code"`
	RangeDesc      string        `json:"range_desc"`
	Gender         string        `json:"gender"`
	Material       string        `json:"material"`
	Style          string        `json:"style"`
	LastCost       float64       `json:"last_cost"`
	Quantity       float64       `json:"quantity"`
	UnitSellPrice  float64       `json:"unit_sell_price"`
	TotalLinePrice float64       `json:"total_line_price"`
	TransTypeCode  string        `json:"transtype_code"`
	TransTypeDesc  string        `json:"transtype_desc"`
}

// PaymentFact is one enriched payment line.
type PaymentFact struct {
	CustomerNumber string        `json:"customer_number"`
	DepositRef     string        `json:"deposit_ref"`
	LineSeq        int           `json:"line_seq"`
	DepositDate    fiscal.Date   `json:"deposit_date"`
	FinPeriod      string        `json:"fin_period,omitempty"`
	Fiscal         fiscal.Period `json:"fiscal"`
	BankAmount     float64       `json:"bank_amount"`
	DiscountAmount float64       `json:"discount_amount"`
	TotalPayment   float64       `json:"total_payment"`
}

// PaymentEvent is a payment received on the event stream, tagged with its
// financial period on arrival.
type PaymentEvent struct {
	ID             string        `json:"id"`
	PaymentID      string        `json:"payment_id"`
	CustomerNumber string        `json:"customer_number,omitempty"`
	DepositRef     string        `json:"deposit_ref,omitempty"`
	OrderID        string        `json:"order_id,omitempty"`
	Amount         float64       `json:"amount"`
	Currency       string        `json:"currency,omitempty"`
	Method         string        `json:"payment_method,omitempty"`
	Status         string        `json:"status,omitempty"`
	Timestamp      *time.Time    `json:"timestamp,omitempty"`
	DepositDate    fiscal.Date   `json:"deposit_date"`
	Fiscal         fiscal.Period `json:"fiscal"`
	ProcessedAt    time.Time     `json:"processed_at"`
	Payload        []byte        `json:"-"`
}
