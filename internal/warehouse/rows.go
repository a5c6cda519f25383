package warehouse

import (
	"encoding/json"

	"github.com/sells-group/fincal/internal/calendar"
	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/model"
)

var fiscalColumns = []string{
	"financial_period", "financial_year", "financial_month", "financial_quarter", "period_start", "period_end",
}

// FiscalValues renders p in fiscalColumns order; an Unknown period is all NULL.
func FiscalValues(p fiscal.Period) []any {
	if p.IsUnknown() {
		return []any{nil, nil, nil, nil, nil, nil}
	}
	return []any{p.Code(), p.FinancialYear, p.FinancialMonth, p.FinancialQuarter, p.PeriodStart.Time(), p.PeriodEnd.Time()}
}

// DateValue returns nil for a missing date.
func DateValue(d fiscal.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func withBatch(cols []string) []string {
	return append(append([]string{}, cols...), "batch_id")
}

var calendarColumns = withBatch(calendar.Columns())

func calendarRows(rows []calendar.Row, batchID string) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = append(r.Values(), batchID)
	}
	return out
}

var salesLayout = append(append([]string{"doc_number", "line_seq", "trans_date", "fin_period"}, fiscalColumns...),
	"customer_number", "region_code", "region_desc", "rep_code", "rep_desc", "category_code", "credit_limit",
	"inventory_code", "prodcat_code", "prodcat_desc", "brand_code", "brand_desc", "range_code", "range_desc",
	"gender", "material", "style", "last_cost", "quantity", "unit_sell_price", "total_line_price",
	"transtype_code", "transtype_desc",
)

// SalesColumns lists the flat sales fact layout shared by the loader and exports.
func SalesColumns() []string {
	return append([]string{}, salesLayout...)
}

// SalesValues renders f in SalesColumns order.
func SalesValues(f model.SalesFact) []any {
	row := []any{f.DocNumber, f.LineSeq, DateValue(f.TransDate), nullable(f.FinPeriod)}
	row = append(row, FiscalValues(f.Fiscal)...)
	return append(row,
		nullable(f.CustomerNumber), nullable(f.RegionCode), f.RegionDesc, nullable(f.RepCode), f.RepDesc,
		nullable(f.CategoryCode), f.CreditLimit,
		nullable(f.InventoryCode), nullable(f.ProdCatCode), f.ProdCatDesc, nullable(f.BrandCode), f.BrandDesc,
		nullable(f.RangeCode), f.RangeDesc,
		f.Gender, f.Material, f.Style, f.LastCost, f.Quantity, f.UnitSellPrice, f.TotalLinePrice,
		nullable(f.TransTypeCode), f.TransTypeDesc,
	)
}

var salesColumns = withBatch(salesLayout)

func salesRow(f model.SalesFact, batchID string) []any {
	return append(SalesValues(f), batchID)
}

var paymentLayout = append(append([]string{"customer_number", "deposit_ref", "line_seq", "deposit_date", "fin_period"}, fiscalColumns...),
	"bank_amount", "discount_amount", "total_payment",
)

// PaymentColumns lists the flat payment fact layout shared by the loader and exports.
func PaymentColumns() []string {
	return append([]string{}, paymentLayout...)
}

// PaymentValues renders f in PaymentColumns order.
func PaymentValues(f model.PaymentFact) []any {
	row := []any{f.CustomerNumber, f.DepositRef, f.LineSeq, DateValue(f.DepositDate), nullable(f.FinPeriod)}
	row = append(row, FiscalValues(f.Fiscal)...)
	return append(row, f.BankAmount, f.DiscountAmount, f.TotalPayment)
}

var paymentColumns = withBatch(paymentLayout)

func paymentRow(f model.PaymentFact, batchID string) []any {
	return append(PaymentValues(f), batchID)
}

var customerDimLayout = []string{
	"customer_number", "category_code", "category_desc", "region_code", "region_desc",
	"rep_code", "rep_desc", "credit_limit", "account_parameters",
}

// CustomerDimColumns lists the customer dimension layout shared by the loader and exports.
func CustomerDimColumns() []string {
	return append([]string{}, customerDimLayout...)
}

// CustomerDimValues renders d in CustomerDimColumns order. Account parameters
// are a JSON object, or NULL when the customer has none.
func CustomerDimValues(d model.CustomerDim) []any {
	var params any
	if len(d.AccountParameters) > 0 {
		if b, err := json.Marshal(d.AccountParameters); err == nil {
			params = string(b)
		}
	}
	return []any{
		d.CustomerNumber, nullable(d.CategoryCode), d.CategoryDesc, nullable(d.RegionCode), d.RegionDesc,
		nullable(d.RepCode), d.RepDesc, d.CreditLimit, params,
	}
}

var customerDimColumns = withBatch(customerDimLayout)

var productDimLayout = []string{
	"inventory_code", "prodcat_code", "prodcat_desc", "brand_code", "brand_desc",
	"range_code", "range_desc", "gender", "material", "style", "last_cost",
}

// ProductDimColumns lists the product dimension layout shared by the loader and exports.
func ProductDimColumns() []string {
	return append([]string{}, productDimLayout...)
}

// ProductDimValues renders d in ProductDimColumns order.
func ProductDimValues(d model.ProductDim) []any {
	return []any{
		d.InventoryCode, nullable(d.ProdCatCode), d.ProdCatDesc, nullable(d.BrandCode), d.BrandDesc,
		nullable(d.RangeCode), d.RangeDesc, d.Gender, d.Material, d.Style, d.LastCost,
	}
}

var productDimColumns = withBatch(productDimLayout)

// CodeDimColumns lists a code/description dimension layout, e.g. supplier_code, supplier_desc.
func CodeDimColumns(prefix string) []string {
	return []string{prefix + "_code", prefix + "_desc"}
}

// CodeDimValues renders c in CodeDimColumns order.
func CodeDimValues(c model.CodeDesc) []any {
	return []any{c.Code, nullable(c.Desc)}
}

func batchRows[T any](rows []T, batchID string, values func(T) []any) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = append(values(r), batchID)
	}
	return out
}
