// Package model defines the typed record shapes read from source extracts and
// written to the analytical store.
package model

import "github.com/sells-group/fincal/internal/fiscal"

// Table identifies a source extract.
type Table string

const (
	TableSalesHeader       Table = "sales_header"
	TableSalesLine         Table = "sales_line"
	TableProducts          Table = "products"
	TableProductCategories Table = "product_categories"
	TableProductBrands     Table = "product_brands"
	TableProductRanges     Table = "product_ranges"
	TableProductStyles     Table = "products_styles"
	TableCustomer          Table = "customer"
	TableCustomerRegions   Table = "customer_regions"
	TableRepresentatives   Table = "representatives"
	TableTransTypes        Table = "trans_types"
	TablePaymentHeader     Table = "payment_header"
	TablePaymentLines      Table = "payment_lines"

	TableCustomerCategories        Table = "customer_categories"
	TableCustomerAccountParameters Table = "customer_account_parameters"
	TableSuppliers                 Table = "suppliers"
)

// AllTables lists every source extract in load order.
func AllTables() []Table {
	return []Table{
		TableSalesHeader, TableSalesLine,
		TableProducts, TableProductCategories, TableProductBrands, TableProductRanges, TableProductStyles,
		TableCustomer, TableCustomerRegions, TableCustomerCategories, TableCustomerAccountParameters,
		TableRepresentatives, TableSuppliers, TableTransTypes,
		TablePaymentHeader, TablePaymentLines,
	}
}

// SalesHeader is one row of the sales header extract.
type SalesHeader struct {
	DocNumber      string
	CustomerNumber string
	RepCode        string
	TransTypeCode  string
	TransDate      fiscal.Date
	FinPeriod      string
}

// SalesLine is one row of the sales line extract.
type SalesLine struct {
	DocNumber      string
	InventoryCode  string
	Quantity       float64
	UnitSellPrice  float64
	TotalLinePrice float64
	LastCost       float64
}

// Product is one row of the products extract.
type Product struct {
	InventoryCode string
	ProdCatCode   string
	LastCost      float64
}

// ProductCategory is one row of the product categories extract.
type ProductCategory struct {
	ProdCatCode string
	Desc        string
	BrandCode   string
	RangeCode   string
}

// ProductStyle is one row of the products styles extract.
type ProductStyle struct {
	InventoryCode string
	Gender        string
	Material      string
	Style         string
}

// Customer is one row of the customer extract.
type Customer struct {
	CustomerNumber string
	RegionCode     string
	RepCode        string
	CategoryCode   string
	CreditLimit    float64
}

// AccountParameters is one row of the customer account parameters extract.
// Every non-key column is kept by its upper-cased header name.
type AccountParameters struct {
	CustomerNumber string
	Values         map[string]string
}

// CodeDesc is a code/description lookup row (brands, ranges, regions,
// customer categories, reps, suppliers, transaction types).
type CodeDesc struct {
	Code string
	Desc string
}

// PaymentHeader is one row of the payment header extract.
type PaymentHeader struct {
	CustomerNumber string
	DepositRef     string
	DepositDate    fiscal.Date
	FinPeriod      string
}

// PaymentLine is one row of the payment lines extract.
type PaymentLine struct {
	CustomerNumber string
	DepositRef     string
	DepositDate    fiscal.Date
	FinPeriod      string
	BankAmount     float64
	DiscountAmount float64
	TotalPayment   float64
}

// Sources holds every decoded extract. Absent extracts are nil.
type Sources struct {
	SalesHeaders       []SalesHeader
	SalesLines         []SalesLine
	Products           []Product
	ProductCategories  []ProductCategory
	ProductBrands      []CodeDesc
	ProductRanges      []CodeDesc
	ProductStyles      []ProductStyle
	Customers          []Customer
	CustomerRegions    []CodeDesc
	CustomerCategories []CodeDesc
	AccountParameters  []AccountParameters
	Representatives    []CodeDesc
	Suppliers          []CodeDesc
	TransTypes         []CodeDesc
	PaymentHeaders     []PaymentHeader
	PaymentLines       []PaymentLine
}
