package model

// CustomerDim is one customer with its category, region, representative and
// account parameters resolved.
type CustomerDim struct {
	CustomerNumber    string            `json:"customer_number"`
	CategoryCode      string            `json:"category_code"`
	CategoryDesc      string            `json:"category_desc"`
	RegionCode        string            `json:"region_code"`
	RegionDesc        string            `json:"region_desc"`
	RepCode           string            `json:"rep_code"`
	RepDesc           string            `json:"rep_desc"`
	CreditLimit       float64           `json:"credit_limit"`
	AccountParameters map[string]string `json:"account_parameters,omitempty"`
}

// ProductDim is one product with its category, brand, range and style resolved.
type ProductDim struct {
	InventoryCode string  `json:"inventory_code"`
	ProdCatCode   string  `json:"prodcat_code"`
	ProdCatDesc   string  `json:"prodcat_desc"`
	BrandCode     string  `json:"brand_code"`
	BrandDesc     string  `json:"brand_desc"`
	RangeCode     string  `json:"range_code"`
	RangeDesc     string  `json:"range_desc"`
	Gender        string  `json:"gender"`
	Material      string  `json:"material"`
	Style         string  `json:"style"`
	LastCost      float64 `json:"last_cost"`
}

// Dimensions holds the dimension tables built from one extract. A nil slice
// means its source table was absent.
type Dimensions struct {
	Customers       []CustomerDim
	Products        []ProductDim
	Suppliers       []CodeDesc
	Representatives []CodeDesc
}
