package enrich

import (
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/model"
)

// Dimensions builds the customer, product, supplier and representative
// dimensions. Each is one row per distinct code in source order, the first
// row winning; a dimension whose source table is absent stays nil.
func Dimensions(src *model.Sources) model.Dimensions {
	var dims model.Dimensions
	if src == nil {
		return dims
	}
	lk := newLookups(src)

	if src.Customers != nil {
		dims.Customers = make([]model.CustomerDim, 0, len(src.Customers))
		for _, c := range distinct(src.Customers, func(c model.Customer) string { return c.CustomerNumber }) {
			dims.Customers = append(dims.Customers, lk.customer(c))
		}
	}
	if src.Products != nil {
		dims.Products = make([]model.ProductDim, 0, len(src.Products))
		for _, p := range distinct(src.Products, func(p model.Product) string { return p.InventoryCode }) {
			dims.Products = append(dims.Products, lk.product(p.InventoryCode))
		}
	}
	if src.Suppliers != nil {
		dims.Suppliers = distinct(src.Suppliers, codeOf)
	}
	if src.Representatives != nil {
		dims.Representatives = distinct(src.Representatives, codeOf)
	}

	zap.L().Info("dimensions built",
		zap.String("component", "enrich"),
		zap.Int("customers", len(dims.Customers)),
		zap.Int("products", len(dims.Products)),
		zap.Int("suppliers", len(dims.Suppliers)),
		zap.Int("representatives", len(dims.Representatives)),
	)
	return dims
}

func codeOf(c model.CodeDesc) string { return c.Code }

// distinct keeps the first row per non-empty key, in order.
func distinct[T any](rows []T, key func(T) string) []T {
	seen := make(map[string]bool, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		k := key(r)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}
