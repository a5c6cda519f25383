package enrich

import "github.com/sells-group/fincal/internal/model"

// lookups holds the dimension tables keyed by their codes. The first row for a
// duplicated code wins.
type lookups struct {
	products   map[string]model.Product
	categories map[string]model.ProductCategory
	brands     map[string]string
	ranges     map[string]string
	styles     map[string]model.ProductStyle
	customers  map[string]model.Customer
	regions    map[string]string
	custCats   map[string]string
	params     map[string]model.AccountParameters
	reps       map[string]string
	transTypes map[string]string
}

func newLookups(src *model.Sources) *lookups {
	return &lookups{
		products:   firstBy(src.Products, func(p model.Product) string { return p.InventoryCode }),
		categories: firstBy(src.ProductCategories, func(c model.ProductCategory) string { return c.ProdCatCode }),
		brands:     descs(src.ProductBrands),
		ranges:     descs(src.ProductRanges),
		styles:     firstBy(src.ProductStyles, func(s model.ProductStyle) string { return s.InventoryCode }),
		customers:  firstBy(src.Customers, func(c model.Customer) string { return c.CustomerNumber }),
		regions:    descs(src.CustomerRegions),
		custCats:   descs(src.CustomerCategories),
		params:     firstBy(src.AccountParameters, func(p model.AccountParameters) string { return p.CustomerNumber }),
		reps:       descs(src.Representatives),
		transTypes: descs(src.TransTypes),
	}
}

func (lk *lookups) salesFact(l model.SalesLine, h model.SalesHeader, seq int) model.SalesFact {
	f := model.SalesFact{
		DocNumber:      l.DocNumber,
		LineSeq:        seq,
		TransDate:      h.TransDate,
		FinPeriod:      h.FinPeriod,
		CustomerNumber: h.CustomerNumber,
		RepCode:        h.RepCode,
		TransTypeCode:  h.TransTypeCode,
		InventoryCode:  l.InventoryCode,
		LastCost:       l.LastCost,
		Quantity:       l.Quantity,
		UnitSellPrice:  l.UnitSellPrice,
		TotalLinePrice: l.TotalLinePrice,
	}

	p := lk.product(l.InventoryCode)
	f.ProdCatCode, f.ProdCatDesc = p.ProdCatCode, p.ProdCatDesc
	f.BrandCode, f.BrandDesc = p.BrandCode, p.BrandDesc
	f.RangeCode, f.RangeDesc = p.RangeCode, p.RangeDesc
	f.Gender, f.Material, f.Style = p.Gender, p.Material, p.Style
	if p.LastCost != 0 {
		f.LastCost = p.LastCost
	}

	if c, ok := lk.customers[h.CustomerNumber]; ok {
		f.RegionCode = c.RegionCode
		f.CategoryCode = c.CategoryCode
		f.CreditLimit = c.CreditLimit
		if f.RepCode == "" {
			f.RepCode = c.RepCode
		}
	}
	f.RegionDesc = lk.regions[f.RegionCode]
	f.RepDesc = lk.reps[f.RepCode]
	f.TransTypeDesc = lk.transTypes[f.TransTypeCode]

	fillUnknown(&f.RegionDesc, &f.RepDesc, &f.TransTypeDesc)
	return f
}

// product resolves a product's category, brand, range and style. A code with
// no products row still gets its style and Unknown labels.
func (lk *lookups) product(inventoryCode string) model.ProductDim {
	d := model.ProductDim{InventoryCode: inventoryCode}
	if p, ok := lk.products[inventoryCode]; ok {
		d.ProdCatCode, d.LastCost = p.ProdCatCode, p.LastCost
	}
	if c, ok := lk.categories[d.ProdCatCode]; ok {
		d.ProdCatDesc, d.BrandCode, d.RangeCode = c.Desc, c.BrandCode, c.RangeCode
	}
	d.BrandDesc = lk.brands[d.BrandCode]
	d.RangeDesc = lk.ranges[d.RangeCode]
	if s, ok := lk.styles[inventoryCode]; ok {
		d.Gender, d.Material, d.Style = s.Gender, s.Material, s.Style
	}
	fillUnknown(&d.ProdCatDesc, &d.BrandDesc, &d.RangeDesc, &d.Gender, &d.Material, &d.Style)
	return d
}

func (lk *lookups) customer(c model.Customer) model.CustomerDim {
	d := model.CustomerDim{
		CustomerNumber: c.CustomerNumber,
		CategoryCode:   c.CategoryCode,
		CategoryDesc:   lk.custCats[c.CategoryCode],
		RegionCode:     c.RegionCode,
		RegionDesc:     lk.regions[c.RegionCode],
		RepCode:        c.RepCode,
		RepDesc:        lk.reps[c.RepCode],
		CreditLimit:    c.CreditLimit,
	}
	if p, ok := lk.params[c.CustomerNumber]; ok && len(p.Values) > 0 {
		d.AccountParameters = p.Values
	}
	fillUnknown(&d.CategoryDesc, &d.RegionDesc, &d.RepDesc)
	return d
}

func fillUnknown(fields ...*string) {
	for _, s := range fields {
		if *s == "" {
			*s = model.UnknownLabel
		}
	}
}

func firstBy[T any](rows []T, key func(T) string) map[string]T {
	m := make(map[string]T, len(rows))
	for _, r := range rows {
		k := key(r)
		if _, ok := m[k]; !ok && k != "" {
			m[k] = r
		}
	}
	return m
}

func descs(rows []model.CodeDesc) map[string]string {
	m := make(map[string]string, len(rows))
	for _, r := range rows {
		if _, ok := m[r.Code]; !ok && r.Code != "" {
			m[r.Code] = r.Desc
		}
	}
	return m
}
