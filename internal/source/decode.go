package source

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/fincal/internal/fetcher"
	"github.com/sells-group/fincal/internal/model"
)

// Column names as they appear in the extract headers.
const (
	colDocNumber      = "DOC_NUMBER"
	colCustomerNumber = "CUSTOMER_NUMBER"
	colRepCode        = "REP_CODE"
	colRepDesc        = "REP_DESC"
	colTransTypeCode  = "TRANSTYPE_CODE"
	colTransTypeDesc  = "TRANSTYPE_DESC"
	colTransDate      = "TRANS_DATE"
	colFinPeriod      = "FIN_PERIOD"
	colInventoryCode  = "INVENTORY_CODE"
	colQuantity       = "QUANTITY"
	colUnitSellPrice  = "UNIT_SELL_PRICE"
	colTotalLinePrice = "TOTAL_LINE_PRICE"
	colLastCost       = "LAST_COST"
	colProdCatCode    = "PRODCAT_CODE"
	colProdCatDesc    = "PRODCAT_DESC"
	colBrandCode      = "BRAND_CODE"
	colProdBraCode    = "PRODBRA_CODE"
	colProdBraDesc    = "PRODBRA_DESC"
	colRangeCode      = "PRAN_CODE"
	colRangeDesc      = "PRAN_DESC"
	colGender         = "GENDER"
	colMaterial       = "MATERIAL"
	colStyle          = "STYLE"
	colRegionCode     = "REGION_CODE"
	colRegionDesc     = "REGION_DESC"
	colCategoryCode   = "CCAT_CODE"
	colCategoryDesc   = "CCAT_DESC"
	colSupplierCode   = "SUPPLIER_CODE"
	colSupplierDesc   = "SUPPLIER_DESC"
	colCreditLimit    = "CREDIT_LIMIT"
	colDepositRef     = "DEPOSIT_REF"
	colDepositDate    = "DEPOSIT_DATE"
	colBankAmount     = "BANK_AMT"
	colDiscount       = "DISCOUNT"
	colTotalPayment   = "TOT_PAYMENT"
)

// tableKeys lists the columns each table must carry; a row missing any of them is skipped.
var tableKeys = map[model.Table][]string{
	model.TableSalesHeader:       {colDocNumber},
	model.TableSalesLine:         {colDocNumber},
	model.TableProducts:          {colInventoryCode},
	model.TableProductCategories: {colProdCatCode},
	model.TableProductBrands:     {colProdBraCode},
	model.TableProductRanges:     {colRangeCode},
	model.TableProductStyles:     {colInventoryCode},
	model.TableCustomer:          {colCustomerNumber},
	model.TableCustomerRegions:   {colRegionCode},
	model.TableRepresentatives:   {colRepCode},
	model.TableTransTypes:        {colTransTypeCode},
	model.TablePaymentHeader:     {colCustomerNumber, colDepositRef},
	model.TablePaymentLines:      {colCustomerNumber, colDepositRef},

	model.TableCustomerCategories:        {colCategoryCode},
	model.TableCustomerAccountParameters: {colCustomerNumber},
	model.TableSuppliers:                 {colSupplierCode},
}

// Decoded counts the outcome of decoding one table.
type Decoded struct {
	Rows    int
	Skipped int
}

// decodeInto parses sheet as table t and stores the typed rows on dst.
func decodeInto(dst *model.Sources, t model.Table, sheet *fetcher.Sheet) (Decoded, error) {
	cols, recs := records(sheet)
	keys, ok := tableKeys[t]
	if !ok {
		return Decoded{}, eris.Errorf("source: no decoder for table %q", t)
	}
	for _, k := range keys {
		if !cols.has(k) {
			return Decoded{}, eris.Errorf("source: table %s is missing column %s", t, k)
		}
	}

	var res Decoded
	valid := recs[:0]
	for _, r := range recs {
		if hasKeys(r, keys) {
			valid = append(valid, r)
			continue
		}
		res.Skipped++
	}
	res.Rows = len(valid)

	switch t {
	case model.TableSalesHeader:
		dst.SalesHeaders = mapRecords(valid, func(r record) model.SalesHeader {
			return model.SalesHeader{
				DocNumber:      r.code(colDocNumber),
				CustomerNumber: r.code(colCustomerNumber),
				RepCode:        r.code(colRepCode),
				TransTypeCode:  r.code(colTransTypeCode),
				TransDate:      r.date(colTransDate),
				FinPeriod:      r.code(colFinPeriod),
			}
		})
	case model.TableSalesLine:
		dst.SalesLines = mapRecords(valid, func(r record) model.SalesLine {
			return model.SalesLine{
				DocNumber:      r.code(colDocNumber),
				InventoryCode:  r.code(colInventoryCode),
				Quantity:       r.float(colQuantity),
				UnitSellPrice:  r.float(colUnitSellPrice),
				TotalLinePrice: r.float(colTotalLinePrice),
				LastCost:       r.float(colLastCost),
			}
		})
	case model.TableProducts:
		dst.Products = mapRecords(valid, func(r record) model.Product {
			return model.Product{
				InventoryCode: r.code(colInventoryCode),
				ProdCatCode:   r.code(colProdCatCode),
				LastCost:      r.float(colLastCost),
			}
		})
	case model.TableProductCategories:
		dst.ProductCategories = mapRecords(valid, func(r record) model.ProductCategory {
			return model.ProductCategory{
				ProdCatCode: r.code(colProdCatCode),
				Desc:        r.text(colProdCatDesc),
				BrandCode:   r.code(colBrandCode, colProdBraCode),
				RangeCode:   r.code(colRangeCode),
			}
		})
	case model.TableProductBrands:
		dst.ProductBrands = codeDescs(valid, colProdBraCode, colProdBraDesc)
	case model.TableProductRanges:
		dst.ProductRanges = codeDescs(valid, colRangeCode, colRangeDesc)
	case model.TableProductStyles:
		dst.ProductStyles = mapRecords(valid, func(r record) model.ProductStyle {
			return model.ProductStyle{
				InventoryCode: r.code(colInventoryCode),
				Gender:        r.text(colGender),
				Material:      r.text(colMaterial),
				Style:         r.text(colStyle),
			}
		})
	case model.TableCustomer:
		dst.Customers = mapRecords(valid, func(r record) model.Customer {
			return model.Customer{
				CustomerNumber: r.code(colCustomerNumber),
				RegionCode:     r.code(colRegionCode),
				RepCode:        r.code(colRepCode),
				CategoryCode:   r.code(colCategoryCode),
				CreditLimit:    r.float(colCreditLimit),
			}
		})
	case model.TableCustomerRegions:
		dst.CustomerRegions = codeDescs(valid, colRegionCode, colRegionDesc)
	case model.TableCustomerCategories:
		dst.CustomerCategories = codeDescs(valid, colCategoryCode, colCategoryDesc)
	case model.TableCustomerAccountParameters:
		dst.AccountParameters = mapRecords(valid, func(r record) model.AccountParameters {
			return model.AccountParameters{
				CustomerNumber: r.code(colCustomerNumber),
				Values:         r.values(colCustomerNumber),
			}
		})
	case model.TableRepresentatives:
		dst.Representatives = codeDescs(valid, colRepCode, colRepDesc)
	case model.TableSuppliers:
		dst.Suppliers = codeDescs(valid, colSupplierCode, colSupplierDesc, "SUPPLIER_NAME", "NAME")
	case model.TableTransTypes:
		dst.TransTypes = codeDescs(valid, colTransTypeCode, colTransTypeDesc)
	case model.TablePaymentHeader:
		dst.PaymentHeaders = mapRecords(valid, func(r record) model.PaymentHeader {
			return model.PaymentHeader{
				CustomerNumber: r.code(colCustomerNumber),
				DepositRef:     r.code(colDepositRef),
				DepositDate:    r.date(colDepositDate),
				FinPeriod:      r.code(colFinPeriod),
			}
		})
	case model.TablePaymentLines:
		dst.PaymentLines = mapRecords(valid, func(r record) model.PaymentLine {
			return model.PaymentLine{
				CustomerNumber: r.code(colCustomerNumber),
				DepositRef:     r.code(colDepositRef),
				DepositDate:    r.date(colDepositDate),
				FinPeriod:      r.code(colFinPeriod),
				BankAmount:     r.float(colBankAmount, "BANK_AMOUNT"),
				DiscountAmount: r.float(colDiscount, "DISCOUNT_AMT"),
				TotalPayment:   r.float(colTotalPayment, "TOTAL_PAYMENT"),
			}
		})
	}
	return res, nil
}

func hasKeys(r record, keys []string) bool {
	for _, k := range keys {
		if r.code(k) == "" {
			return false
		}
	}
	return true
}

func mapRecords[T any](recs []record, fn func(record) T) []T {
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = fn(r)
	}
	return out
}

func codeDescs(recs []record, codeCol string, descCols ...string) []model.CodeDesc {
	return mapRecords(recs, func(r record) model.CodeDesc {
		return model.CodeDesc{Code: r.code(codeCol), Desc: r.text(descCols...)}
	})
}
