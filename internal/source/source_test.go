package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/fetcher"
	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func writeXLSX(t *testing.T, dir, name string, header []string, rows ...[]string) {
	t.Helper()
	require.NoError(t, fetcher.WriteXLSX(filepath.Join(dir, name), "Sheet1", header, rows))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "12", NormalizeCode(" 12.0 "))
	assert.Equal(t, "12", NormalizeCode("12.000"))
	assert.Equal(t, "12.5", NormalizeCode("12.5"))
	assert.Equal(t, "A12.0", NormalizeCode("A12.0"))
	assert.Equal(t, "", NormalizeCode("  "))
	assert.Equal(t, "INV-001", NormalizeCode("INV-001"))
}

func TestIndexHeader_CaseInsensitive(t *testing.T) {
	cols := indexHeader([]string{" doc_number ", "Trans_Date", "DOC_NUMBER"})
	assert.Equal(t, 0, cols["DOC_NUMBER"])
	assert.Equal(t, 1, cols["TRANS_DATE"])
	assert.True(t, cols.has("MISSING", "TRANS_DATE"))
	assert.False(t, cols.has("MISSING"))
}

func TestDecodeInto_SalesHeader(t *testing.T) {
	sheet := &fetcher.Sheet{
		Header: []string{"doc_number", "customer_number", "rep_code", "transtype_code", "trans_date", "fin_period"},
		Rows: [][]string{
			{"D1", "C1", "R1", "1.0", "45667", "202501"},
			{"", "C2", "R2", "1", "2025-01-10", "202501"},
			{"D3", "C3", "R3", "2", "not a date", "202502.0"},
		},
	}
	var src model.Sources
	res, err := decodeInto(&src, model.TableSalesHeader, sheet)
	require.NoError(t, err)
	assert.Equal(t, Decoded{Rows: 2, Skipped: 1}, res)
	require.Len(t, src.SalesHeaders, 2)

	h := src.SalesHeaders[0]
	assert.Equal(t, "D1", h.DocNumber)
	assert.Equal(t, "1", h.TransTypeCode)
	assert.Equal(t, fiscal.NewDate(2025, time.January, 10), h.TransDate)
	assert.Equal(t, "202501", h.FinPeriod)

	assert.True(t, src.SalesHeaders[1].TransDate.IsZero())
	assert.Equal(t, "202502", src.SalesHeaders[1].FinPeriod)
}

func TestDecodeInto_MissingKeyColumn(t *testing.T) {
	var src model.Sources
	_, err := decodeInto(&src, model.TableCustomer, &fetcher.Sheet{Header: []string{"REGION_CODE"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CUSTOMER_NUMBER")
}

func TestDecodeInto_CustomerDimensionTables(t *testing.T) {
	var src model.Sources

	_, err := decodeInto(&src, model.TableCustomerCategories, &fetcher.Sheet{
		Header: []string{"CCAT_CODE", "CCAT_DESC"},
		Rows:   [][]string{{"3.0", "Retail"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []model.CodeDesc{{Code: "3", Desc: "Retail"}}, src.CustomerCategories)

	res, err := decodeInto(&src, model.TableCustomerAccountParameters, &fetcher.Sheet{
		Header: []string{"customer_number", "Terms", "Settlement_Disc", "NOTES"},
		Rows: [][]string{
			{"C1", "30 days", "2.5", ""},
			{"", "60 days", "", ""},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Decoded{Rows: 1, Skipped: 1}, res)
	require.Len(t, src.AccountParameters, 1)
	assert.Equal(t, "C1", src.AccountParameters[0].CustomerNumber)
	assert.Equal(t, map[string]string{"TERMS": "30 days", "SETTLEMENT_DISC": "2.5"}, src.AccountParameters[0].Values)

	_, err = decodeInto(&src, model.TableSuppliers, &fetcher.Sheet{
		Header: []string{"SUPPLIER_CODE", "SUPPLIER_NAME"},
		Rows:   [][]string{{"S1", "Leather Co"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []model.CodeDesc{{Code: "S1", Desc: "Leather Co"}}, src.Suppliers)
}

func TestDecodeInto_PaymentLines(t *testing.T) {
	sheet := &fetcher.Sheet{
		Header: []string{"CUSTOMER_NUMBER", "DEPOSIT_REF", "DEPOSIT_DATE", "BANK_AMT", "DISCOUNT", "TOT_PAYMENT"},
		Rows:   [][]string{{"C1", "DEP1", "2024-12-02", "1,000.50", "", "1000.5"}},
	}
	var src model.Sources
	_, err := decodeInto(&src, model.TablePaymentLines, sheet)
	require.NoError(t, err)
	require.Len(t, src.PaymentLines, 1)
	p := src.PaymentLines[0]
	assert.Equal(t, 1000.5, p.BankAmount)
	assert.Zero(t, p.DiscountAmount)
	assert.Equal(t, fiscal.NewDate(2024, time.December, 2), p.DepositDate)
}

func TestLoader_LocalDirectory(t *testing.T) {
	dir := t.TempDir()
	writeXLSX(t, dir, "sales_header.xlsx",
		[]string{"DOC_NUMBER", "CUSTOMER_NUMBER", "TRANS_DATE"},
		[]string{"D1", "C1", "2025-03-03"})
	writeXLSX(t, dir, "sales_line.xlsx",
		[]string{"DOC_NUMBER", "INVENTORY_CODE", "QUANTITY"},
		[]string{"D1", "P1", "2"}, []string{"D1", "P2", "1"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brands.csv"),
		[]byte("PRODBRA_CODE,PRODBRA_DESC\n7,Acme\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "customer.xlsx"), []byte("not a workbook"), 0o644))

	l, err := NewLoader(Options{
		Root:     dir,
		Manifest: &Manifest{Files: map[model.Table]string{model.TableProductBrands: "brands.csv"}},
	})
	require.NoError(t, err)

	src, reports, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, len(model.AllTables()))

	assert.Len(t, src.SalesHeaders, 1)
	assert.Len(t, src.SalesLines, 2)
	assert.Equal(t, []model.CodeDesc{{Code: "7", Desc: "Acme"}}, src.ProductBrands)
	assert.Nil(t, src.Customers)
	assert.Nil(t, src.Products)

	byTable := map[model.Table]TableReport{}
	for _, r := range reports {
		byTable[r.Table] = r
	}
	assert.Equal(t, StatusLoaded, byTable[model.TableSalesLine].Status)
	assert.Equal(t, 2, byTable[model.TableSalesLine].Rows)
	assert.Equal(t, StatusMissing, byTable[model.TableProducts].Status)
	assert.Equal(t, StatusFailed, byTable[model.TableCustomer].Status)
	assert.Error(t, byTable[model.TableCustomer].Err)

	assert.True(t, Loaded(reports, model.TableSalesHeader, model.TableSalesLine))
	assert.False(t, Loaded(reports, model.TableSalesHeader, model.TableCustomer))
}

func TestLoader_RemoteRoot(t *testing.T) {
	fixtures := t.TempDir()
	writeXLSX(t, fixtures, "trans_types.xlsx", []string{"TRANSTYPE_CODE", "TRANSTYPE_DESC"}, []string{"1", "Invoice"})

	srv := httptest.NewServer(http.StripPrefix("/extracts/", http.FileServer(http.Dir(fixtures))))
	defer srv.Close()

	l, err := NewLoader(Options{
		Root:    srv.URL + "/extracts",
		TempDir: t.TempDir(),
		Fetch:   fetcher.Options{HTTP: fetcher.HTTPOptions{RequestsPerSecond: 1000}},
	})
	require.NoError(t, err)

	src, reports, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.CodeDesc{{Code: "1", Desc: "Invoice"}}, src.TransTypes)
	assert.True(t, Loaded(reports, model.TableTransTypes))
	assert.False(t, Loaded(reports, model.TableSalesHeader))
}

func TestNewLoader_RequiresRoot(t *testing.T) {
	_, err := NewLoader(Options{})
	require.Error(t, err)
}
