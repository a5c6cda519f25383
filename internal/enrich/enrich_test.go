package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func fixtureSources() *model.Sources {
	return &model.Sources{
		SalesHeaders: []model.SalesHeader{
			{DocNumber: "D1", CustomerNumber: "C1", RepCode: "R1", TransTypeCode: "1", TransDate: fiscal.NewDate(2025, time.March, 3)},
			{DocNumber: "D2", CustomerNumber: "C9", TransTypeCode: "9", FinPeriod: "202412"},
			{DocNumber: "D3", CustomerNumber: "C1"},
		},
		SalesLines: []model.SalesLine{
			{DocNumber: "D1", InventoryCode: "P1", Quantity: 2, UnitSellPrice: 10, TotalLinePrice: 20, LastCost: 4},
			{DocNumber: "D2", InventoryCode: "P2", Quantity: 1},
			{DocNumber: "D1", InventoryCode: "P2", Quantity: 3},
			{DocNumber: "DX", InventoryCode: "P1"},
			{DocNumber: "D3", InventoryCode: "P1"},
		},
		Products: []model.Product{
			{InventoryCode: "P1", ProdCatCode: "11", LastCost: 6},
			{InventoryCode: "P1", ProdCatCode: "99"},
		},
		ProductCategories: []model.ProductCategory{{ProdCatCode: "11", Desc: "Boots", BrandCode: "7", RangeCode: "3"}},
		ProductBrands:     []model.CodeDesc{{Code: "7", Desc: "Acme"}},
		ProductRanges:     []model.CodeDesc{{Code: "3", Desc: "Outdoor"}},
		ProductStyles:     []model.ProductStyle{{InventoryCode: "P1", Gender: "Men", Material: "Leather", Style: "Hiking"}},
		Customers:         []model.Customer{{CustomerNumber: "C1", RegionCode: "NW", RepCode: "R2", CategoryCode: "4", CreditLimit: 5000}},
		CustomerRegions:   []model.CodeDesc{{Code: "NW", Desc: "North West"}},
		Representatives:   []model.CodeDesc{{Code: "R1", Desc: "Thandi"}},
		TransTypes:        []model.CodeDesc{{Code: "1", Desc: "Invoice"}},
	}
}

func TestSalesFacts_JoinAndFill(t *testing.T) {
	facts, stats, err := New(fiscal.NewResolver(), 4).SalesFacts(context.Background(), fixtureSources())
	require.NoError(t, err)

	assert.Equal(t, Stats{Input: 5, Output: 4, Orphaned: 1, Unclassified: 1}, stats)
	require.Len(t, facts, 4)

	f := facts[0]
	assert.Equal(t, "D1", f.DocNumber)
	assert.Equal(t, 1, f.LineSeq)
	assert.Equal(t, "11", f.ProdCatCode)
	assert.Equal(t, "Boots", f.ProdCatDesc)
	assert.Equal(t, "Acme", f.BrandDesc)
	assert.Equal(t, "Outdoor", f.RangeDesc)
	assert.Equal(t, "Leather", f.Material)
	assert.Equal(t, 6.0, f.LastCost)
	assert.Equal(t, "North West", f.RegionDesc)
	assert.Equal(t, "R1", f.RepCode, "header rep wins over customer rep")
	assert.Equal(t, "Thandi", f.RepDesc)
	assert.Equal(t, "Invoice", f.TransTypeDesc)
	assert.Equal(t, 5000.0, f.CreditLimit)
	assert.Equal(t, 2025, f.Fiscal.FinancialYear)
	assert.Equal(t, 2, f.Fiscal.FinancialMonth)

	// D2 has no date and falls back to FIN_PERIOD 202412.
	f = facts[1]
	assert.Equal(t, "D2", f.DocNumber)
	assert.Equal(t, model.UnknownLabel, f.ProdCatDesc)
	assert.Equal(t, model.UnknownLabel, f.Gender)
	assert.Equal(t, model.UnknownLabel, f.RegionDesc)
	assert.Equal(t, model.UnknownLabel, f.TransTypeDesc)
	assert.Zero(t, f.CreditLimit)
	assert.Equal(t, fiscal.ResolveFromEncodedPeriod(202412), f.Fiscal)

	assert.Equal(t, "D1", facts[2].DocNumber)
	assert.Equal(t, 2, facts[2].LineSeq)

	// D3 has neither date nor code.
	assert.True(t, facts[3].Fiscal.IsUnknown())
	assert.Equal(t, "R2", facts[3].RepCode)
}

func TestSalesFacts_RequiresSales(t *testing.T) {
	_, _, err := New(nil, 1).SalesFacts(context.Background(), &model.Sources{SalesLines: []model.SalesLine{}})
	assert.ErrorIs(t, err, ErrMissingSales)
}

func TestPaymentFacts_LeftJoin(t *testing.T) {
	src := &model.Sources{
		PaymentHeaders: []model.PaymentHeader{
			{CustomerNumber: "C1", DepositRef: "DEP1", DepositDate: fiscal.NewDate(2024, time.December, 28)},
		},
		PaymentLines: []model.PaymentLine{
			{CustomerNumber: "C1", DepositRef: "DEP1", BankAmount: 100, TotalPayment: 100},
			{CustomerNumber: "C1", DepositRef: "DEP1", BankAmount: 50, TotalPayment: 50},
			{CustomerNumber: "C2", DepositRef: "DEP9", FinPeriod: "202503"},
			{CustomerNumber: "C3", DepositRef: "DEP3"},
		},
	}
	facts, stats, err := New(fiscal.NewResolver(), 2).PaymentFacts(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, facts, 4)
	assert.Equal(t, Stats{Input: 4, Output: 4, Unclassified: 1}, stats)

	assert.Equal(t, fiscal.NewDate(2024, time.December, 28), facts[0].DepositDate)
	assert.Equal(t, 2024, facts[0].Fiscal.FinancialYear)
	assert.Equal(t, 11, facts[0].Fiscal.FinancialMonth)
	assert.Equal(t, 2, facts[1].LineSeq)
	assert.Equal(t, fiscal.ResolveFromEncodedPeriod("202503"), facts[2].Fiscal)
	assert.True(t, facts[3].Fiscal.IsUnknown())
}

func TestPaymentFacts_NoLines(t *testing.T) {
	facts, stats, err := New(nil, 1).PaymentFacts(context.Background(), &model.Sources{})
	require.NoError(t, err)
	assert.Nil(t, facts)
	assert.Zero(t, stats)
}

func TestTag(t *testing.T) {
	e := New(nil, 1)
	assert.Equal(t, fiscal.Resolve(fiscal.NewDate(2025, time.January, 10)), e.Tag(fiscal.NewDate(2025, time.January, 10), "202412"))
	assert.Equal(t, fiscal.ResolveFromEncodedPeriod(202412), e.Tag(fiscal.Date{}, "202412"))
	assert.True(t, e.Tag(fiscal.Date{}, "").IsUnknown())
	assert.True(t, e.Tag(fiscal.Date{}, "202513").IsUnknown())
}
