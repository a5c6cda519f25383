package export

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/calendar"
	"github.com/sells-group/fincal/internal/fetcher"
	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/model"
	"github.com/sells-group/fincal/internal/resilience"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func calendarFixture(t *testing.T) Dataset {
	t.Helper()
	rows, err := calendar.Generate(fiscal.NewDate(2025, time.February, 1), fiscal.NewDate(2025, time.February, 3))
	require.NoError(t, err)
	return CalendarDataset(rows)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{42, "42"},
		{int64(7), "7"},
		{12.5, "12.5"},
		{true, "TRUE"},
		{false, "FALSE"},
		{time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), "2025-03-01"},
		{time.Date(2025, time.March, 1, 8, 30, 0, 0, time.UTC), "2025-03-01T08:30:00Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

func TestExport_WritesXLSX(t *testing.T) {
	dir := t.TempDir()
	e, err := New(Options{Dir: dir}, nil)
	require.NoError(t, err)

	sales := SalesDataset([]model.SalesFact{{
		DocNumber: "INV1", LineSeq: 1, TransDate: fiscal.NewDate(2025, time.March, 14),
		Fiscal: fiscal.Resolve(fiscal.NewDate(2025, time.March, 14)), Quantity: 2, TotalLinePrice: 19.5,
		RegionDesc: model.UnknownLabel,
	}})
	results, err := e.Export(context.Background(), calendarFixture(t), sales, PaymentDataset(nil))
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "calendar_dim", results[0].Dataset)
	assert.Equal(t, 3, results[0].Rows)
	assert.Empty(t, results[0].Key)

	sheet, err := fetcher.ReadXLSX(filepath.Join(dir, "calendar_dim.xlsx"), fetcher.XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, calendar.Columns(), sheet.Header)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "2025-02-01", sheet.Rows[0][0])
	assert.Equal(t, "2025-01", sheet.Rows[0][1])

	salesSheet, err := fetcher.ReadXLSX(results[1].Path, fetcher.XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, salesSheet.Rows, 1)
	assert.Equal(t, "INV1", salesSheet.Rows[0][0])
	assert.Equal(t, "2025-02", salesSheet.Rows[0][4])

	paySheet, err := fetcher.ReadXLSX(results[2].Path, fetcher.XLSXOptions{})
	require.NoError(t, err)
	assert.Empty(t, paySheet.Rows)
}

func TestExport_DimensionDatasets(t *testing.T) {
	dir := t.TempDir()
	e, err := New(Options{Dir: dir}, nil)
	require.NoError(t, err)

	results, err := e.Export(context.Background(),
		CustomerDimDataset([]model.CustomerDim{{
			CustomerNumber: "C1", CategoryDesc: "Retail", RegionDesc: "North West", RepDesc: model.UnknownLabel,
			CreditLimit: 5000, AccountParameters: map[string]string{"TERMS": "30 days"},
		}}),
		ProductDimDataset([]model.ProductDim{{InventoryCode: "P1", ProdCatDesc: "Boots", LastCost: 6}}),
		SupplierDataset([]model.CodeDesc{{Code: "S1", Desc: "Leather Co"}}),
		RepresentativeDataset([]model.CodeDesc{{Code: "R1", Desc: "Thandi"}}),
	)
	require.NoError(t, err)
	require.Len(t, results, 4)

	cust, err := fetcher.ReadXLSX(filepath.Join(dir, "customer_dim.xlsx"), fetcher.XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, "account_parameters", cust.Header[8])
	require.Len(t, cust.Rows, 1)
	assert.Equal(t, "C1", cust.Rows[0][0])
	assert.Equal(t, "Retail", cust.Rows[0][2])
	assert.JSONEq(t, `{"TERMS":"30 days"}`, cust.Rows[0][8])

	prod, err := fetcher.ReadXLSX(filepath.Join(dir, "product_dim.xlsx"), fetcher.XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, "6", prod.Rows[0][10])

	sup, err := fetcher.ReadXLSX(filepath.Join(dir, "supplier_dim.xlsx"), fetcher.XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"supplier_code", "supplier_desc"}, sup.Header)
	assert.Equal(t, [][]string{{"S1", "Leather Co"}}, sup.Rows)

	reps, err := fetcher.ReadXLSX(filepath.Join(dir, "representative_dim.xlsx"), fetcher.XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"R1", "Thandi"}}, reps.Rows)
}

func TestExport_UploadsToS3(t *testing.T) {
	up := newMockUploader(t)
	up.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return in.Body != nil &&
			aws.ToString(in.Bucket) == "clearvue-exports" &&
			aws.ToString(in.Key) == "daily/2025-03-14/calendar_dim.xlsx" &&
			aws.ToString(in.ContentType) == xlsxContentType
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	e, err := New(Options{Dir: t.TempDir(), Bucket: "clearvue-exports", Prefix: "daily/2025-03-14"}, up)
	require.NoError(t, err)

	results, err := e.Export(context.Background(), calendarFixture(t))
	require.NoError(t, err)
	assert.Equal(t, "daily/2025-03-14/calendar_dim.xlsx", results[0].Key)
}

func TestExport_UploadRetriesTransient(t *testing.T) {
	up := newMockUploader(t)
	up.On("PutObject", mock.Anything, mock.Anything).
		Return(nil, resilience.NewTransientError(errors.New("slow down"), 503)).Once()
	up.On("PutObject", mock.Anything, mock.Anything).Return(&s3.PutObjectOutput{}, nil).Once()

	retry := resilience.DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	retry.MaxBackoff = time.Millisecond
	e, err := New(Options{Dir: t.TempDir(), Bucket: "b", Retry: retry}, up)
	require.NoError(t, err)

	_, err = e.Export(context.Background(), calendarFixture(t))
	require.NoError(t, err)
}

func TestExport_UploadFailure(t *testing.T) {
	up := newMockUploader(t)
	up.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied")).Once()

	e, err := New(Options{Dir: t.TempDir(), Bucket: "b"}, up)
	require.NoError(t, err)

	_, err = e.Export(context.Background(), calendarFixture(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{}, nil)
	require.Error(t, err)

	_, err = New(Options{Dir: t.TempDir(), Bucket: "b"}, nil)
	require.Error(t, err)
}
