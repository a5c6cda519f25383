package warehouse

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/calendar"
	"github.com/sells-group/fincal/internal/db"
	"github.com/sells-group/fincal/internal/model"
	"github.com/sells-group/fincal/internal/resilience"
)

// Dataset names as recorded in the load log.
const (
	DatasetCalendar = "calendar_dim"
	DatasetSales    = "sales_fact"
	DatasetPayments = "payment_fact"

	DatasetCustomers       = "customer_dim"
	DatasetProducts        = "product_dim"
	DatasetSuppliers       = "supplier_dim"
	DatasetRepresentatives = "representative_dim"
)

// Result is the outcome of loading one dataset.
type Result struct {
	Dataset  string
	BatchID  string
	Rows     int64
	Duration time.Duration
}

// Options configures a Warehouse.
type Options struct {
	BatchSize int
	Retry     resilience.RetryConfig
}

// Warehouse writes datasets into the clearvue schema.
type Warehouse struct {
	pool db.Pool
	log  *LoadLog
	opts Options
}

// New returns a Warehouse writing through pool.
func New(pool db.Pool, opts Options) *Warehouse {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5000
	}
	return &Warehouse{pool: pool, log: NewLoadLog(pool), opts: opts}
}

// LoadCalendar upserts calendar dimension rows keyed by date.
func (w *Warehouse) LoadCalendar(ctx context.Context, batchID string, rows []calendar.Row) (Result, error) {
	return w.load(ctx, batchID, DatasetCalendar, db.UpsertConfig{
		Table:        Schema + "." + DatasetCalendar,
		Columns:      calendarColumns,
		ConflictKeys: []string{"date"},
	}, calendarRows(rows, batchID), nil)
}

// LoadSalesFacts upserts sales facts keyed by (doc_number, line_seq).
func (w *Warehouse) LoadSalesFacts(ctx context.Context, batchID string, facts []model.SalesFact, meta map[string]any) (Result, error) {
	rows := make([][]any, len(facts))
	for i, f := range facts {
		rows[i] = salesRow(f, batchID)
	}
	return w.load(ctx, batchID, DatasetSales, db.UpsertConfig{
		Table:        Schema + "." + DatasetSales,
		Columns:      salesColumns,
		ConflictKeys: []string{"doc_number", "line_seq"},
	}, rows, meta)
}

// LoadPaymentFacts upserts payment facts keyed by (customer_number, deposit_ref, line_seq).
func (w *Warehouse) LoadPaymentFacts(ctx context.Context, batchID string, facts []model.PaymentFact, meta map[string]any) (Result, error) {
	rows := make([][]any, len(facts))
	for i, f := range facts {
		rows[i] = paymentRow(f, batchID)
	}
	return w.load(ctx, batchID, DatasetPayments, db.UpsertConfig{
		Table:        Schema + "." + DatasetPayments,
		Columns:      paymentColumns,
		ConflictKeys: []string{"customer_number", "deposit_ref", "line_seq"},
	}, rows, meta)
}

// LoadCustomerDim upserts customer dimension rows keyed by customer_number.
func (w *Warehouse) LoadCustomerDim(ctx context.Context, batchID string, dims []model.CustomerDim) (Result, error) {
	return w.load(ctx, batchID, DatasetCustomers, db.UpsertConfig{
		Table:        Schema + "." + DatasetCustomers,
		Columns:      customerDimColumns,
		ConflictKeys: []string{"customer_number"},
	}, batchRows(dims, batchID, CustomerDimValues), nil)
}

// LoadProductDim upserts product dimension rows keyed by inventory_code.
func (w *Warehouse) LoadProductDim(ctx context.Context, batchID string, dims []model.ProductDim) (Result, error) {
	return w.load(ctx, batchID, DatasetProducts, db.UpsertConfig{
		Table:        Schema + "." + DatasetProducts,
		Columns:      productDimColumns,
		ConflictKeys: []string{"inventory_code"},
	}, batchRows(dims, batchID, ProductDimValues), nil)
}

// LoadSupplierDim upserts suppliers keyed by supplier_code.
func (w *Warehouse) LoadSupplierDim(ctx context.Context, batchID string, rows []model.CodeDesc) (Result, error) {
	return w.loadCodes(ctx, batchID, DatasetSuppliers, "supplier", rows)
}

// LoadRepresentativeDim upserts representatives keyed by rep_code.
func (w *Warehouse) LoadRepresentativeDim(ctx context.Context, batchID string, rows []model.CodeDesc) (Result, error) {
	return w.loadCodes(ctx, batchID, DatasetRepresentatives, "rep", rows)
}

func (w *Warehouse) loadCodes(ctx context.Context, batchID, dataset, prefix string, rows []model.CodeDesc) (Result, error) {
	cols := CodeDimColumns(prefix)
	return w.load(ctx, batchID, dataset, db.UpsertConfig{
		Table:        Schema + "." + dataset,
		Columns:      withBatch(cols),
		ConflictKeys: cols[:1],
	}, batchRows(rows, batchID, CodeDimValues), nil)
}

// load writes rows in batches, each retried on transient errors, and records
// the run in the load log.
func (w *Warehouse) load(ctx context.Context, batchID, dataset string, cfg db.UpsertConfig, rows [][]any, meta map[string]any) (Result, error) {
	log := zap.L().With(
		zap.String("component", "warehouse"),
		zap.String("dataset", dataset),
		zap.String("batch_id", batchID),
	)
	start := time.Now()
	res := Result{Dataset: dataset, BatchID: batchID}

	logID, err := w.log.Start(ctx, batchID, dataset)
	if err != nil {
		return res, err
	}
	// The log row is closed out even when ctx is cancelled mid-load.
	bookCtx := context.WithoutCancel(ctx)

	retry := w.opts.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("warehouse", "upsert "+dataset)
	}

	for i, chunk := range db.Chunk(rows, w.opts.BatchSize) {
		n, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (int64, error) {
			return db.BulkUpsert(ctx, w.pool, cfg, chunk)
		})
		if err != nil {
			if failErr := w.log.Fail(bookCtx, logID, res.Rows, err.Error()); failErr != nil {
				log.Warn("failed to record load failure", zap.Error(failErr))
			}
			return res, eris.Wrapf(err, "warehouse: upsert %s batch %d", dataset, i)
		}
		res.Rows += n
		log.Debug("batch upserted", zap.Int("batch", i), zap.Int64("rows", n))
	}

	res.Duration = time.Since(start)
	if err := w.log.Complete(bookCtx, logID, res.Rows, meta); err != nil {
		return res, err
	}
	log.Info("dataset loaded", zap.Int64("rows", res.Rows), zap.Duration("elapsed", res.Duration))
	return res, nil
}

// Recent returns the latest load log entries.
func (w *Warehouse) Recent(ctx context.Context, limit int) ([]LoadEntry, error) {
	return w.log.Recent(ctx, limit)
}
