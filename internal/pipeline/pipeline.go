// Package pipeline runs the batch ETL: extract source tables, enrich them into
// fiscal-tagged facts, then load or export the results.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fincal/internal/calendar"
	"github.com/sells-group/fincal/internal/enrich"
	"github.com/sells-group/fincal/internal/model"
	"github.com/sells-group/fincal/internal/source"
	"github.com/sells-group/fincal/internal/warehouse"
)

// Extractor reads the source tables. *source.Loader implements it.
type Extractor interface {
	Load(ctx context.Context) (*model.Sources, []source.TableReport, error)
}

// Loader writes datasets. *warehouse.Warehouse implements it.
type Loader interface {
	LoadCalendar(ctx context.Context, batchID string, rows []calendar.Row) (warehouse.Result, error)
	LoadSalesFacts(ctx context.Context, batchID string, facts []model.SalesFact, meta map[string]any) (warehouse.Result, error)
	LoadPaymentFacts(ctx context.Context, batchID string, facts []model.PaymentFact, meta map[string]any) (warehouse.Result, error)
	LoadCustomerDim(ctx context.Context, batchID string, dims []model.CustomerDim) (warehouse.Result, error)
	LoadProductDim(ctx context.Context, batchID string, dims []model.ProductDim) (warehouse.Result, error)
	LoadSupplierDim(ctx context.Context, batchID string, rows []model.CodeDesc) (warehouse.Result, error)
	LoadRepresentativeDim(ctx context.Context, batchID string, rows []model.CodeDesc) (warehouse.Result, error)
}

// Facts is the enriched output of one extract.
type Facts struct {
	Sales        []model.SalesFact
	Payments     []model.PaymentFact
	SalesStats   enrich.Stats
	PaymentStats enrich.Stats
	Dims         model.Dimensions
	Reports      []source.TableReport
}

// Summary describes one load run.
type Summary struct {
	BatchID string
	Results []warehouse.Result
}

// Rows totals the rows written across datasets.
func (s Summary) Rows() int64 {
	var n int64
	for _, r := range s.Results {
		n += r.Rows
	}
	return n
}

// phase runs fn and logs its outcome and duration.
func phase(name string, fn func() error) error {
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("phase", name))
	start := time.Now()
	err := fn()
	duration := time.Since(start).Milliseconds()
	if err != nil {
		log.Error("pipeline: phase failed", zap.Int64("duration_ms", duration), zap.Error(err))
		return err
	}
	log.Info("pipeline: phase complete", zap.Int64("duration_ms", duration))
	return nil
}

// Extract loads every source table and enriches it. Missing sales tables skip
// the sales facts with a warning; payments are independent.
func Extract(ctx context.Context, ex Extractor, en *enrich.Enricher) (*Facts, error) {
	var src *model.Sources
	facts := &Facts{}

	err := phase("extract", func() error {
		var err error
		src, facts.Reports, err = ex.Load(ctx)
		return eris.Wrap(err, "pipeline: extract sources")
	})
	if err != nil {
		return nil, err
	}

	err = phase("enrich", func() error {
		var err error
		facts.Sales, facts.SalesStats, err = en.SalesFacts(ctx, src)
		if eris.Is(err, enrich.ErrMissingSales) {
			zap.L().Warn("pipeline: sales header or lines missing, sales facts skipped")
			err = nil
		}
		if err != nil {
			return err
		}
		facts.Payments, facts.PaymentStats, err = en.PaymentFacts(ctx, src)
		if err != nil {
			return err
		}
		facts.Dims = enrich.Dimensions(src)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return facts, nil
}

// Load writes the calendar, the dimensions and both fact tables under one
// batch id. Datasets load concurrently; empty datasets are skipped.
func Load(ctx context.Context, l Loader, cal []calendar.Row, facts *Facts) (Summary, error) {
	sum := Summary{BatchID: warehouse.NewBatchID()}
	if facts == nil {
		facts = &Facts{}
	}

	type job struct {
		rows int
		run  func(ctx context.Context) (warehouse.Result, error)
	}
	id, dims := sum.BatchID, facts.Dims
	jobs := []job{
		{len(cal), func(ctx context.Context) (warehouse.Result, error) {
			return l.LoadCalendar(ctx, id, cal)
		}},
		{len(dims.Customers), func(ctx context.Context) (warehouse.Result, error) {
			return l.LoadCustomerDim(ctx, id, dims.Customers)
		}},
		{len(dims.Products), func(ctx context.Context) (warehouse.Result, error) {
			return l.LoadProductDim(ctx, id, dims.Products)
		}},
		{len(dims.Suppliers), func(ctx context.Context) (warehouse.Result, error) {
			return l.LoadSupplierDim(ctx, id, dims.Suppliers)
		}},
		{len(dims.Representatives), func(ctx context.Context) (warehouse.Result, error) {
			return l.LoadRepresentativeDim(ctx, id, dims.Representatives)
		}},
		{len(facts.Sales), func(ctx context.Context) (warehouse.Result, error) {
			return l.LoadSalesFacts(ctx, id, facts.Sales, statsMeta(facts.SalesStats))
		}},
		{len(facts.Payments), func(ctx context.Context) (warehouse.Result, error) {
			return l.LoadPaymentFacts(ctx, id, facts.Payments, statsMeta(facts.PaymentStats))
		}},
	}

	results := make([]*warehouse.Result, len(jobs))
	err := phase("load", func() error {
		g, gctx := errgroup.WithContext(ctx)
		for i, j := range jobs {
			if j.rows == 0 {
				continue
			}
			g.Go(func() error {
				res, err := j.run(gctx)
				results[i] = &res
				return err
			})
		}
		return g.Wait()
	})
	for _, r := range results {
		if r != nil && r.Dataset != "" {
			sum.Results = append(sum.Results, *r)
		}
	}
	if err != nil {
		return sum, eris.Wrapf(err, "pipeline: load batch %s", sum.BatchID)
	}
	return sum, nil
}

func statsMeta(s enrich.Stats) map[string]any {
	return map[string]any{
		"input":        s.Input,
		"output":       s.Output,
		"orphaned":     s.Orphaned,
		"unclassified": s.Unclassified,
	}
}
