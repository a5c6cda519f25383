// Package enrich joins the source extracts into sales and payment facts and
// tags every fact with its financial period.
package enrich

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/model"
)

// ErrMissingSales is returned when the sales header or sales line extract is absent.
var ErrMissingSales = eris.New("enrich: sales header and sales line are required")

// Stats counts the outcome of one enrichment pass.
type Stats struct {
	Input        int
	Output       int
	Orphaned     int // lines without a matching header
	Unclassified int // facts whose financial period is Unknown
}

// Enricher builds facts from decoded sources.
type Enricher struct {
	resolver *fiscal.Resolver
	workers  int
}

// New returns an Enricher that resolves periods through r and fans work out over workers goroutines.
func New(r *fiscal.Resolver, workers int) *Enricher {
	if r == nil {
		r = fiscal.NewResolver()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Enricher{resolver: r, workers: workers}
}

// Tag returns the financial period for a fact. The calendar date wins; the
// encoded FIN_PERIOD is used only when the date is absent.
func (e *Enricher) Tag(d fiscal.Date, finPeriod string) fiscal.Period {
	if !d.IsZero() {
		return e.resolver.Resolve(d)
	}
	if finPeriod == "" {
		return fiscal.Unknown
	}
	return e.resolver.ResolveFromEncodedPeriod(finPeriod)
}

type salesJob struct {
	line   model.SalesLine
	header model.SalesHeader
	seq    int
}

// SalesFacts joins sales lines to their headers (inner) and then to every
// dimension (left). Output follows sales line order.
func (e *Enricher) SalesFacts(ctx context.Context, src *model.Sources) ([]model.SalesFact, Stats, error) {
	if src == nil || src.SalesHeaders == nil || src.SalesLines == nil {
		return nil, Stats{}, ErrMissingSales
	}
	stats := Stats{Input: len(src.SalesLines)}
	lk := newLookups(src)

	headers := firstBy(src.SalesHeaders, func(h model.SalesHeader) string { return h.DocNumber })
	seq := map[string]int{}
	jobs := make([]salesJob, 0, len(src.SalesLines))
	for _, l := range src.SalesLines {
		h, ok := headers[l.DocNumber]
		if !ok {
			stats.Orphaned++
			continue
		}
		seq[l.DocNumber]++
		jobs = append(jobs, salesJob{line: l, header: h, seq: seq[l.DocNumber]})
	}

	var unclassified atomic.Int64
	facts, err := Map(ctx, jobs, e.workers, func(_ context.Context, _ int, j salesJob) (model.SalesFact, error) {
		f := lk.salesFact(j.line, j.header, j.seq)
		f.Fiscal = e.Tag(j.header.TransDate, j.header.FinPeriod)
		if f.Fiscal.IsUnknown() {
			unclassified.Add(1)
		}
		return f, nil
	})
	if err != nil {
		return nil, stats, eris.Wrap(err, "enrich: sales facts")
	}

	stats.Output = len(facts)
	stats.Unclassified = int(unclassified.Load())
	logStats("sales_fact", stats)
	return facts, stats, nil
}

type paymentJob struct {
	line   model.PaymentLine
	header model.PaymentHeader
	seq    int
}

// PaymentFacts joins payment lines to payment headers on (customer, deposit ref), keeping
// lines without a header. Output follows payment line order.
func (e *Enricher) PaymentFacts(ctx context.Context, src *model.Sources) ([]model.PaymentFact, Stats, error) {
	if src == nil || src.PaymentLines == nil {
		return nil, Stats{}, nil
	}
	stats := Stats{Input: len(src.PaymentLines)}

	headers := firstBy(src.PaymentHeaders, func(h model.PaymentHeader) string { return paymentKey(h.CustomerNumber, h.DepositRef) })
	seq := map[string]int{}
	jobs := make([]paymentJob, len(src.PaymentLines))
	for i, l := range src.PaymentLines {
		key := paymentKey(l.CustomerNumber, l.DepositRef)
		seq[key]++
		jobs[i] = paymentJob{line: l, header: headers[key], seq: seq[key]}
	}

	var unclassified atomic.Int64
	facts, err := Map(ctx, jobs, e.workers, func(_ context.Context, _ int, j paymentJob) (model.PaymentFact, error) {
		f := model.PaymentFact{
			CustomerNumber: j.line.CustomerNumber,
			DepositRef:     j.line.DepositRef,
			LineSeq:        j.seq,
			DepositDate:    j.line.DepositDate,
			FinPeriod:      j.line.FinPeriod,
			BankAmount:     j.line.BankAmount,
			DiscountAmount: j.line.DiscountAmount,
			TotalPayment:   j.line.TotalPayment,
		}
		if f.DepositDate.IsZero() {
			f.DepositDate = j.header.DepositDate
		}
		if f.FinPeriod == "" {
			f.FinPeriod = j.header.FinPeriod
		}
		f.Fiscal = e.Tag(f.DepositDate, f.FinPeriod)
		if f.Fiscal.IsUnknown() {
			unclassified.Add(1)
		}
		return f, nil
	})
	if err != nil {
		return nil, stats, eris.Wrap(err, "enrich: payment facts")
	}

	stats.Output = len(facts)
	stats.Unclassified = int(unclassified.Load())
	logStats("payment_fact", stats)
	return facts, stats, nil
}

func paymentKey(customer, ref string) string {
	return customer + "\x00" + ref
}

func logStats(dataset string, s Stats) {
	zap.L().Info("enrichment complete",
		zap.String("component", "enrich"),
		zap.String("dataset", dataset),
		zap.Int("input", s.Input),
		zap.Int("output", s.Output),
		zap.Int("orphaned", s.Orphaned),
		zap.Int("unclassified", s.Unclassified),
	)
}
