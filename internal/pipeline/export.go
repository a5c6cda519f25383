package pipeline

import (
	"context"

	"github.com/sells-group/fincal/internal/calendar"
	"github.com/sells-group/fincal/internal/export"
)

// Exporter writes datasets. *export.Exporter implements it.
type Exporter interface {
	Export(ctx context.Context, datasets ...export.Dataset) ([]export.Result, error)
}

// Export writes the calendar dimension and whichever dimensions and fact
// tables facts holds.
func Export(ctx context.Context, ex Exporter, cal []calendar.Row, facts *Facts) ([]export.Result, error) {
	var datasets []export.Dataset
	if len(cal) > 0 {
		datasets = append(datasets, export.CalendarDataset(cal))
	}
	if facts != nil {
		if facts.Dims.Customers != nil {
			datasets = append(datasets, export.CustomerDimDataset(facts.Dims.Customers))
		}
		if facts.Dims.Products != nil {
			datasets = append(datasets, export.ProductDimDataset(facts.Dims.Products))
		}
		if facts.Dims.Suppliers != nil {
			datasets = append(datasets, export.SupplierDataset(facts.Dims.Suppliers))
		}
		if facts.Dims.Representatives != nil {
			datasets = append(datasets, export.RepresentativeDataset(facts.Dims.Representatives))
		}
		if facts.Sales != nil {
			datasets = append(datasets, export.SalesDataset(facts.Sales))
		}
		if facts.Payments != nil {
			datasets = append(datasets, export.PaymentDataset(facts.Payments))
		}
	}

	var results []export.Result
	err := phase("export", func() error {
		var err error
		results, err = ex.Export(ctx, datasets...)
		return err
	})
	return results, err
}
