package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sells-group/fincal/internal/calendar"
	"github.com/sells-group/fincal/internal/model"
	"github.com/sells-group/fincal/internal/warehouse"
)

// Dataset is one table to export as a single sheet.
type Dataset struct {
	Name   string
	Header []string
	Rows   [][]any
}

// CalendarDataset returns the calendar dimension in calendar.Columns order.
func CalendarDataset(rows []calendar.Row) Dataset {
	ds := Dataset{Name: warehouse.DatasetCalendar, Header: calendar.Columns(), Rows: make([][]any, len(rows))}
	for i, r := range rows {
		ds.Rows[i] = r.Values()
	}
	return ds
}

// SalesDataset returns enriched sales lines in the warehouse layout.
func SalesDataset(facts []model.SalesFact) Dataset {
	ds := Dataset{Name: warehouse.DatasetSales, Header: warehouse.SalesColumns(), Rows: make([][]any, len(facts))}
	for i, f := range facts {
		ds.Rows[i] = warehouse.SalesValues(f)
	}
	return ds
}

// PaymentDataset returns enriched payment lines in the warehouse layout.
func PaymentDataset(facts []model.PaymentFact) Dataset {
	ds := Dataset{Name: warehouse.DatasetPayments, Header: warehouse.PaymentColumns(), Rows: make([][]any, len(facts))}
	for i, f := range facts {
		ds.Rows[i] = warehouse.PaymentValues(f)
	}
	return ds
}

// CustomerDimDataset returns the customer dimension in the warehouse layout.
func CustomerDimDataset(dims []model.CustomerDim) Dataset {
	return layoutDataset(warehouse.DatasetCustomers, warehouse.CustomerDimColumns(), dims, warehouse.CustomerDimValues)
}

// ProductDimDataset returns the product dimension in the warehouse layout.
func ProductDimDataset(dims []model.ProductDim) Dataset {
	return layoutDataset(warehouse.DatasetProducts, warehouse.ProductDimColumns(), dims, warehouse.ProductDimValues)
}

// SupplierDataset returns the supplier dimension.
func SupplierDataset(rows []model.CodeDesc) Dataset {
	return layoutDataset(warehouse.DatasetSuppliers, warehouse.CodeDimColumns("supplier"), rows, warehouse.CodeDimValues)
}

// RepresentativeDataset returns the representative dimension.
func RepresentativeDataset(rows []model.CodeDesc) Dataset {
	return layoutDataset(warehouse.DatasetRepresentatives, warehouse.CodeDimColumns("rep"), rows, warehouse.CodeDimValues)
}

func layoutDataset[T any](name string, header []string, rows []T, values func(T) []any) Dataset {
	ds := Dataset{Name: name, Header: header, Rows: make([][]any, len(rows))}
	for i, r := range rows {
		ds.Rows[i] = values(r)
	}
	return ds
}

// FormatValue renders a cell. NULL is empty and midnight times are plain dates.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func (d Dataset) strings() [][]string {
	out := make([][]string, len(d.Rows))
	for i, row := range d.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		out[i] = cells
	}
	return out
}
