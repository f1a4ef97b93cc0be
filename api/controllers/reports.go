package controllers

import (
	"net/http"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/api/responses"
	"github.com/Maiconloureiro96-cyber/distribuidora/api/validators"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/receipts"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/reports"
	pkgerrors "github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
)

func DailyReport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		date, err := validators.ParseQueryDate(r, "date", time.Now())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.Daily(ctx, date)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"report":    report,
			"formatted": reports.FormatSalesReport(report),
		})
	}
}

func MonthlyReport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now()

		year, err := validators.ParseQueryInt(r, "year", now.Year(), 2000, 2200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		month, err := validators.ParseQueryInt(r, "month", int(now.Month()), 1, 12)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.Monthly(ctx, year, time.Month(month))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"report":    report,
			"formatted": reports.FormatSalesReport(report),
		})
	}
}

func PeriodReport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		start, err := validators.ParseQueryDate(r, "start", time.Time{})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		end, err := validators.ParseQueryDate(r, "end", time.Time{})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if start.IsZero() || end.IsZero() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "start and end dates are required"))
			return
		}

		report, err := svc.Period(ctx, start, end)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"report":    report,
			"formatted": reports.FormatSalesReport(report),
		})
	}
}

func TopCustomersReport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		customers, err := svc.TopCustomers(ctx, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, customers)
	}
}

func HourlySalesReport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		date, err := validators.ParseQueryDate(r, "date", time.Now())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		hourly, err := svc.SalesByHour(ctx, date)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, hourly)
	}
}

// SalesReportPDF renders the daily report as a PDF on disk and returns
// the generated path.
func SalesReportPDF(svc *reports.Service, pdfs *receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		date, err := validators.ParseQueryDate(r, "date", time.Now())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.Daily(ctx, date)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		path, err := pdfs.GenerateSalesReport(reportToSummary(report))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate report pdf"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"path": path})
	}
}

func reportToSummary(report *reports.SalesReport) receipts.SalesSummary {
	summary := receipts.SalesSummary{
		Period:       report.Period,
		TotalOrders:  report.TotalOrders,
		TotalRevenue: report.TotalRevenue.StringFixed(2),
	}
	for _, top := range report.TopProducts {
		summary.TopProducts = append(summary.TopProducts, receipts.TopProduct{
			ProductName:  top.ProductName,
			QuantitySold: top.QuantitySold,
			Revenue:      top.Revenue.StringFixed(2),
		})
	}
	return summary
}
