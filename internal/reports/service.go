package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	pkgerrors "github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// revenueStatuses are the order states that count as actual sales.
var revenueStatuses = []enums.OrderStatus{
	enums.OrderStatusConfirmed,
	enums.OrderStatusPreparing,
	enums.OrderStatusOutForDelivery,
	enums.OrderStatusDelivered,
}

// TopProduct is one best-seller row.
type TopProduct struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// SalesReport aggregates orders over a period.
type SalesReport struct {
	Period       string          `json:"period"`
	TotalOrders  int             `json:"total_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TopProducts  []TopProduct    `json:"top_products"`
}

// GeneralStats is the dashboard summary.
type GeneralStats struct {
	TotalOrders    int64                       `json:"total_orders"`
	TotalProducts  int64                       `json:"total_products"`
	TotalRevenue   decimal.Decimal             `json:"total_revenue"`
	AverageTicket  decimal.Decimal             `json:"average_ticket"`
	OrdersByStatus map[enums.OrderStatus]int64 `json:"orders_by_status"`
}

// TopCustomer summarizes one customer's buying history.
type TopCustomer struct {
	Phone        string          `json:"phone"`
	Name         string          `json:"name"`
	TotalOrders  int             `json:"total_orders"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	AverageOrder decimal.Decimal `json:"average_order"`
}

// HourlySales is revenue bucketed by hour of day.
type HourlySales struct {
	Hour    int             `json:"hour"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type reportRepository interface {
	OrdersInRange(ctx context.Context, from, to time.Time, statuses []enums.OrderStatus) ([]models.Order, error)
	OrdersWithItems(ctx context.Context, statuses []enums.OrderStatus) ([]models.Order, error)
	CountOrders(ctx context.Context) (int64, error)
	CountActiveProducts(ctx context.Context) (int64, error)
	StatusCounts(ctx context.Context) (map[enums.OrderStatus]int64, error)
}

// Service computes sales aggregates from persisted orders.
type Service struct {
	repo reportRepository
}

func NewService(repo reportRepository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports: repository required")
	}
	return &Service{repo: repo}, nil
}

// Daily reports on the calendar day of the given date, all statuses included.
func (s *Service) Daily(ctx context.Context, date time.Time) (*SalesReport, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	to := from.Add(24*time.Hour - time.Nanosecond)

	orders, err := s.repo.OrdersInRange(ctx, from, to, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "daily report")
	}

	report := aggregate(orders)
	report.Period = from.Format("2006-01-02")
	return report, nil
}

// Monthly reports one calendar month, counting only revenue statuses.
func (s *Service) Monthly(ctx context.Context, year int, month time.Month) (*SalesReport, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)

	orders, err := s.repo.OrdersInRange(ctx, from, to, revenueStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "monthly report")
	}

	report := aggregate(orders)
	report.Period = fmt.Sprintf("%04d-%02d", year, month)
	return report, nil
}

// Period reports an arbitrary inclusive date range, revenue statuses only.
func (s *Service) Period(ctx context.Context, start, end time.Time) (*SalesReport, error) {
	if end.Before(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period end before start")
	}

	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location()).Add(24*time.Hour - time.Nanosecond)

	orders, err := s.repo.OrdersInRange(ctx, from, to, revenueStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "period report")
	}

	report := aggregate(orders)
	report.Period = fmt.Sprintf("%s a %s", from.Format("2006-01-02"), end.Format("2006-01-02"))
	return report, nil
}

// General computes the dashboard totals.
func (s *Service) General(ctx context.Context) (*GeneralStats, error) {
	totalOrders, err := s.repo.CountOrders(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count orders")
	}

	totalProducts, err := s.repo.CountActiveProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count products")
	}

	revenueOrders, err := s.repo.OrdersWithItems(ctx, revenueStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load revenue orders")
	}

	revenue := decimal.Zero
	for _, order := range revenueOrders {
		for _, item := range order.Items {
			revenue = revenue.Add(item.TotalPrice)
		}
	}

	statusCounts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count by status")
	}

	avg := decimal.Zero
	if totalOrders > 0 {
		avg = revenue.Div(decimal.NewFromInt(totalOrders)).Round(2)
	}

	return &GeneralStats{
		TotalOrders:    totalOrders,
		TotalProducts:  totalProducts,
		TotalRevenue:   revenue,
		AverageTicket:  avg,
		OrdersByStatus: statusCounts,
	}, nil
}

// TopCustomers ranks customers by total spend.
func (s *Service) TopCustomers(ctx context.Context, limit int) ([]TopCustomer, error) {
	if limit <= 0 {
		limit = 10
	}

	orders, err := s.repo.OrdersWithItems(ctx, revenueStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load customer orders")
	}

	type acc struct {
		name   string
		orders int
		spent  decimal.Decimal
	}
	byPhone := map[string]*acc{}
	for _, order := range orders {
		a, ok := byPhone[order.CustomerPhone]
		if !ok {
			name := "Cliente"
			if order.CustomerName != nil && *order.CustomerName != "" {
				name = *order.CustomerName
			}
			a = &acc{name: name, spent: decimal.Zero}
			byPhone[order.CustomerPhone] = a
		}
		a.orders++
		for _, item := range order.Items {
			a.spent = a.spent.Add(item.TotalPrice)
		}
	}

	customers := make([]TopCustomer, 0, len(byPhone))
	for phone, a := range byPhone {
		avg := decimal.Zero
		if a.orders > 0 {
			avg = a.spent.Div(decimal.NewFromInt(int64(a.orders))).Round(2)
		}
		customers = append(customers, TopCustomer{
			Phone:        phone,
			Name:         a.name,
			TotalOrders:  a.orders,
			TotalSpent:   a.spent,
			AverageOrder: avg,
		})
	}

	sort.Slice(customers, func(i, j int) bool {
		if !customers[i].TotalSpent.Equal(customers[j].TotalSpent) {
			return customers[i].TotalSpent.GreaterThan(customers[j].TotalSpent)
		}
		return customers[i].Phone < customers[j].Phone
	})

	if len(customers) > limit {
		customers = customers[:limit]
	}
	return customers, nil
}

// SalesByHour buckets one day's sales into 24 hourly slots.
func (s *Service) SalesByHour(ctx context.Context, date time.Time) ([]HourlySales, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	to := from.Add(24*time.Hour - time.Nanosecond)

	orders, err := s.repo.OrdersInRange(ctx, from, to, revenueStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "hourly report")
	}

	buckets := make([]HourlySales, 24)
	for h := range buckets {
		buckets[h] = HourlySales{Hour: h, Revenue: decimal.Zero}
	}
	for _, order := range orders {
		h := order.CreatedAt.Hour()
		buckets[h].Orders++
		for _, item := range order.Items {
			buckets[h].Revenue = buckets[h].Revenue.Add(item.TotalPrice)
		}
	}
	return buckets, nil
}

// FormatSalesReport renders the report as a WhatsApp-friendly text block.
func FormatSalesReport(report *SalesReport) string {
	text := fmt.Sprintf("📊 *Relatório de Vendas - %s*\n\n", report.Period)
	text += fmt.Sprintf("📦 Total de Pedidos: %d\n", report.TotalOrders)
	text += fmt.Sprintf("💰 Receita Total: R$ %s\n\n", report.TotalRevenue.StringFixed(2))

	if len(report.TopProducts) > 0 {
		text += "🏆 *Produtos Mais Vendidos:*\n"
		limit := len(report.TopProducts)
		if limit > 5 {
			limit = 5
		}
		for i := 0; i < limit; i++ {
			p := report.TopProducts[i]
			text += fmt.Sprintf("%d. %s\n", i+1, p.ProductName)
			text += fmt.Sprintf("   Vendidos: %d | Receita: R$ %s\n\n", p.QuantitySold, p.Revenue.StringFixed(2))
		}
	}

	return text
}

func aggregate(orders []models.Order) *SalesReport {
	revenue := decimal.Zero

	type acc struct {
		name     string
		quantity int
		revenue  decimal.Decimal
	}
	byProduct := map[uuid.UUID]*acc{}

	for _, order := range orders {
		for _, item := range order.Items {
			revenue = revenue.Add(item.TotalPrice)

			a, ok := byProduct[item.ProductID]
			if !ok {
				a = &acc{name: item.ProductName, revenue: decimal.Zero}
				byProduct[item.ProductID] = a
			}
			a.quantity += item.Quantity
			a.revenue = a.revenue.Add(item.TotalPrice)
		}
	}

	top := make([]TopProduct, 0, len(byProduct))
	for id, a := range byProduct {
		top = append(top, TopProduct{
			ProductID:    id,
			ProductName:  a.name,
			QuantitySold: a.quantity,
			Revenue:      a.revenue,
		})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].QuantitySold != top[j].QuantitySold {
			return top[i].QuantitySold > top[j].QuantitySold
		}
		return top[i].ProductName < top[j].ProductName
	})
	if len(top) > 10 {
		top = top[:10]
	}

	return &SalesReport{
		TotalOrders:  len(orders),
		TotalRevenue: revenue,
		TopProducts:  top,
	}
}
