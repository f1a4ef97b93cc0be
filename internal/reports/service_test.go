package reports

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubReportRepo struct {
	orders       []models.Order
	countOrders  int64
	countProduct int64
	statusCounts map[enums.OrderStatus]int64
}

func (r *stubReportRepo) OrdersInRange(ctx context.Context, from, to time.Time, statuses []enums.OrderStatus) ([]models.Order, error) {
	var out []models.Order
	for _, o := range r.orders {
		if o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, s := range statuses {
				if o.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *stubReportRepo) OrdersWithItems(ctx context.Context, statuses []enums.OrderStatus) ([]models.Order, error) {
	return r.orders, nil
}

func (r *stubReportRepo) CountOrders(ctx context.Context) (int64, error) { return r.countOrders, nil }

func (r *stubReportRepo) CountActiveProducts(ctx context.Context) (int64, error) {
	return r.countProduct, nil
}

func (r *stubReportRepo) StatusCounts(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	return r.statusCounts, nil
}

func orderAt(day time.Time, status enums.OrderStatus, items ...models.OrderItem) models.Order {
	return models.Order{
		ID:            uuid.New(),
		CustomerPhone: "5511999990000",
		Status:        status,
		Items:         items,
		CreatedAt:     day,
	}
}

func item(id uuid.UUID, name string, qty int, total string) models.OrderItem {
	return models.OrderItem{
		ProductID:   id,
		ProductName: name,
		Quantity:    qty,
		TotalPrice:  decimal.RequireFromString(total),
	}
}

func TestDailyAggregatesAllStatuses(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)
	coca := uuid.New()
	skol := uuid.New()

	repo := &stubReportRepo{orders: []models.Order{
		orderAt(day, enums.OrderStatusPending, item(coca, "Coca-Cola 2L", 2, "24.00")),
		orderAt(day.Add(time.Hour), enums.OrderStatusDelivered,
			item(coca, "Coca-Cola 2L", 1, "12.00"),
			item(skol, "Skol Lata 350ml", 6, "27.00")),
		orderAt(day.AddDate(0, 0, -1), enums.OrderStatusDelivered, item(coca, "Coca-Cola 2L", 5, "60.00")),
	}}

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	report, err := svc.Daily(context.Background(), day)
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}

	if report.TotalOrders != 2 {
		t.Fatalf("total orders = %d, want 2", report.TotalOrders)
	}
	if !report.TotalRevenue.Equal(decimal.RequireFromString("63.00")) {
		t.Fatalf("revenue = %s, want 63.00", report.TotalRevenue)
	}
	if len(report.TopProducts) != 2 {
		t.Fatalf("top products = %d, want 2", len(report.TopProducts))
	}
	// Skol sold 6 units, Coca 3; quantity ranks first.
	if report.TopProducts[0].ProductName != "Skol Lata 350ml" {
		t.Fatalf("top product = %s, want Skol", report.TopProducts[0].ProductName)
	}
	if report.Period != "2026-08-28" {
		t.Fatalf("period = %q", report.Period)
	}
}

func TestMonthlyFiltersRevenueStatuses(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	coca := uuid.New()

	repo := &stubReportRepo{orders: []models.Order{
		orderAt(day, enums.OrderStatusDelivered, item(coca, "Coca-Cola 2L", 1, "12.00")),
		orderAt(day, enums.OrderStatusCancelled, item(coca, "Coca-Cola 2L", 4, "48.00")),
		orderAt(day, enums.OrderStatusPending, item(coca, "Coca-Cola 2L", 2, "24.00")),
	}}

	svc, _ := NewService(repo)
	report, err := svc.Monthly(context.Background(), 2026, time.August)
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}

	if report.TotalOrders != 1 {
		t.Fatalf("total orders = %d, want 1 (cancelled and pending excluded)", report.TotalOrders)
	}
	if report.Period != "2026-08" {
		t.Fatalf("period = %q", report.Period)
	}
}

func TestPeriodRejectsInvertedRange(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubReportRepo{})
	_, err := svc.Period(context.Background(),
		time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error for end before start")
	}
}

func TestGeneralStats(t *testing.T) {
	t.Parallel()

	coca := uuid.New()
	repo := &stubReportRepo{
		orders: []models.Order{
			orderAt(time.Now(), enums.OrderStatusDelivered, item(coca, "Coca-Cola 2L", 2, "24.00")),
		},
		countOrders:  2,
		countProduct: 5,
		statusCounts: map[enums.OrderStatus]int64{enums.OrderStatusDelivered: 1, enums.OrderStatusPending: 1},
	}

	svc, _ := NewService(repo)
	stats, err := svc.General(context.Background())
	if err != nil {
		t.Fatalf("General: %v", err)
	}

	if stats.TotalOrders != 2 || stats.TotalProducts != 5 {
		t.Fatalf("counts = %+v", stats)
	}
	if !stats.AverageTicket.Equal(decimal.RequireFromString("12.00")) {
		t.Fatalf("average ticket = %s, want 12.00", stats.AverageTicket)
	}
}

func TestTopCustomersRanksBySpend(t *testing.T) {
	t.Parallel()

	coca := uuid.New()
	big := "Maria"
	repo := &stubReportRepo{orders: []models.Order{
		{CustomerPhone: "111", CustomerName: &big, Status: enums.OrderStatusDelivered,
			Items: []models.OrderItem{item(coca, "Coca-Cola 2L", 10, "120.00")}},
		{CustomerPhone: "222", Status: enums.OrderStatusDelivered,
			Items: []models.OrderItem{item(coca, "Coca-Cola 2L", 1, "12.00")}},
	}}

	svc, _ := NewService(repo)
	customers, err := svc.TopCustomers(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopCustomers: %v", err)
	}

	if len(customers) != 2 || customers[0].Phone != "111" {
		t.Fatalf("ranking wrong: %+v", customers)
	}
	if customers[0].Name != "Maria" || customers[1].Name != "Cliente" {
		t.Fatalf("names wrong: %+v", customers)
	}
}

func TestSalesByHourBuckets(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	coca := uuid.New()
	repo := &stubReportRepo{orders: []models.Order{
		orderAt(day.Add(10*time.Hour), enums.OrderStatusDelivered, item(coca, "Coca-Cola 2L", 1, "12.00")),
		orderAt(day.Add(10*time.Hour+30*time.Minute), enums.OrderStatusDelivered, item(coca, "Coca-Cola 2L", 1, "12.00")),
	}}

	svc, _ := NewService(repo)
	buckets, err := svc.SalesByHour(context.Background(), day)
	if err != nil {
		t.Fatalf("SalesByHour: %v", err)
	}

	if len(buckets) != 24 {
		t.Fatalf("buckets = %d, want 24", len(buckets))
	}
	if buckets[10].Orders != 2 || !buckets[10].Revenue.Equal(decimal.RequireFromString("24.00")) {
		t.Fatalf("hour 10 bucket = %+v", buckets[10])
	}
}

func TestFormatSalesReport(t *testing.T) {
	t.Parallel()

	report := &SalesReport{
		Period:       "2026-08-28",
		TotalOrders:  3,
		TotalRevenue: decimal.RequireFromString("99.00"),
		TopProducts: []TopProduct{
			{ProductName: "Coca-Cola 2L", QuantitySold: 5, Revenue: decimal.RequireFromString("60.00")},
		},
	}

	text := FormatSalesReport(report)
	for _, want := range []string{"Relatório de Vendas - 2026-08-28", "Total de Pedidos: 3", "R$ 99.00", "Coca-Cola 2L"} {
		if !strings.Contains(text, want) {
			t.Fatalf("formatted report missing %q:\n%s", want, text)
		}
	}
}
