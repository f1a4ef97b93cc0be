package receipts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/config"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(
		config.ReceiptsConfig{OutputDir: t.TempDir()},
		config.BotConfig{CompanyName: "Distribuidora de Bebidas", CompanyPhone: "(11) 99999-9999"},
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testOrder() *models.Order {
	name := "Maria"
	addr := "Rua das Flores, 100"
	return &models.Order{
		ID:            uuid.New(),
		CustomerPhone: "5511999990000",
		CustomerName:  &name,
		Status:        enums.OrderStatusPending,
		DeliveryAddress: &addr,
		TotalAmount:   decimal.RequireFromString("37.50"),
		Items: []models.OrderItem{
			{ProductName: "Coca-Cola 2L", Quantity: 2, UnitPrice: decimal.RequireFromString("12.00"), TotalPrice: decimal.RequireFromString("24.00")},
			{ProductName: "Skol Lata 350ml", Quantity: 3, UnitPrice: decimal.RequireFromString("4.50"), TotalPrice: decimal.RequireFromString("13.50")},
		},
		CreatedAt: time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC),
	}
}

func TestGenerateOrderReceipt(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	path, err := svc.GenerateOrderReceipt(testOrder())
	if err != nil {
		t.Fatalf("GenerateOrderReceipt: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("receipt file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("receipt file is empty")
	}
	if !strings.HasPrefix(filepath.Base(path), "pedido_") {
		t.Fatalf("unexpected file name: %s", path)
	}
}

func TestGenerateSalesReport(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	path, err := svc.GenerateSalesReport(SalesSummary{
		Period:       "2026-08-28",
		TotalOrders:  12,
		TotalRevenue: "450.00",
		TopProducts: []TopProduct{
			{ProductName: "Coca-Cola 2L", QuantitySold: 20, Revenue: "240.00"},
		},
	})
	if err != nil {
		t.Fatalf("GenerateSalesReport: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("report file missing: %v", err)
	}
}

func TestListGeneratedAndCleanup(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	if _, err := svc.GenerateOrderReceipt(testOrder()); err != nil {
		t.Fatal(err)
	}

	paths, err := svc.ListGenerated()
	if err != nil {
		t.Fatalf("ListGenerated: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 pdf, got %d", len(paths))
	}

	// Nothing is old enough to sweep yet.
	deleted, err := svc.CleanupOld(24 * time.Hour)
	if err != nil {
		t.Fatalf("CleanupOld: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted = %d, want 0", deleted)
	}

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	deleted, err = svc.CleanupOld(24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
}
