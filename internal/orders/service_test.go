package orders

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/internal/catalog"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/session"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	pkgerrors "github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubOrderRepo struct {
	inserted    *models.Order
	insertErr   error
	byID        map[uuid.UUID]*models.Order
	latest      *models.Order
	updated     []enums.OrderStatus
	deliveredAt *time.Time
	updateErr   error
}

func (r *stubOrderRepo) Insert(tx *gorm.DB, order *models.Order) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	order.ID = uuid.New()
	r.inserted = order
	return nil
}

func (r *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if o, ok := r.byID[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrderRepo) FindLatestByPhone(ctx context.Context, phone string) (*models.Order, error) {
	if r.latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.latest, nil
}

func (r *stubOrderRepo) ListByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) Count(ctx context.Context) (int64, error) { return 0, nil }

func (r *stubOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, deliveredAt *time.Time) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated = append(r.updated, status)
	r.deliveredAt = deliveredAt
	return nil
}

type stubStockRepo struct {
	short       map[uuid.UUID]bool
	decremented map[uuid.UUID]int
	incremented map[uuid.UUID]int
}

func (r *stubStockRepo) DecrementStock(tx *gorm.DB, id uuid.UUID, qty int) error {
	if r.short[id] {
		return fmt.Errorf("%w: product %s", catalog.ErrStockUnderflow, id)
	}
	if r.decremented == nil {
		r.decremented = map[uuid.UUID]int{}
	}
	r.decremented[id] += qty
	return nil
}

func (r *stubStockRepo) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if r.incremented == nil {
		r.incremented = map[uuid.UUID]int{}
	}
	r.incremented[id] += qty
	return nil
}

type stubTx struct {
	rolledBack bool
}

func (t *stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := fn(nil)
	if err != nil {
		t.rolledBack = true
	}
	return err
}

type stubSender struct {
	sent []string
	err  error
}

func (s *stubSender) SendText(ctx context.Context, number, text string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, text)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testCart(items ...session.CartItem) session.Cart {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return session.Cart{Phone: "5511999990000", Items: items, TotalAmount: total}
}

func line(name string, qty int, unit string) session.CartItem {
	price := decimal.RequireFromString(unit)
	return session.CartItem{
		ProductID:   uuid.New(),
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   price,
		TotalPrice:  price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func newTestService(t *testing.T, repo *stubOrderRepo, stock *stubStockRepo, tx *stubTx, sender *stubSender) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:        repo,
		Stock:       stock,
		TX:          tx,
		Sender:      sender,
		Log:         testLogger(),
		CompanyName: "Distribuidora de Bebidas",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreatePersistsOrderAndDecrementsStock(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{}
	stock := &stubStockRepo{}
	tx := &stubTx{}
	svc := newTestService(t, repo, stock, tx, &stubSender{})

	coca := line("Coca-Cola 2L", 2, "12.00")
	skol := line("Skol Lata 350ml", 3, "4.50")

	order, err := svc.Create(context.Background(), CreateInput{
		Cart:         testCart(coca, skol),
		CustomerName: "Maria",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("37.50")) {
		t.Fatalf("total = %s, want 37.50", order.TotalAmount)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(order.Items))
	}
	if stock.decremented[coca.ProductID] != 2 || stock.decremented[skol.ProductID] != 3 {
		t.Fatalf("stock decrements wrong: %v", stock.decremented)
	}
	if tx.rolledBack {
		t.Fatal("transaction should have committed")
	}
}

func TestCreateRollsBackOnStockShortage(t *testing.T) {
	t.Parallel()

	coca := line("Coca-Cola 2L", 2, "12.00")
	skol := line("Skol Lata 350ml", 3, "4.50")

	repo := &stubOrderRepo{}
	stock := &stubStockRepo{short: map[uuid.UUID]bool{skol.ProductID: true}}
	tx := &stubTx{}
	svc := newTestService(t, repo, stock, tx, &stubSender{})

	_, err := svc.Create(context.Background(), CreateInput{Cart: testCart(coca, skol)})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	if !tx.rolledBack {
		t.Fatal("transaction should have rolled back")
	}
	if !strings.Contains(err.Error(), "Skol Lata 350ml") {
		t.Fatalf("shortage should name the product: %v", err)
	}
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubOrderRepo{}, &stubStockRepo{}, &stubTx{}, &stubSender{})

	_, err := svc.Create(context.Background(), CreateInput{Cart: testCart()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidCart) {
		t.Fatalf("expected INVALID_CART, got %v", err)
	}
}

func TestLatestByPhoneNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubOrderRepo{}, &stubStockRepo{}, &stubTx{}, &stubSender{})

	_, err := svc.LatestByPhone(context.Background(), "5511999990000")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdateStatusEnforcesTransitions(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	order := &models.Order{ID: id, CustomerPhone: "5511999990000", Status: enums.OrderStatusPending, TotalAmount: decimal.RequireFromString("37.50")}
	repo := &stubOrderRepo{byID: map[uuid.UUID]*models.Order{id: order}}
	sender := &stubSender{}
	svc := newTestService(t, repo, &stubStockRepo{}, &stubTx{}, sender)

	ctx := context.Background()

	if err := svc.UpdateStatus(ctx, id, enums.OrderStatusDelivered, false); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("pending -> delivered should conflict, got %v", err)
	}

	if err := svc.UpdateStatus(ctx, id, enums.OrderStatusConfirmed, true); err != nil {
		t.Fatalf("pending -> confirmed: %v", err)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "Pedido Confirmado") {
		t.Fatalf("confirmation notification missing: %v", sender.sent)
	}
}

func TestUpdateStatusSetsDeliveredAt(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	order := &models.Order{ID: id, CustomerPhone: "5511999990000", Status: enums.OrderStatusOutForDelivery}
	repo := &stubOrderRepo{byID: map[uuid.UUID]*models.Order{id: order}}
	svc := newTestService(t, repo, &stubStockRepo{}, &stubTx{}, &stubSender{})

	if err := svc.UpdateStatus(context.Background(), id, enums.OrderStatusDelivered, false); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if repo.deliveredAt == nil {
		t.Fatal("delivered_at not written")
	}
}

func TestUpdateStatusNotificationFailureDoesNotFail(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	order := &models.Order{ID: id, CustomerPhone: "5511999990000", Status: enums.OrderStatusPending}
	repo := &stubOrderRepo{byID: map[uuid.UUID]*models.Order{id: order}}
	sender := &stubSender{err: fmt.Errorf("gateway down")}
	svc := newTestService(t, repo, &stubStockRepo{}, &stubTx{}, sender)

	if err := svc.UpdateStatus(context.Background(), id, enums.OrderStatusConfirmed, true); err != nil {
		t.Fatalf("send failure must not fail the update: %v", err)
	}
}

func TestCancelRestoresStock(t *testing.T) {
	t.Parallel()

	item := models.OrderItem{ProductID: uuid.New(), ProductName: "Coca-Cola 2L", Quantity: 2}
	id := uuid.New()
	order := &models.Order{ID: id, CustomerPhone: "5511999990000", Status: enums.OrderStatusConfirmed, Items: []models.OrderItem{item}}
	repo := &stubOrderRepo{byID: map[uuid.UUID]*models.Order{id: order}}
	stock := &stubStockRepo{}
	svc := newTestService(t, repo, stock, &stubTx{}, &stubSender{})

	if err := svc.Cancel(context.Background(), id, "sem entregador na região"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if stock.incremented[item.ProductID] != 2 {
		t.Fatalf("stock not restored: %v", stock.incremented)
	}
	if len(repo.updated) != 1 || repo.updated[0] != enums.OrderStatusCancelled {
		t.Fatalf("status updates = %v", repo.updated)
	}
}

func TestCancelRefusedOutForDelivery(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	order := &models.Order{ID: id, CustomerPhone: "5511999990000", Status: enums.OrderStatusOutForDelivery}
	repo := &stubOrderRepo{byID: map[uuid.UUID]*models.Order{id: order}}
	svc := newTestService(t, repo, &stubStockRepo{}, &stubTx{}, &stubSender{})

	err := svc.Cancel(context.Background(), id, "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestStatusText(t *testing.T) {
	t.Parallel()

	if got := StatusText(enums.OrderStatusOutForDelivery); got != "🚚 Saiu para entrega" {
		t.Fatalf("StatusText = %q", got)
	}
}
