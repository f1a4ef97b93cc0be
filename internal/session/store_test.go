package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	pkgerrors "github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]models.Product
}

func (s *stubCatalog) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func (s *stubCatalog) set(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func newTestStore(t *testing.T) (*Store, *stubCatalog, models.Product, models.Product) {
	t.Helper()

	coca := models.Product{ID: uuid.New(), Name: "Coca-Cola 2L", Price: decimal.RequireFromString("12.00"), Stock: 10, Active: true}
	skol := models.Product{ID: uuid.New(), Name: "Skol Lata 350ml", Price: decimal.RequireFromString("4.50"), Stock: 3, Active: true}

	catalog := &stubCatalog{products: map[uuid.UUID]models.Product{coca.ID: coca, skol.ID: skol}}
	store, err := NewStore(catalog)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, catalog, coca, skol
}

func TestGetOrCreateSessionStartsAtGreeting(t *testing.T) {
	t.Parallel()

	store, _, _, _ := newTestStore(t)

	sess := store.GetOrCreateSession("5511999990001")
	if sess.Step != enums.StepGreeting {
		t.Fatalf("new session step = %s, want %s", sess.Step, enums.StepGreeting)
	}
	if sess.LastActivity.IsZero() {
		t.Fatal("last activity not set")
	}
}

func TestUpdateSessionMergesPatch(t *testing.T) {
	t.Parallel()

	store, _, _, _ := newTestStore(t)
	phone := "5511999990002"

	name := "Maria"
	sub := SubStepAddress
	store.UpdateSession(phone, enums.StepCustomerInfo, &Patch{CustomerName: &name, SubStep: &sub})

	addr := "Rua das Flores, 100"
	sub = SubStepNotes
	store.UpdateSession(phone, enums.StepCustomerInfo, &Patch{DeliveryAddress: &addr, SubStep: &sub})

	sess := store.GetOrCreateSession(phone)
	if sess.Checkout.CustomerName != "Maria" {
		t.Fatalf("customer name lost across patches: %+v", sess.Checkout)
	}
	if sess.Checkout.DeliveryAddress == nil || *sess.Checkout.DeliveryAddress != addr {
		t.Fatalf("address not merged: %+v", sess.Checkout)
	}
	if sess.Checkout.SubStep != SubStepNotes {
		t.Fatalf("substep = %s, want %s", sess.Checkout.SubStep, SubStepNotes)
	}

	store.UpdateSession(phone, enums.StepCustomerInfo, &Patch{PickupRequested: true})
	sess = store.GetOrCreateSession(phone)
	if sess.Checkout.DeliveryAddress != nil {
		t.Fatal("pickup should clear the delivery address")
	}
	if sess.Checkout.CustomerName != "Maria" {
		t.Fatal("pickup patch must not touch the name")
	}
}

func TestAddToCartMergesLines(t *testing.T) {
	t.Parallel()

	store, _, coca, _ := newTestStore(t)
	ctx := context.Background()
	phone := "5511999990003"

	if _, err := store.AddToCart(ctx, phone, coca.ID, 2); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	msg, err := store.AddToCart(ctx, phone, coca.ID, 3)
	if err != nil {
		t.Fatalf("AddToCart again: %v", err)
	}
	if !strings.Contains(msg, "Coca-Cola 2L") {
		t.Fatalf("unexpected confirmation: %q", msg)
	}

	cart := store.GetCart(phone)
	if len(cart.Items) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", cart.Items[0].Quantity)
	}
	want := decimal.RequireFromString("60.00")
	if !cart.TotalAmount.Equal(want) {
		t.Fatalf("total = %s, want %s", cart.TotalAmount, want)
	}
}

func TestAddToCartStockGateCountsCart(t *testing.T) {
	t.Parallel()

	store, _, _, skol := newTestStore(t)
	ctx := context.Background()
	phone := "5511999990004"

	if _, err := store.AddToCart(ctx, phone, skol.ID, 2); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	// 2 in cart + 2 requested > 3 in stock.
	_, err := store.AddToCart(ctx, phone, skol.ID, 2)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}

	cart := store.GetCart(phone)
	if cart.Items[0].Quantity != 2 {
		t.Fatalf("failed add must not mutate cart, quantity = %d", cart.Items[0].Quantity)
	}
}

func TestAddToCartRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	store, _, coca, _ := newTestStore(t)

	_, err := store.AddToCart(context.Background(), "5511999990005", coca.ID, 0)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestAddToCartUnknownProduct(t *testing.T) {
	t.Parallel()

	store, _, _, _ := newTestStore(t)

	_, err := store.AddToCart(context.Background(), "5511999990006", uuid.New(), 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	store, _, coca, _ := newTestStore(t)
	ctx := context.Background()
	phone := "5511999990007"

	if _, err := store.AddToCart(ctx, phone, coca.ID, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SetQuantity(ctx, phone, coca.ID, 0); err != nil {
		t.Fatalf("SetQuantity(0): %v", err)
	}
	if !store.IsCartEmpty(phone) {
		t.Fatal("cart should be empty after zero-quantity set")
	}
}

func TestRemoveFromCartMissingItem(t *testing.T) {
	t.Parallel()

	store, _, _, _ := newTestStore(t)

	_, err := store.RemoveFromCart("5511999990008", uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCartTotalInvariant(t *testing.T) {
	t.Parallel()

	store, _, coca, skol := newTestStore(t)
	ctx := context.Background()
	phone := "5511999990009"

	if _, err := store.AddToCart(ctx, phone, coca.ID, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddToCart(ctx, phone, skol.ID, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SetQuantity(ctx, phone, coca.ID, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RemoveFromCart(phone, skol.ID); err != nil {
		t.Fatal(err)
	}

	cart := store.GetCart(phone)
	sum := decimal.Zero
	for _, item := range cart.Items {
		if item.Quantity <= 0 {
			t.Fatalf("non-positive quantity in cart: %+v", item)
		}
		if !item.TotalPrice.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			t.Fatalf("line total mismatch: %+v", item)
		}
		sum = sum.Add(item.TotalPrice)
	}
	if !cart.TotalAmount.Equal(sum) {
		t.Fatalf("cart total %s != sum of lines %s", cart.TotalAmount, sum)
	}
}

func TestCartSummaryEmpty(t *testing.T) {
	t.Parallel()

	store, _, _, _ := newTestStore(t)

	if got := store.CartSummary("5511999990010"); got != "🛒 Seu carrinho está vazio" {
		t.Fatalf("empty summary = %q", got)
	}
}

func TestCartSummaryFormatting(t *testing.T) {
	t.Parallel()

	store, _, coca, _ := newTestStore(t)
	phone := "5511999990011"

	if _, err := store.AddToCart(context.Background(), phone, coca.ID, 2); err != nil {
		t.Fatal(err)
	}

	summary := store.CartSummary(phone)
	for _, want := range []string{"🛒 *Seu Carrinho:*", "1. *Coca-Cola 2L*", "Qtd: 2x | Preço: R$ 12.00", "Subtotal: R$ 24.00", "💰 *Total: R$ 24.00*"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestValidateCartEmpty(t *testing.T) {
	t.Parallel()

	store, _, _, _ := newTestStore(t)

	err := store.ValidateCart(context.Background(), "5511999990012")
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidCart) {
		t.Fatalf("expected INVALID_CART, got %v", err)
	}
}

func TestValidateCartResyncsPrice(t *testing.T) {
	t.Parallel()

	store, catalog, coca, _ := newTestStore(t)
	ctx := context.Background()
	phone := "5511999990013"

	if _, err := store.AddToCart(ctx, phone, coca.ID, 2); err != nil {
		t.Fatal(err)
	}

	coca.Price = decimal.RequireFromString("13.50")
	catalog.set(coca)

	if err := store.ValidateCart(ctx, phone); err != nil {
		t.Fatalf("ValidateCart: %v", err)
	}

	cart := store.GetCart(phone)
	if !cart.Items[0].UnitPrice.Equal(coca.Price) {
		t.Fatalf("price not re-synced: %s", cart.Items[0].UnitPrice)
	}
	if !cart.TotalAmount.Equal(decimal.RequireFromString("27.00")) {
		t.Fatalf("total not recomputed: %s", cart.TotalAmount)
	}
}

func TestValidateCartStockShortage(t *testing.T) {
	t.Parallel()

	store, catalog, _, skol := newTestStore(t)
	ctx := context.Background()
	phone := "5511999990014"

	if _, err := store.AddToCart(ctx, phone, skol.ID, 3); err != nil {
		t.Fatal(err)
	}

	skol.Stock = 1
	catalog.set(skol)

	err := store.ValidateCart(ctx, phone)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
}

func TestClearSessionDropsCartToo(t *testing.T) {
	t.Parallel()

	store, _, coca, _ := newTestStore(t)
	phone := "5511999990015"

	if _, err := store.AddToCart(context.Background(), phone, coca.ID, 1); err != nil {
		t.Fatal(err)
	}
	store.ClearSession(phone)

	if !store.IsCartEmpty(phone) {
		t.Fatal("cart survived ClearSession")
	}
	if sess := store.GetOrCreateSession(phone); sess.Step != enums.StepGreeting {
		t.Fatalf("session not reset, step = %s", sess.Step)
	}
}

func TestCleanupInactive(t *testing.T) {
	t.Parallel()

	store, _, coca, _ := newTestStore(t)

	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	store.GetOrCreateSession("old")
	if _, err := store.AddToCart(context.Background(), "old", coca.ID, 1); err != nil {
		t.Fatal(err)
	}

	store.now = func() time.Time { return base.Add(25 * time.Hour) }
	store.GetOrCreateSession("fresh")

	cleaned := store.CleanupInactive(24 * time.Hour)
	if cleaned != 1 {
		t.Fatalf("cleaned = %d, want 1", cleaned)
	}

	stats := store.Stats()
	if stats.Sessions != 1 || stats.Carts != 0 {
		t.Fatalf("stats after sweep = %+v", stats)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	store, _, coca, skol := newTestStore(t)
	ctx := context.Background()

	store.GetOrCreateSession("a")
	store.GetOrCreateSession("b")
	if _, err := store.AddToCart(ctx, "a", coca.ID, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddToCart(ctx, "a", skol.ID, 1); err != nil {
		t.Fatal(err)
	}

	stats := store.Stats()
	if stats.Sessions != 2 {
		t.Fatalf("sessions = %d, want 2", stats.Sessions)
	}
	if stats.Carts != 1 || stats.ItemsInCart != 2 {
		t.Fatalf("carts = %d items = %d, want 1 and 2", stats.Carts, stats.ItemsInCart)
	}
}

func TestConcurrentAddsStayConsistent(t *testing.T) {
	t.Parallel()

	store, _, coca, _ := newTestStore(t)
	ctx := context.Background()
	phone := "5511999990016"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.AddToCart(ctx, phone, coca.ID, 1)
		}()
	}
	wg.Wait()

	cart := store.GetCart(phone)
	if len(cart.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Items))
	}
	want := coca.Price.Mul(decimal.NewFromInt(int64(cart.Items[0].Quantity)))
	if !cart.TotalAmount.Equal(want) {
		t.Fatalf("total %s inconsistent with quantity %d", cart.TotalAmount, cart.Items[0].Quantity)
	}
}
