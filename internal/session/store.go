package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	pkgerrors "github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutSubStep tracks progress through the customer info dialog.
type CheckoutSubStep string

const (
	SubStepNone     CheckoutSubStep = ""
	SubStepName     CheckoutSubStep = "name"
	SubStepAddress  CheckoutSubStep = "address"
	SubStepNotes    CheckoutSubStep = "notes"
	SubStepComplete CheckoutSubStep = "complete"
)

// CheckoutInfo is the data collected during order finalization. A nil
// DeliveryAddress after the address step means pickup at the store.
type CheckoutInfo struct {
	SubStep         CheckoutSubStep
	CustomerName    string
	DeliveryAddress *string
	Notes           *string
}

// Session is one customer's conversation state.
type Session struct {
	Phone        string
	Step         enums.ConversationStep
	Checkout     CheckoutInfo
	LastActivity time.Time
}

// Patch is a shallow merge applied to a session's checkout data. Nil fields
// are left untouched; PickupRequested and NotesCleared set their targets to
// nil explicitly.
type Patch struct {
	SubStep         *CheckoutSubStep
	CustomerName    *string
	DeliveryAddress *string
	PickupRequested bool
	Notes           *string
	NotesCleared    bool
}

// CartItem is one product line in a cart.
type CartItem struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// Cart holds a customer's pending order lines.
type Cart struct {
	Phone       string
	Items       []CartItem
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Stats is a point-in-time view of the store.
type Stats struct {
	Sessions    int
	Carts       int
	ItemsInCart int
}

type productGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Store keeps sessions and carts in memory, one lock per customer so slow
// catalog lookups for one phone never block another.
type Store struct {
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	sessions map[string]*Session
	carts    map[string]*Cart

	catalog productGetter
	now     func() time.Time
}

// NewStore builds an empty store backed by the given catalog.
func NewStore(catalog productGetter) (*Store, error) {
	if catalog == nil {
		return nil, fmt.Errorf("session: catalog getter required")
	}
	return &Store{
		locks:    map[string]*sync.Mutex{},
		sessions: map[string]*Session{},
		carts:    map[string]*Cart{},
		catalog:  catalog,
		now:      time.Now,
	}, nil
}

func (s *Store) lockPhone(phone string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[phone]
	if !ok {
		l = &sync.Mutex{}
		s.locks[phone] = l
	}
	return l
}

func (s *Store) sessionLocked(phone string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[phone]
	if !ok {
		sess = &Session{
			Phone:        phone,
			Step:         enums.StepGreeting,
			LastActivity: s.now(),
		}
		s.sessions[phone] = sess
	}
	return sess
}

func (s *Store) cartLocked(phone string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[phone]
	if !ok {
		now := s.now()
		cart = &Cart{
			Phone:       phone,
			Items:       []CartItem{},
			TotalAmount: decimal.Zero,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.carts[phone] = cart
	}
	return cart
}

// GetOrCreateSession returns a snapshot of the customer's session, creating
// one at the greeting step if needed. Touches last activity.
func (s *Store) GetOrCreateSession(phone string) Session {
	l := s.lockPhone(phone)
	l.Lock()
	defer l.Unlock()

	sess := s.sessionLocked(phone)
	sess.LastActivity = s.now()
	return *sess
}

// UpdateSession moves the session to the given step and merges the patch
// into its checkout data.
func (s *Store) UpdateSession(phone string, step enums.ConversationStep, patch *Patch) {
	l := s.lockPhone(phone)
	l.Lock()
	defer l.Unlock()

	sess := s.sessionLocked(phone)
	sess.Step = step
	sess.LastActivity = s.now()

	if patch == nil {
		return
	}
	if patch.SubStep != nil {
		sess.Checkout.SubStep = *patch.SubStep
	}
	if patch.CustomerName != nil {
		sess.Checkout.CustomerName = *patch.CustomerName
	}
	if patch.PickupRequested {
		sess.Checkout.DeliveryAddress = nil
	} else if patch.DeliveryAddress != nil {
		addr := *patch.DeliveryAddress
		sess.Checkout.DeliveryAddress = &addr
	}
	if patch.NotesCleared {
		sess.Checkout.Notes = nil
	} else if patch.Notes != nil {
		notes := *patch.Notes
		sess.Checkout.Notes = &notes
	}
}

// ClearSession drops the customer's session and cart together.
func (s *Store) ClearSession(phone string) {
	l := s.lockPhone(phone)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	delete(s.sessions, phone)
	delete(s.carts, phone)
	s.mu.Unlock()
}

// GetCart returns a snapshot of the customer's cart, creating an empty one
// if needed.
func (s *Store) GetCart(phone string) Cart {
	l := s.lockPhone(phone)
	l.Lock()
	defer l.Unlock()

	return snapshotCart(s.cartLocked(phone))
}

func snapshotCart(cart *Cart) Cart {
	out := *cart
	out.Items = make([]CartItem, len(cart.Items))
	copy(out.Items, cart.Items)
	return out
}

func recalcTotal(cart *Cart, now time.Time) {
	total := decimal.Zero
	for _, item := range cart.Items {
		total = total.Add(item.TotalPrice)
	}
	cart.TotalAmount = total
	cart.UpdatedAt = now
}

// AddToCart adds quantity units of the product, merging into an existing
// line, after checking the combined quantity against current stock. Returns
// the customer-facing confirmation.
func (s *Store) AddToCart(ctx context.Context, phone string, productID uuid.UUID, quantity int) (string, error) {
	if quantity <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "quantidade deve ser maior que zero")
	}

	l := s.lockPhone(phone)
	l.Lock()
	defer l.Unlock()

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "Produto não encontrado")
		}
		return "", err
	}

	cart := s.cartLocked(phone)

	existing := -1
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			existing = i
			break
		}
	}

	inCart := 0
	if existing >= 0 {
		inCart = cart.Items[existing].Quantity
	}
	wanted := inCart + quantity

	if product.Stock < wanted {
		return "", pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("Estoque insuficiente. Disponível: %d unidades", product.Stock))
	}

	if existing >= 0 {
		cart.Items[existing].Quantity = wanted
		cart.Items[existing].TotalPrice = cart.Items[existing].UnitPrice.Mul(decimal.NewFromInt(int64(wanted)))
	} else {
		cart.Items = append(cart.Items, CartItem{
			ProductID:   productID,
			ProductName: product.Name,
			Quantity:    quantity,
			UnitPrice:   product.Price,
			TotalPrice:  product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		})
	}

	recalcTotal(cart, s.now())
	return fmt.Sprintf("%s adicionado ao carrinho (%dx)", product.Name, quantity), nil
}

// RemoveFromCart deletes the product's line from the cart.
func (s *Store) RemoveFromCart(phone string, productID uuid.UUID) (string, error) {
	l := s.lockPhone(phone)
	l.Lock()
	defer l.Unlock()

	cart := s.cartLocked(phone)
	for i := range cart.Items {
		if cart.Items[i].ProductID != productID {
			continue
		}
		removed := cart.Items[i]
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		recalcTotal(cart, s.now())
		return fmt.Sprintf("%s removido do carrinho", removed.ProductName), nil
	}

	return "", pkgerrors.New(pkgerrors.CodeNotFound, "Item não encontrado no carrinho")
}

// SetQuantity replaces a line's quantity. Zero or negative removes the line.
func (s *Store) SetQuantity(ctx context.Context, phone string, productID uuid.UUID, quantity int) (string, error) {
	if quantity <= 0 {
		return s.RemoveFromCart(phone, productID)
	}

	l := s.lockPhone(phone)
	l.Lock()
	defer l.Unlock()

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "Produto não encontrado")
		}
		return "", err
	}

	if product.Stock < quantity {
		return "", pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("Estoque insuficiente. Disponível: %d unidades", product.Stock))
	}

	cart := s.cartLocked(phone)
	for i := range cart.Items {
		if cart.Items[i].ProductID != productID {
			continue
		}
		cart.Items[i].Quantity = quantity
		cart.Items[i].TotalPrice = cart.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
		recalcTotal(cart, s.now())
		return fmt.Sprintf("Quantidade de %s atualizada para %d", cart.Items[i].ProductName, quantity), nil
	}

	return "", pkgerrors.New(pkgerrors.CodeNotFound, "Item não encontrado no carrinho")
}

// ClearCart drops the cart but keeps the session.
func (s *Store) ClearCart(phone string) {
	l := s.lockPhone(phone)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	delete(s.carts, phone)
	s.mu.Unlock()
}

// IsCartEmpty reports whether the customer has any cart lines.
func (s *Store) IsCartEmpty(phone string) bool {
	l := s.lockPhone(phone)
	l.Lock()
	defer l.Unlock()

	return len(s.cartLocked(phone).Items) == 0
}

// CartSummary renders the cart as the WhatsApp message the customer sees.
func (s *Store) CartSummary(phone string) string {
	cart := s.GetCart(phone)

	if len(cart.Items) == 0 {
		return "🛒 Seu carrinho está vazio"
	}

	summary := "🛒 *Seu Carrinho:*\n\n"
	for i, item := range cart.Items {
		summary += fmt.Sprintf("%d. *%s*\n", i+1, item.ProductName)
		summary += fmt.Sprintf("   Qtd: %dx | Preço: R$ %s\n", item.Quantity, item.UnitPrice.StringFixed(2))
		summary += fmt.Sprintf("   Subtotal: R$ %s\n\n", item.TotalPrice.StringFixed(2))
	}
	summary += fmt.Sprintf("💰 *Total: R$ %s*", cart.TotalAmount.StringFixed(2))

	return summary
}

// ValidateCart re-checks every line against the live catalog right before
// checkout. Prices that drifted are silently re-synced; missing products and
// stock shortages fail the validation.
func (s *Store) ValidateCart(ctx context.Context, phone string) error {
	l := s.lockPhone(phone)
	l.Lock()
	defer l.Unlock()

	cart := s.cartLocked(phone)
	if len(cart.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidCart, "Carrinho está vazio")
	}

	for i := range cart.Items {
		item := &cart.Items[i]

		product, err := s.catalog.Get(ctx, item.ProductID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return pkgerrors.New(pkgerrors.CodeInvalidCart,
					fmt.Sprintf("Produto %s não está mais disponível", item.ProductName))
			}
			return err
		}

		if product.Stock < item.Quantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("Estoque insuficiente para %s. Disponível: %d unidades", item.ProductName, product.Stock))
		}

		if !product.Price.Equal(item.UnitPrice) {
			item.UnitPrice = product.Price
			item.TotalPrice = product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
	}

	recalcTotal(cart, s.now())
	return nil
}

// CleanupInactive removes sessions idle longer than maxAge, carts included.
// Returns how many customers were swept.
func (s *Store) CleanupInactive(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	var stale []string
	for phone, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			stale = append(stale, phone)
		}
	}
	s.mu.Unlock()

	cleaned := 0
	for _, phone := range stale {
		l := s.lockPhone(phone)
		l.Lock()
		s.mu.Lock()
		sess, ok := s.sessions[phone]
		if ok && sess.LastActivity.Before(cutoff) {
			// The lock entry stays so concurrent holders of the same
			// mutex never end up racing a fresh one.
			delete(s.sessions, phone)
			delete(s.carts, phone)
			cleaned++
		}
		s.mu.Unlock()
		l.Unlock()
	}

	return cleaned
}

// Stats counts live sessions, carts and cart lines.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := 0
	for _, cart := range s.carts {
		items += len(cart.Items)
	}

	return Stats{
		Sessions:    len(s.sessions),
		Carts:       len(s.carts),
		ItemsInCart: items,
	}
}
