package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/internal/catalog"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/session"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	pkgerrors "github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/pagination"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Service owns order persistence, status transitions and the customer
// notifications that go with them.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LatestByPhone(ctx context.Context, phone string) (*models.Order, error)
	ListByPhone(ctx context.Context, phone string) ([]models.Order, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error)
	List(ctx context.Context, params pagination.Params) (*Page, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, notify bool) error
	Cancel(ctx context.Context, id uuid.UUID, reason string) error
}

// CreateInput is everything needed to turn a cart into a persisted order.
type CreateInput struct {
	Cart            session.Cart
	CustomerName    string
	DeliveryAddress *string
	Notes           *string
}

// Page is one cursor page of orders.
type Page struct {
	Orders     []models.Order
	NextCursor string
	Total      int64
}

type orderRepository interface {
	Insert(tx *gorm.DB, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindLatestByPhone(ctx context.Context, phone string) (*models.Order, error)
	ListByPhone(ctx context.Context, phone string) ([]models.Order, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, deliveredAt *time.Time) error
}

type stockRepository interface {
	DecrementStock(tx *gorm.DB, id uuid.UUID, qty int) error
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type textSender interface {
	SendText(ctx context.Context, number, text string) error
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Repo        orderRepository
	Stock       stockRepository
	TX          transactor
	Sender      textSender
	Log         *logger.Logger
	CompanyName string
}

type service struct {
	repo        orderRepository
	stock       stockRepository
	tx          transactor
	sender      textSender
	log         *logger.Logger
	companyName string
	now         func() time.Time
}

// NewService validates the dependency set and builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders: repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("orders: stock repository required")
	}
	if params.TX == nil {
		return nil, fmt.Errorf("orders: transactor required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("orders: sender required")
	}
	if params.Log == nil {
		return nil, fmt.Errorf("orders: logger required")
	}
	if params.CompanyName == "" {
		params.CompanyName = "Distribuidora"
	}
	return &service{
		repo:        params.Repo,
		stock:       params.Stock,
		tx:          params.TX,
		sender:      params.Sender,
		log:         params.Log,
		companyName: params.CompanyName,
		now:         time.Now,
	}, nil
}

// Create persists the cart as a pending order and decrements stock for every
// line in the same transaction. Any shortfall rolls the whole order back.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if len(input.Cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCart, "Carrinho está vazio")
	}

	order := &models.Order{
		CustomerPhone:   input.Cart.Phone,
		Status:          enums.OrderStatusPending,
		DeliveryAddress: input.DeliveryAddress,
		Notes:           input.Notes,
		TotalAmount:     input.Cart.TotalAmount,
	}
	if input.CustomerName != "" {
		name := input.CustomerName
		order.CustomerName = &name
	}
	for _, item := range input.Cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Insert(tx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		var shortfalls error
		for _, item := range input.Cart.Items {
			if err := s.stock.DecrementStock(tx, item.ProductID, item.Quantity); err != nil {
				shortfalls = multierr.Append(shortfalls,
					fmt.Errorf("%s: %w", item.ProductName, err))
			}
		}
		return shortfalls
	})
	if err != nil {
		if errors.Is(err, catalog.ErrStockUnderflow) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err,
				"Produto não possui estoque suficiente")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create order")
	}

	s.log.Info(s.log.WithOrderID(ctx, order.ID.String()), "order created")
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order")
	}
	return order, nil
}

func (s *service) LatestByPhone(ctx context.Context, phone string) (*models.Order, error) {
	order, err := s.repo.FindLatestByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no orders for customer")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load latest order")
	}
	return order, nil
}

func (s *service) ListByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	orders, err := s.repo.ListByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list orders by phone")
	}
	return orders, nil
}

func (s *service) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	orders, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list orders by status")
	}
	return orders, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	orders, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list orders")
	}

	page := &Page{}
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	page.Orders = orders

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count orders")
	}
	page.Total = total

	return page, nil
}

// UpdateStatus applies a forward status transition and, when asked, tells the
// customer. Notification failures never fail the update.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, notify bool) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(status) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	var deliveredAt *time.Time
	if status == enums.OrderStatusDelivered {
		now := s.now()
		deliveredAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, id, status, deliveredAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update order status")
	}

	if notify {
		if text := s.statusNotification(order, status); text != "" {
			if err := s.sender.SendText(ctx, order.CustomerPhone, text); err != nil {
				s.log.Warn(s.log.WithOrderID(ctx, id.String()), "status notification failed: "+err.Error())
			}
		}
	}

	return nil
}

// Cancel returns stock to the shelf and moves the order to cancelled.
// Orders already out for delivery cannot be cancelled.
func (s *service) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(enums.OrderStatusCancelled) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot cancel order in status %s", order.Status))
	}

	var restoreErr error
	for _, item := range order.Items {
		if err := s.stock.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			restoreErr = multierr.Append(restoreErr,
				fmt.Errorf("%s: %w", item.ProductName, err))
		}
	}
	if restoreErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, restoreErr, "restore stock")
	}

	if err := s.UpdateStatus(ctx, id, enums.OrderStatusCancelled, true); err != nil {
		return err
	}

	if reason != "" {
		text := fmt.Sprintf("📝 *Motivo do cancelamento:*\n%s", reason)
		if err := s.sender.SendText(ctx, order.CustomerPhone, text); err != nil {
			s.log.Warn(s.log.WithOrderID(ctx, id.String()), "cancellation reason notification failed: "+err.Error())
		}
	}

	return nil
}

func (s *service) statusNotification(order *models.Order, status enums.OrderStatus) string {
	suffix := order.IDSuffix()

	switch status {
	case enums.OrderStatusConfirmed:
		return fmt.Sprintf("🎉 *Pedido Confirmado!*\n\nSeu pedido #%s foi confirmado e está sendo preparado.\n\n📦 Total: R$ %s\n\nObrigado por escolher %s!",
			suffix, order.TotalAmount.StringFixed(2), s.companyName)
	case enums.OrderStatusPreparing:
		return fmt.Sprintf("👨‍🍳 *Preparando seu Pedido*\n\nSeu pedido #%s está sendo preparado com carinho.\n\nEm breve sairá para entrega! 🚚", suffix)
	case enums.OrderStatusOutForDelivery:
		return fmt.Sprintf("🚚 *Saiu para Entrega!*\n\nSeu pedido #%s saiu para entrega!\n\nNosso entregador está a caminho. 📍", suffix)
	case enums.OrderStatusDelivered:
		return fmt.Sprintf("✅ *Pedido Entregue!*\n\nSeu pedido #%s foi entregue com sucesso!\n\nObrigado pela preferência! Volte sempre! 🙏", suffix)
	case enums.OrderStatusCancelled:
		return fmt.Sprintf("❌ *Pedido Cancelado*\n\nInfelizmente seu pedido #%s foi cancelado.\n\nSe tiver dúvidas, entre em contato conosco.", suffix)
	default:
		return ""
	}
}

// StatusText renders a status as the label customers see in WhatsApp.
func StatusText(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusPending:
		return "⏳ Pendente"
	case enums.OrderStatusConfirmed:
		return "✅ Confirmado"
	case enums.OrderStatusPreparing:
		return "👨‍🍳 Preparando"
	case enums.OrderStatusOutForDelivery:
		return "🚚 Saiu para entrega"
	case enums.OrderStatusDelivered:
		return "✅ Entregue"
	case enums.OrderStatusCancelled:
		return "❌ Cancelado"
	default:
		return string(status)
	}
}
