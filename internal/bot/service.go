package bot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Maiconloureiro96-cyber/distribuidora/internal/catalog"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/nlp"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/orders"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/session"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/metrics"
)

// IncomingMessage is a single customer message after webhook extraction.
type IncomingMessage struct {
	Phone      string
	SenderName string
	Text       string
	MessageID  string
	FromMe     bool
}

// Transport sends outbound WhatsApp messages.
type Transport interface {
	SendText(ctx context.Context, number, text string) error
	MarkMessageAsRead(ctx context.Context, messageID string) error
}

type receiptWriter interface {
	GenerateOrderReceipt(order *models.Order) (string, error)
}

// Service is the conversation orchestrator. It routes classified
// intents into handlers, drives the checkout sub-dialog and finalizes
// orders.
type Service struct {
	classifier  nlp.Classifier
	store       *session.Store
	catalog     catalog.Service
	orders      orders.Service
	receipts    receiptWriter
	transport   Transport
	metrics     *metrics.BotMetrics
	log         *logger.Logger
	companyName string

	// suggestionDelay spaces the upsell message out from the order
	// confirmation. Tests set it to zero.
	suggestionDelay time.Duration
}

type ServiceParams struct {
	Classifier  nlp.Classifier
	Store       *session.Store
	Catalog     catalog.Service
	Orders      orders.Service
	Receipts    receiptWriter
	Transport   Transport
	Metrics     *metrics.BotMetrics
	Log         *logger.Logger
	CompanyName string
}

func NewService(p ServiceParams) *Service {
	if p.Classifier == nil {
		panic("bot: nil classifier")
	}
	if p.Store == nil {
		panic("bot: nil session store")
	}
	if p.Catalog == nil {
		panic("bot: nil catalog service")
	}
	if p.Orders == nil {
		panic("bot: nil orders service")
	}
	if p.Transport == nil {
		panic("bot: nil transport")
	}
	if p.Log == nil {
		panic("bot: nil logger")
	}
	if p.CompanyName == "" {
		p.CompanyName = "Distribuidora"
	}
	return &Service{
		classifier:      p.Classifier,
		store:           p.Store,
		catalog:         p.Catalog,
		orders:          p.Orders,
		receipts:        p.Receipts,
		transport:       p.Transport,
		metrics:         p.Metrics,
		log:             p.Log,
		companyName:     p.CompanyName,
		suggestionDelay: 2 * time.Second,
	}
}

// HandleMessage processes one inbound message end to end. Handler
// failures are answered with a generic apology instead of being
// surfaced to the webhook, so the gateway never retries a
// conversation turn.
func (s *Service) HandleMessage(ctx context.Context, msg IncomingMessage) error {
	if msg.FromMe || strings.TrimSpace(msg.Text) == "" {
		return nil
	}

	ctx = s.log.WithPhone(ctx, msg.Phone)

	if msg.MessageID != "" {
		if err := s.transport.MarkMessageAsRead(ctx, msg.MessageID); err != nil {
			s.log.Warn(ctx, "failed to mark message as read")
		}
	}

	result, err := s.classifier.ProcessMessage(ctx, msg.Text)
	if err != nil {
		return s.apologize(ctx, msg.Phone, err)
	}

	s.metrics.IncMessage(string(result.Intent))
	ctx = s.log.WithIntent(ctx, string(result.Intent))

	sess := s.store.GetOrCreateSession(msg.Phone)

	if handled, err := s.handleSpecialCommand(ctx, msg.Phone, msg.Text); handled {
		if err != nil {
			return s.apologize(ctx, msg.Phone, err)
		}
		return nil
	}

	if err := s.dispatch(ctx, msg, result, sess.Step); err != nil {
		return s.apologize(ctx, msg.Phone, err)
	}
	return nil
}

func (s *Service) apologize(ctx context.Context, phone string, cause error) error {
	s.log.Error(ctx, "message handling failed", cause)
	if err := s.transport.SendText(ctx, phone, msgGenericError); err != nil {
		s.metrics.IncSendFailure()
		s.log.Error(ctx, "failed to send apology", err)
	}
	return nil
}

func (s *Service) send(ctx context.Context, phone, text string) error {
	if err := s.transport.SendText(ctx, phone, text); err != nil {
		s.metrics.IncSendFailure()
		return errors.Wrap(errors.CodeTransport, err, "send message")
	}
	return nil
}

// handleSpecialCommand short-circuits exact single-word commands
// before intent dispatch.
func (s *Service) handleSpecialCommand(ctx context.Context, phone, text string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "menu", "cardápio", "cardapio":
		return true, s.handleViewMenu(ctx, phone)
	case "carrinho", "pedido":
		return true, s.handleViewCart(ctx, phone)
	case "limpar":
		return true, s.handleClearCart(ctx, phone)
	case "status":
		return true, s.handleCheckOrderStatus(ctx, phone)
	case "ajuda", "help":
		return true, s.handleHelp(ctx, phone)
	default:
		return false, nil
	}
}

func (s *Service) dispatch(ctx context.Context, msg IncomingMessage, result nlp.Result, step enums.ConversationStep) error {
	switch result.Intent {
	case enums.IntentGreeting:
		return s.handleGreeting(ctx, msg.Phone, msg.SenderName)
	case enums.IntentViewMenu:
		return s.handleViewMenu(ctx, msg.Phone)
	case enums.IntentAddToCart:
		return s.handleAddToCart(ctx, msg.Phone, msg.Text, result.Entities)
	case enums.IntentViewCart:
		return s.handleViewCart(ctx, msg.Phone)
	case enums.IntentPlaceOrder:
		return s.handlePlaceOrder(ctx, msg.Phone, step)
	case enums.IntentCheckOrderStatus:
		return s.handleCheckOrderStatus(ctx, msg.Phone)
	case enums.IntentHelp:
		return s.handleHelp(ctx, msg.Phone)
	case enums.IntentGoodbye:
		return s.handleGoodbye(ctx, msg.Phone)
	default:
		return s.handleUnknown(ctx, msg.Phone, msg.Text, step)
	}
}

func (s *Service) handleGreeting(ctx context.Context, phone, senderName string) error {
	if senderName == "" {
		senderName = "Cliente"
	}
	if err := s.send(ctx, phone, greetingMessage(senderName, s.companyName)); err != nil {
		return err
	}
	s.store.UpdateSession(phone, enums.StepMenu, nil)
	return nil
}

type menuSection struct {
	category string
	products []models.Product
}

func (s *Service) handleViewMenu(ctx context.Context, phone string) error {
	products, err := s.catalog.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return s.send(ctx, phone, msgEmptyMenu)
	}

	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return err
	}

	var text string
	if len(categories) > 0 {
		sections := make([]menuSection, 0, len(categories))
		for _, category := range categories {
			inCategory, err := s.catalog.ListByCategory(ctx, category)
			if err != nil {
				return err
			}
			sections = append(sections, menuSection{category: category, products: inCategory})
		}
		text = categorizedMenuMessage(sections)
	} else {
		text = flatMenuMessage(products)
	}

	if err := s.send(ctx, phone, text); err != nil {
		return err
	}
	s.store.UpdateSession(phone, enums.StepBrowsingProducts, nil)
	return nil
}

func (s *Service) handleAddToCart(ctx context.Context, phone, text string, entities nlp.Entities) error {
	quantity := s.classifier.ExtractQuantity(text)

	if len(entities.Products) > 0 {
		return s.addProduct(ctx, phone, entities.Products[0].ID, quantity)
	}

	results, err := s.classifier.SearchProducts(ctx, text)
	if err != nil {
		return err
	}
	switch {
	case len(results) == 0:
		return s.send(ctx, phone, msgProductNotFound)
	case len(results) == 1:
		return s.addProduct(ctx, phone, results[0].Product.ID, quantity)
	default:
		return s.send(ctx, phone, disambiguationMessage(results))
	}
}

func (s *Service) addProduct(ctx context.Context, phone string, productID uuid.UUID, quantity int) error {
	confirmation, err := s.store.AddToCart(ctx, phone, productID, quantity)
	if err != nil {
		if e := errors.As(err); e != nil && e.Code() != errors.CodePersistence && e.Code() != errors.CodeInternal {
			return s.send(ctx, phone, "❌ "+e.Message())
		}
		return err
	}

	summary := s.store.CartSummary(phone)
	if err := s.send(ctx, phone, addedToCartMessage(confirmation, summary)); err != nil {
		return err
	}
	s.store.UpdateSession(phone, enums.StepAddingToCart, nil)
	return nil
}

func (s *Service) handleViewCart(ctx context.Context, phone string) error {
	if s.store.IsCartEmpty(phone) {
		return s.send(ctx, phone, msgEmptyCart)
	}
	if err := s.send(ctx, phone, cartReviewMessage(s.store.CartSummary(phone))); err != nil {
		return err
	}
	s.store.UpdateSession(phone, enums.StepCartReview, nil)
	return nil
}

func (s *Service) handleClearCart(ctx context.Context, phone string) error {
	s.store.ClearCart(phone)
	if err := s.send(ctx, phone, msgCartCleared); err != nil {
		return err
	}
	s.store.UpdateSession(phone, enums.StepBrowsingProducts, nil)
	return nil
}

func (s *Service) handlePlaceOrder(ctx context.Context, phone string, step enums.ConversationStep) error {
	if s.store.IsCartEmpty(phone) {
		return s.send(ctx, phone, msgEmptyCartCheckout)
	}

	if err := s.store.ValidateCart(ctx, phone); err != nil {
		if e := errors.As(err); e != nil && (e.Code() == errors.CodeInvalidCart || e.Code() == errors.CodeInsufficientStock) {
			return s.send(ctx, phone, "❌ "+e.Message())
		}
		return err
	}

	if step != enums.StepCustomerInfo {
		if err := s.send(ctx, phone, msgAskName); err != nil {
			return err
		}
		sub := session.SubStepName
		s.store.UpdateSession(phone, enums.StepCustomerInfo, &session.Patch{SubStep: &sub})
		return nil
	}

	return s.finalizeOrder(ctx, phone)
}

func (s *Service) finalizeOrder(ctx context.Context, phone string) error {
	sess := s.store.GetOrCreateSession(phone)
	cart := s.store.GetCart(phone)

	order, err := s.orders.Create(ctx, orders.CreateInput{
		Cart:            cart,
		CustomerName:    sess.Checkout.CustomerName,
		DeliveryAddress: sess.Checkout.DeliveryAddress,
		Notes:           sess.Checkout.Notes,
	})
	if err != nil {
		if e := errors.As(err); e != nil && (e.Code() == errors.CodeInvalidCart || e.Code() == errors.CodeInsufficientStock) {
			return s.send(ctx, phone, "❌ "+e.Message())
		}
		return err
	}

	ctx = s.log.WithOrderID(ctx, order.ID.String())
	s.metrics.IncOrderPlaced()

	s.store.ClearCart(phone)
	s.store.UpdateSession(phone, enums.StepOrderConfirmation, nil)

	if err := s.send(ctx, phone, orderConfirmationMessage(order)); err != nil {
		return err
	}

	if s.receipts != nil {
		if _, err := s.receipts.GenerateOrderReceipt(order); err != nil {
			s.log.Warn(ctx, "failed to generate order receipt")
		}
	}

	s.sendProductSuggestions(ctx, phone, order)
	return nil
}

func (s *Service) handleCheckOrderStatus(ctx context.Context, phone string) error {
	order, err := s.orders.LatestByPhone(ctx, phone)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return s.send(ctx, phone, msgNoOrdersYet)
		}
		return err
	}
	return s.send(ctx, phone, orderStatusMessage(order))
}

func (s *Service) handleHelp(ctx context.Context, phone string) error {
	return s.send(ctx, phone, msgHelp)
}

func (s *Service) handleGoodbye(ctx context.Context, phone string) error {
	if err := s.send(ctx, phone, goodbyeMessage(s.companyName)); err != nil {
		return err
	}
	s.store.ClearSession(phone)
	return nil
}

func (s *Service) handleUnknown(ctx context.Context, phone, text string, step enums.ConversationStep) error {
	if step == enums.StepCustomerInfo {
		return s.handleCustomerInfo(ctx, phone, text)
	}

	results, err := s.classifier.SearchProducts(ctx, text)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		quantity := s.classifier.ExtractQuantity(text)
		if len(results) == 1 {
			return s.addProduct(ctx, phone, results[0].Product.ID, quantity)
		}
		return s.send(ctx, phone, disambiguationMessage(results))
	}

	return s.send(ctx, phone, msgUnknown)
}

// handleCustomerInfo advances the checkout sub-dialog one step per
// inbound message.
func (s *Service) handleCustomerInfo(ctx context.Context, phone, text string) error {
	sess := s.store.GetOrCreateSession(phone)
	input := strings.TrimSpace(text)

	switch sess.Checkout.SubStep {
	case session.SubStepName:
		name := input
		sub := session.SubStepAddress
		s.store.UpdateSession(phone, enums.StepCustomerInfo, &session.Patch{
			SubStep:      &sub,
			CustomerName: &name,
		})
		return s.send(ctx, phone, nameConfirmedMessage(name))

	case session.SubStepAddress:
		sub := session.SubStepNotes
		patch := &session.Patch{SubStep: &sub}
		if strings.ToLower(input) == "retirar" {
			patch.PickupRequested = true
		} else {
			address := input
			patch.DeliveryAddress = &address
		}
		s.store.UpdateSession(phone, enums.StepCustomerInfo, patch)
		updated := s.store.GetOrCreateSession(phone)
		return s.send(ctx, phone, addressConfirmedMessage(updated.Checkout.DeliveryAddress))

	case session.SubStepNotes:
		sub := session.SubStepComplete
		patch := &session.Patch{SubStep: &sub}
		lower := strings.ToLower(input)
		if lower == "não" || lower == "nao" {
			patch.NotesCleared = true
		} else {
			notes := input
			patch.Notes = &notes
		}
		s.store.UpdateSession(phone, enums.StepCustomerInfo, patch)
		updated := s.store.GetOrCreateSession(phone)
		summary := s.store.CartSummary(phone)
		return s.send(ctx, phone, checkoutSummaryMessage(summary,
			updated.Checkout.CustomerName, updated.Checkout.DeliveryAddress, updated.Checkout.Notes))

	case session.SubStepComplete:
		if strings.Contains(strings.ToLower(input), "confirmar") {
			return s.finalizeOrder(ctx, phone)
		}
		return s.send(ctx, phone, msgAskConfirm)

	default:
		return s.send(ctx, phone, msgAskConfirm)
	}
}

// sendProductSuggestions proposes complements after a confirmed order.
// Failures here never fail the order flow.
func (s *Service) sendProductSuggestions(ctx context.Context, phone string, order *models.Order) {
	if s.suggestionDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.suggestionDelay):
		}
	}

	suggestions := s.buildSuggestions(ctx, order)
	if len(suggestions) == 0 {
		return
	}

	if err := s.transport.SendText(ctx, phone, suggestionsMessage(suggestions)); err != nil {
		s.metrics.IncSendFailure()
		s.log.Warn(ctx, "failed to send product suggestions")
		return
	}
	s.store.UpdateSession(phone, enums.StepBrowsingProducts, nil)
}

func (s *Service) buildSuggestions(ctx context.Context, order *models.Order) []suggestion {
	hasIce := orderContains(order, "gelo")
	hasWater := orderContains(order, "agua")
	hasEnergy := orderContains(order, "energetico", "red bull")
	hasBeverages := orderContains(order, "coca", "pepsi", "guarana", "cerveja", "refrigerante", "bebida")

	var suggestions []suggestion
	if hasBeverages && !hasIce {
		if p, ok := s.firstInStock(ctx, "gelo"); ok {
			suggestions = append(suggestions, suggestion{emoji: "🧊", product: p,
				pitch: "Perfeito para manter suas bebidas geladas!"})
		}
	}
	if !hasWater {
		if p, ok := s.firstInStock(ctx, "água"); ok {
			suggestions = append(suggestions, suggestion{emoji: "💧", product: p,
				pitch: "Sempre bom ter água por perto!"})
		}
	}
	if hasBeverages && len(order.Items) >= 3 && !hasEnergy {
		if p, ok := s.firstInStock(ctx, "energético"); ok {
			suggestions = append(suggestions, suggestion{emoji: "⚡", product: p,
				pitch: "Para dar aquela energia extra!"})
		}
	}
	return suggestions
}

func (s *Service) firstInStock(ctx context.Context, query string) (models.Product, bool) {
	products, err := s.catalog.SearchByName(ctx, query)
	if err != nil || len(products) == 0 {
		return models.Product{}, false
	}
	if products[0].Stock <= 0 {
		return models.Product{}, false
	}
	return products[0], true
}

func orderContains(order *models.Order, keywords ...string) bool {
	for _, item := range order.Items {
		name := nlp.Normalize(item.ProductName)
		for _, keyword := range keywords {
			if strings.Contains(name, keyword) {
				return true
			}
		}
	}
	return false
}
