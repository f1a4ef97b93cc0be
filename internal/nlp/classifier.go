package nlp

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductMatch is a product mentioned in a customer message.
type ProductMatch struct {
	ID    uuid.UUID
	Name  string
	Price decimal.Decimal
	Stock int
}

// Entities holds everything extracted from a single message.
type Entities struct {
	Products   []ProductMatch
	Quantities []int
	Numbers    []int
}

// Result is the outcome of classifying one message.
type Result struct {
	Intent     enums.Intent
	Confidence float64
	Entities   Entities
}

// ScoredProduct pairs a catalog product with its search relevance.
type ScoredProduct struct {
	Product   models.Product
	Relevance float64
}

// Classifier turns raw customer text into an intent plus extracted entities.
type Classifier interface {
	ProcessMessage(ctx context.Context, message string) (Result, error)
	ExtractQuantity(message string) int
	SearchProducts(ctx context.Context, query string) ([]ScoredProduct, error)
}

type productLister interface {
	ListActive(ctx context.Context) ([]models.Product, error)
}

type intentKeywords struct {
	intent   enums.Intent
	keywords []string
}

// Keyword tables are ordered, and a strictly higher score is required to
// displace an earlier intent, so classification is deterministic.
var keywordTable = []intentKeywords{
	{enums.IntentGreeting, []string{
		"oi", "ola", "bom dia", "boa tarde", "boa noite", "hey", "e ai", "eai",
		"salve", "fala", "hello", "hi", "oie", "oii",
	}},
	{enums.IntentViewMenu, []string{
		"cardapio", "menu", "produtos", "bebidas", "o que tem", "que tem",
		"lista", "catalogo", "opcoes", "disponivel",
		"tem o que", "mostrar", "ver produtos",
	}},
	{enums.IntentAddToCart, []string{
		"quero", "vou querer", "me ve", "coloca", "adiciona", "pega",
		"comprar", "levar", "pedir", "solicitar", "gostaria",
	}},
	{enums.IntentViewCart, []string{
		"carrinho", "pedido", "meu pedido", "o que pedi", "resumo", "total",
		"quanto deu", "quanto fica", "valor total",
	}},
	{enums.IntentPlaceOrder, []string{
		"finalizar", "confirmar", "fechar pedido", "e isso", "eh isso", "pronto",
		"pode mandar", "ta bom", "ok", "beleza", "confirma",
	}},
	{enums.IntentCheckOrderStatus, []string{
		"status", "andamento", "como esta", "chegou", "entrega",
		"onde esta", "saiu", "a caminho",
	}},
	{enums.IntentHelp, []string{
		"ajuda", "help", "socorro", "nao entendi", "como funciona",
		"duvida", "informacao",
	}},
	{enums.IntentGoodbye, []string{
		"tchau", "bye", "ate logo", "falou", "obrigado", "obrigada",
		"valeu", "thanks", "vlw", "flw",
	}},
}

var quantityWords = map[string]int{
	"um": 1, "uma": 1, "1": 1,
	"dois": 2, "duas": 2, "2": 2,
	"tres": 3, "3": 3,
	"quatro": 4, "4": 4,
	"cinco": 5, "5": 5,
	"seis": 6, "6": 6,
	"sete": 7, "7": 7,
	"oito": 8, "8": 8,
	"nove": 9, "9": 9,
	"dez": 10, "10": 10,
}

var productSynonyms = map[string][]string{
	"coca":       {"coca-cola", "coca cola", "cocacola"},
	"pepsi":      {"pepsi-cola", "pepsi cola"},
	"guarana":    {"guarana", "guarana antarctica"},
	"cerveja":    {"beer", "gelada"},
	"skol":       {"skolzinha"},
	"brahma":     {"brahminha"},
	"heineken":   {"heineken"},
	"agua":       {"agua", "agua mineral"},
	"energetico": {"energetico", "red bull", "monster"},
	"suco":       {"juice", "del valle"},
	"litrao":     {"litrao", "cerveja 1l", "cerveja litro"},
	"latinha":    {"lata", "cerveja lata", "cerveja 350ml"},
	"garrafa":    {"cerveja garrafa", "cerveja 600ml"},
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

const maxQuantity = 100

// KeywordClassifier scores fixed Portuguese keyword tables against the
// normalized message and extracts products by catalog lookup.
type KeywordClassifier struct {
	catalog productLister
}

// NewKeywordClassifier builds the default classifier.
func NewKeywordClassifier(catalog productLister) (*KeywordClassifier, error) {
	if catalog == nil {
		return nil, fmt.Errorf("nlp: catalog lister required")
	}
	return &KeywordClassifier{catalog: catalog}, nil
}

func (c *KeywordClassifier) ProcessMessage(ctx context.Context, message string) (Result, error) {
	normalized := Normalize(message)
	intent := identifyIntent(normalized)

	entities, err := c.extractEntities(ctx, normalized)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Intent:     intent,
		Confidence: confidence(normalized, intent),
		Entities:   entities,
	}, nil
}

func identifyIntent(normalized string) enums.Intent {
	best := enums.IntentUnknown
	bestScore := 0

	for _, row := range keywordTable {
		score := 0
		for _, kw := range row.keywords {
			if strings.Contains(normalized, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = row.intent
		}
	}

	return best
}

func confidence(normalized string, intent enums.Intent) float64 {
	if intent == enums.IntentUnknown {
		return 0
	}

	var keywords []string
	for _, row := range keywordTable {
		if row.intent == intent {
			keywords = row.keywords
			break
		}
	}
	if len(keywords) == 0 {
		return 0
	}

	matches := 0
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			matches++
		}
	}

	score := math.Min(float64(matches)/float64(len(keywords))*2, 1)
	return math.Round(score*100) / 100
}

func (c *KeywordClassifier) extractEntities(ctx context.Context, normalized string) (Entities, error) {
	entities := Entities{
		Products:   []ProductMatch{},
		Quantities: []int{},
		Numbers:    []int{},
	}

	for _, word := range strings.Fields(normalized) {
		if digitsOnly.MatchString(word) {
			if n, err := strconv.Atoi(word); err == nil {
				entities.Numbers = append(entities.Numbers, n)
			}
		}
		if n, ok := quantityWords[word]; ok {
			entities.Quantities = append(entities.Quantities, n)
		}
	}

	products, err := c.extractProducts(ctx, normalized)
	if err != nil {
		return Entities{}, err
	}
	entities.Products = products

	return entities, nil
}

func (c *KeywordClassifier) extractProducts(ctx context.Context, normalized string) ([]ProductMatch, error) {
	all, err := c.catalog.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	matched := []ProductMatch{}
	seen := map[uuid.UUID]bool{}

	add := func(p models.Product) {
		if seen[p.ID] {
			return
		}
		seen[p.ID] = true
		matched = append(matched, ProductMatch{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price,
			Stock: p.Stock,
		})
	}

	for _, product := range all {
		productName := Normalize(product.Name)

		if strings.Contains(normalized, productName) {
			add(product)
			continue
		}

		for synonym, variations := range productSynonyms {
			if !strings.Contains(normalized, synonym) {
				continue
			}
			for _, variation := range variations {
				if strings.Contains(productName, Normalize(variation)) {
					add(product)
					break
				}
			}
		}
	}

	return matched, nil
}

// ExtractQuantity pulls an order quantity out of free text. Digits win over
// quantity words, dozen phrases come last, and the default is a single unit.
func (c *KeywordClassifier) ExtractQuantity(message string) int {
	normalized := Normalize(message)
	words := strings.Fields(normalized)

	for _, word := range words {
		if digitsOnly.MatchString(word) {
			if n, err := strconv.Atoi(word); err == nil && n > 0 && n <= maxQuantity {
				return n
			}
		}
	}

	for _, word := range words {
		if n, ok := quantityWords[word]; ok {
			return n
		}
	}

	if strings.Contains(normalized, "meia duzia") {
		return 6
	}
	if strings.Contains(normalized, "duzia") {
		return 12
	}

	return 1
}

// SearchProducts matches free text against the active catalog. Name matches
// score 1.0, description matches 0.8 and synonym matches 0.9, sorted by
// relevance with catalog order breaking ties.
func (c *KeywordClassifier) SearchProducts(ctx context.Context, query string) ([]ScoredProduct, error) {
	normalizedQuery := Normalize(query)

	all, err := c.catalog.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	results := []ScoredProduct{}
	seen := map[uuid.UUID]bool{}

	add := func(p models.Product, relevance float64) {
		if seen[p.ID] {
			return
		}
		seen[p.ID] = true
		results = append(results, ScoredProduct{Product: p, Relevance: relevance})
	}

	for _, product := range all {
		productName := Normalize(product.Name)
		productDescription := Normalize(product.Description)

		if strings.Contains(productName, normalizedQuery) || strings.Contains(normalizedQuery, productName) {
			add(product, 1.0)
			continue
		}

		if productDescription != "" && strings.Contains(productDescription, normalizedQuery) {
			add(product, 0.8)
			continue
		}

		for synonym, variations := range productSynonyms {
			if !strings.Contains(normalizedQuery, synonym) {
				continue
			}
			for _, variation := range variations {
				if strings.Contains(productName, Normalize(variation)) {
					add(product, 0.9)
					break
				}
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	return results, nil
}
