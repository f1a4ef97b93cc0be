package bot

import (
	"fmt"
	"strings"

	"github.com/Maiconloureiro96-cyber/distribuidora/internal/nlp"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/orders"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
)

const (
	msgGenericError = "😅 Ops! Algo deu errado por aqui. Pode tentar novamente em alguns segundos?"

	msgEmptyMenu = "😅 Desculpe, não temos produtos disponíveis no momento. Tente novamente mais tarde!"

	msgEmptyCart = "🛒 Seu carrinho está vazio!\n\nDigite *menu* para ver nossos produtos e começar seu pedido! 😊"

	msgEmptyCartCheckout = "🛒 Seu carrinho está vazio! Adicione alguns produtos primeiro.\n\nDigite *menu* para ver nossos produtos!"

	msgCartCleared = "🗑️ Carrinho esvaziado!\n\nDigite *menu* para começar um novo pedido. 😊"

	msgProductNotFound = "🤔 Não encontrei esse produto. Digite *menu* para ver o que temos disponível!"

	msgNoOrdersYet = "📋 Você ainda não fez nenhum pedido conosco.\n\nDigite *menu* para fazer seu primeiro pedido! 😊"

	msgAskName = "📝 Para finalizar seu pedido, preciso de algumas informações:\n\n👤 Qual seu nome?"

	msgAskConfirm = "❓ Digite *confirmar* para finalizar seu pedido ou *cancelar* para voltar ao menu."

	msgUnknown = "🤔 Não entendi muito bem...\n\n" +
		"💡 *Dicas:*\n" +
		"• Digite *menu* para ver produtos\n" +
		"• Digite *ajuda* para ver comandos\n" +
		"• Ou me diga o que está procurando!\n\n" +
		"Exemplo: \"quero 2 coca cola\" 😊"

	msgHelp = "🤖 *Como posso ajudar:*\n\n" +
		"📋 Digite *menu* para ver produtos\n" +
		"🛒 Digite *carrinho* para ver seu pedido\n" +
		"📊 Digite *status* para acompanhar entrega\n\n" +
		"💬 *Exemplos de como pedir:*\n" +
		"• \"quero 2 coca cola\"\n" +
		"• \"me vê 3 cerveja skol\"\n" +
		"• \"adiciona 1 água\"\n\n" +
		"✅ Digite *finalizar* quando terminar\n\n" +
		"Estou aqui para facilitar seu pedido! 😊"
)

func greetingMessage(senderName, companyName string) string {
	return fmt.Sprintf("👋 Olá %s! Bem-vindo à %s!\n\n"+
		"🍺 Somos especialistas em bebidas geladas e entregas rápidas!\n\n"+
		"📋 Digite *menu* para ver nossos produtos\n"+
		"🛒 Ou me diga o que está procurando\n\n"+
		"Como posso ajudá-lo hoje? 😊", senderName, companyName)
}

func goodbyeMessage(companyName string) string {
	return fmt.Sprintf("👋 Obrigado pela preferência!\n\n"+
		"🍺 Foi um prazer atendê-lo na %s!\n\n"+
		"Se precisar de algo, é só chamar! Estamos sempre aqui! 😊\n\n"+
		"🚚 Entregas rápidas e bebidas geladas! 🧊", companyName)
}

func productLine(index int, p models.Product) string {
	stockInfo := "(Esgotado)"
	if p.Stock > 0 {
		stockInfo = fmt.Sprintf("(%d disponíveis)", p.Stock)
	}
	return fmt.Sprintf("%d. *%s* - R$ %s %s\n", index, p.Name, p.Price.StringFixed(2), stockInfo)
}

func categorizedMenuMessage(sections []menuSection) string {
	var b strings.Builder
	b.WriteString("📋 *NOSSO CARDÁPIO*\n\n")

	for _, section := range sections {
		if len(section.products) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("🏷️ *%s*\n", strings.ToUpper(section.category)))
		for i, p := range section.products {
			b.WriteString(productLine(i+1, p))
			if p.Description != "" {
				b.WriteString(fmt.Sprintf("   %s\n", p.Description))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("💬 *Como pedir:*\n")
	b.WriteString("Digite algo como: \"quero 2 coca cola\"\n")
	b.WriteString("Ou: \"me vê 3 cerveja skol\"\n\n")
	b.WriteString("🛒 Digite *carrinho* para ver seu pedido atual")
	return b.String()
}

const flatMenuCap = 20

func flatMenuMessage(products []models.Product) string {
	var b strings.Builder
	b.WriteString("📋 *NOSSOS PRODUTOS*\n\n")

	limit := len(products)
	if limit > flatMenuCap {
		limit = flatMenuCap
	}
	for i := 0; i < limit; i++ {
		b.WriteString(productLine(i+1, products[i]))
	}
	if len(products) > flatMenuCap {
		b.WriteString(fmt.Sprintf("\n... e mais %d produtos!\n", len(products)-flatMenuCap))
	}

	b.WriteString("\n💬 Digite o nome do produto que deseja!")
	return b.String()
}

func addedToCartMessage(confirmation, cartSummary string) string {
	return fmt.Sprintf("✅ %s\n\n%s\n\n"+
		"💬 Quer adicionar mais alguma coisa?\n"+
		"✅ Digite *finalizar* para confirmar o pedido", confirmation, cartSummary)
}

const disambiguationCap = 5

func disambiguationMessage(results []nlp.ScoredProduct) string {
	var b strings.Builder
	b.WriteString("🔍 Encontrei alguns produtos similares:\n\n")

	limit := len(results)
	if limit > disambiguationCap {
		limit = disambiguationCap
	}
	for i := 0; i < limit; i++ {
		b.WriteString(productLine(i+1, results[i].Product))
	}

	b.WriteString("\n💬 Digite o nome completo do produto que deseja!")
	return b.String()
}

func cartReviewMessage(cartSummary string) string {
	return cartSummary + "\n\n🔧 *Opções:*\n" +
		"✅ Digite *finalizar* para confirmar\n" +
		"🗑️ Digite *limpar* para esvaziar\n" +
		"➕ Continue adicionando produtos!"
}

func orderConfirmationMessage(order *models.Order) string {
	return fmt.Sprintf("🎉 *Pedido Confirmado!*\n\n"+
		"📋 Número: #%s\n"+
		"💰 Total: R$ %s\n\n"+
		"📦 Seu pedido foi recebido e está sendo preparado!\n\n"+
		"📱 Você receberá atualizações sobre o status da entrega.\n\n"+
		"🙏 Obrigado pela preferência!", order.IDSuffix(), order.TotalAmount.StringFixed(2))
}

func orderStatusMessage(order *models.Order) string {
	var b strings.Builder
	b.WriteString("📋 *Status do seu último pedido:*\n\n")
	b.WriteString(fmt.Sprintf("🔢 Número: #%s\n", order.IDSuffix()))
	b.WriteString(fmt.Sprintf("📅 Data: %s\n", order.CreatedAt.Format("02/01/2006 15:04")))
	b.WriteString(fmt.Sprintf("📊 Status: %s\n", orders.StatusText(order.Status)))
	b.WriteString(fmt.Sprintf("💰 Total: R$ %s\n\n", order.TotalAmount.StringFixed(2)))
	if order.DeliveredAt != nil {
		b.WriteString(fmt.Sprintf("✅ Entregue em: %s\n\n", order.DeliveredAt.Format("02/01/2006 15:04")))
	}
	b.WriteString("🙏 Obrigado pela preferência!")
	return b.String()
}

func nameConfirmedMessage(name string) string {
	return fmt.Sprintf("✅ Nome registrado: %s\n\n"+
		"📍 Qual o endereço para entrega?\n"+
		"(Ou digite \"retirar\" se for buscar no local)", name)
}

func addressConfirmedMessage(deliveryAddress *string) string {
	confirm := "✅ Retirada no local"
	if deliveryAddress != nil {
		confirm = "✅ Endereço: " + *deliveryAddress
	}
	return confirm + "\n\n📝 Alguma observação especial?\n(Ou digite \"não\" para finalizar)"
}

func checkoutSummaryMessage(cartSummary, customerName string, deliveryAddress, notes *string) string {
	var b strings.Builder
	b.WriteString("📋 *Resumo do Pedido:*\n\n")
	b.WriteString(cartSummary)
	b.WriteString(fmt.Sprintf("\n\n👤 Cliente: %s\n", customerName))
	if deliveryAddress != nil {
		b.WriteString(fmt.Sprintf("📍 Entrega: %s\n", *deliveryAddress))
	} else {
		b.WriteString("📍 Retirada no local\n")
	}
	if notes != nil {
		b.WriteString(fmt.Sprintf("📝 Obs: %s\n", *notes))
	}
	b.WriteString("\n✅ Digite *confirmar* para finalizar o pedido!")
	return b.String()
}

type suggestion struct {
	emoji   string
	product models.Product
	pitch   string
}

func suggestionsMessage(suggestions []suggestion) string {
	var b strings.Builder
	b.WriteString("💡 *Que tal complementar seu pedido?*\n\n")
	for _, s := range suggestions {
		b.WriteString(fmt.Sprintf("%s *%s* - R$ %s\n", s.emoji, s.product.Name, s.product.Price.StringFixed(2)))
		b.WriteString(fmt.Sprintf("   %s\n\n", s.pitch))
	}
	b.WriteString("💬 *Quer adicionar algo mais?*\n")
	b.WriteString("Digite algo como: \"quero 1 gelo\" ou \"não, obrigado\"\n\n")
	b.WriteString("✅ Seu pedido principal já está confirmado!")
	return b.String()
}
