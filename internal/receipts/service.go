package receipts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/config"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	"github.com/go-pdf/fpdf"
)

// Service renders order receipts and sales reports as PDF files under the
// configured output directory.
type Service struct {
	outputDir      string
	companyName    string
	companyPhone   string
	companyAddress string
	now            func() time.Time
}

// NewService creates the output directory if needed.
func NewService(cfg config.ReceiptsConfig, bot config.BotConfig) (*Service, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("receipts: output directory required")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("receipts: create output dir: %w", err)
	}
	return &Service{
		outputDir:      cfg.OutputDir,
		companyName:    bot.CompanyName,
		companyPhone:   bot.CompanyPhone,
		companyAddress: bot.CompanyAddress,
		now:            time.Now,
	}, nil
}

// OutputDir returns where generated files land.
func (s *Service) OutputDir() string {
	return s.outputDir
}

// GenerateOrderReceipt writes a one-page receipt for the order and returns
// the file path.
func (s *Service) GenerateOrderReceipt(order *models.Order) (string, error) {
	if order == nil {
		return "", fmt.Errorf("receipts: order required")
	}

	fileName := fmt.Sprintf("pedido_%s_%s.pdf", order.IDSuffix(), s.now().Format("20060102_150405"))
	path := filepath.Join(s.outputDir, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	s.header(pdf)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "PEDIDO", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Numero: #%s", order.IDSuffix()), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Data: %s", order.CreatedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", statusLabel(order.Status)), "", 1, "L", false, 0, "")
	if order.DeliveredAt != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Entregue em: %s", order.DeliveredAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "CLIENTE", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	name := "Nao informado"
	if order.CustomerName != nil && *order.CustomerName != "" {
		name = *order.CustomerName
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Nome: %s", name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Telefone: %s", order.CustomerPhone), "", 1, "L", false, 0, "")
	if order.DeliveryAddress != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Endereco: %s", *order.DeliveryAddress), "", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(0, 6, "Retirada no local", "", 1, "L", false, 0, "")
	}
	if order.Notes != nil && *order.Notes != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Observacoes: %s", *order.Notes), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "ITENS DO PEDIDO", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 6, "PRODUTO", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 6, "QTD", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, "PRECO UNIT.", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, "TOTAL", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.Items {
		pdf.CellFormat(90, 6, item.ProductName, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, "R$ "+item.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, "R$ "+item.TotalPrice.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "TOTAL DO PEDIDO: R$ "+order.TotalAmount.StringFixed(2), "T", 1, "R", false, 0, "")

	s.footer(pdf)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("receipts: write pdf: %w", err)
	}
	return path, nil
}

// SalesSummary is the aggregated input for a report PDF.
type SalesSummary struct {
	Period       string
	TotalOrders  int
	TotalRevenue string
	TopProducts  []TopProduct
}

// TopProduct is one row of the best-seller table.
type TopProduct struct {
	ProductName  string
	QuantitySold int
	Revenue      string
}

// GenerateSalesReport writes a sales report PDF and returns the file path.
func (s *Service) GenerateSalesReport(summary SalesSummary) (string, error) {
	fileName := fmt.Sprintf("relatorio_vendas_%s_%s.pdf", sanitize(summary.Period), s.now().Format("20060102_150405"))
	path := filepath.Join(s.outputDir, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	s.header(pdf)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "RELATORIO DE VENDAS", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Periodo: "+summary.Period, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "RESUMO GERAL", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total de Pedidos: %d", summary.TotalOrders), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Receita Total: R$ "+summary.TotalRevenue, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if len(summary.TopProducts) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "PRODUTOS MAIS VENDIDOS", "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(100, 6, "PRODUTO", "B", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, "QTD VENDIDA", "B", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, "RECEITA", "B", 1, "R", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		limit := len(summary.TopProducts)
		if limit > 10 {
			limit = 10
		}
		for i := 0; i < limit; i++ {
			p := summary.TopProducts[i]
			pdf.CellFormat(100, 6, fmt.Sprintf("%d. %s", i+1, p.ProductName), "", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%d", p.QuantitySold), "", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, "R$ "+p.Revenue, "", 1, "R", false, 0, "")
		}
	}

	s.footer(pdf)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("receipts: write pdf: %w", err)
	}
	return path, nil
}

// ListGenerated returns the generated PDF paths, newest first.
func (s *Service) ListGenerated() ([]string, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("receipts: read output dir: %w", err)
	}

	type fileWithTime struct {
		path    string
		modTime time.Time
	}
	var files []fileWithTime
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pdf" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileWithTime{
			path:    filepath.Join(s.outputDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// CleanupOld deletes PDFs older than maxAge and reports how many went.
func (s *Service) CleanupOld(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return 0, fmt.Errorf("receipts: read output dir: %w", err)
	}

	cutoff := s.now().Add(-maxAge)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.outputDir, entry.Name())); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}

func (s *Service) header(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, s.companyName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, s.companyPhone, "", 1, "C", false, 0, "")
	if s.companyAddress != "" {
		pdf.CellFormat(0, 6, s.companyAddress, "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
	x, y := pdf.GetX(), pdf.GetY()
	pdf.Line(x, y, 195, y)
	pdf.Ln(4)
}

func (s *Service) footer(pdf *fpdf.Fpdf) {
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, "Obrigado pela preferencia!", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Documento gerado em "+s.now().Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
}

func statusLabel(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusPending:
		return "Pendente"
	case enums.OrderStatusConfirmed:
		return "Confirmado"
	case enums.OrderStatusPreparing:
		return "Preparando"
	case enums.OrderStatusOutForDelivery:
		return "Saiu para entrega"
	case enums.OrderStatusDelivered:
		return "Entregue"
	case enums.OrderStatusCancelled:
		return "Cancelado"
	default:
		return string(status)
	}
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
