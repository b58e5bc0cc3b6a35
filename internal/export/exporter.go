package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
)

// Result is a finished export payload. CSV and JSON are rendered inline;
// PDF and Drive exports are handed off to the external renderer/Drive
// collaborator, so their Data is empty and Deferred is set.
type Result struct {
	Format      config.ExportFormat `json:"format"`
	Filename    string              `json:"filename"`
	ContentType string              `json:"content_type"`
	Data        []byte              `json:"-"`
	Deferred    bool                `json:"deferred"`
}

// Exporter renders invoice export payloads
type Exporter interface {
	Export(invoice *models.Invoice, format config.ExportFormat) (*Result, error)
}

type exporter struct{}

// NewExporter creates a new invoice exporter
func NewExporter() Exporter {
	return &exporter{}
}

func (e *exporter) Export(invoice *models.Invoice, format config.ExportFormat) (*Result, error) {
	switch format {
	case config.ExportCSV:
		return e.exportCSV(invoice)
	case config.ExportJSON:
		return e.exportJSON(invoice)
	case config.ExportPDF, config.ExportDrive, config.ExportXLSX:
		// Rendering/delivery happens in the external collaborator; the backend
		// only authorizes and records the export
		return &Result{
			Format:   format,
			Filename: fmt.Sprintf("invoice-%s.%s", invoice.InvoiceNumber, format),
			Deferred: true,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func (e *exporter) exportCSV(invoice *models.Invoice) (*Result, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"invoice_number", "description", "quantity", "unit_price", "tax_rate", "amount", "currency"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, item := range invoice.Items {
		record := []string{
			invoice.InvoiceNumber,
			item.Description,
			strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			strconv.FormatInt(item.UnitPrice, 10),
			strconv.FormatFloat(item.TaxRate, 'f', -1, 64),
			strconv.FormatInt(item.Amount, 10),
			invoice.Currency,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return &Result{
		Format:      config.ExportCSV,
		Filename:    fmt.Sprintf("invoice-%s.csv", invoice.InvoiceNumber),
		ContentType: "text/csv",
		Data:        buf.Bytes(),
	}, nil
}

func (e *exporter) exportJSON(invoice *models.Invoice) (*Result, error) {
	data, err := json.MarshalIndent(invoice, "", "  ")
	if err != nil {
		return nil, err
	}

	return &Result{
		Format:      config.ExportJSON,
		Filename:    fmt.Sprintf("invoice-%s.json", invoice.InvoiceNumber),
		ContentType: "application/json",
		Data:        data,
	}, nil
}
