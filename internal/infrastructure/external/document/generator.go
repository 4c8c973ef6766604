package document

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
)

// Generator implements port.DocumentService. Each template kind produces an
// Excel workbook built in memory and written through the file storage port,
// so the storage backend can change without touching document layout.
type Generator struct {
	storage port.FileStorage
	logger  *zap.Logger
}

// NewGenerator creates a document generator
func NewGenerator(storage port.FileStorage, logger *zap.Logger) port.DocumentService {
	return &Generator{
		storage: storage,
		logger:  logger,
	}
}

// Generate produces the document for the template kind and returns its number
// and storage path
func (g *Generator) Generate(ctx context.Context, templateKind string, e *entity.Entity) (port.DocumentHandle, error) {
	number := documentNumber(templateKind, e)
	path := fmt.Sprintf("documents/%s/%s.xlsx", templateKind, number)

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	var err error
	switch templateKind {
	case "itinerary":
		err = g.fillItinerary(f, sheet, number, e)
	case "award_sheet":
		err = g.fillAwardSheet(f, sheet, number, e)
	case "purchase_order":
		err = g.fillPurchaseOrder(f, sheet, number, e)
	default:
		return port.DocumentHandle{}, fmt.Errorf("unknown document template %q", templateKind)
	}
	if err != nil {
		return port.DocumentHandle{}, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return port.DocumentHandle{}, fmt.Errorf("failed to render workbook: %w", err)
	}
	if err := g.storage.Save(ctx, path, buf.Bytes()); err != nil {
		return port.DocumentHandle{}, fmt.Errorf("failed to store document: %w", err)
	}

	g.logger.Info("Document generated",
		zap.String("template", templateKind),
		zap.String("number", number),
		zap.String("path", path),
		zap.Int64("entity_id", e.ID))

	return port.DocumentHandle{Number: number, Path: path}, nil
}

func (g *Generator) fillItinerary(f *excelize.File, sheet, number string, e *entity.Entity) error {
	p, ok := e.Payload.(*entity.TravelRequestPayload)
	if !ok {
		return fmt.Errorf("itinerary requires a travel request, got %s", e.Kind)
	}

	g.setCell(f, sheet, "A1", "Travel Itinerary")
	g.setCell(f, sheet, "B2", number)
	g.setCell(f, sheet, "B3", e.CreatedBy)
	g.setCell(f, sheet, "B4", p.Purpose)
	g.setCell(f, sheet, "B5", fmt.Sprintf("%s to %s", p.Origin, p.Destination))
	g.setCell(f, sheet, "B6", p.DepartDate.Format("2006-01-02"))
	g.setCell(f, sheet, "B7", p.ReturnDate.Format("2006-01-02"))
	g.setCell(f, sheet, "B8", p.MeansOfTravel)
	if p.AssignedDriverID != "" {
		g.setCell(f, sheet, "B9", p.AssignedDriverID)
	}
	if p.FlightReference != "" {
		g.setCell(f, sheet, "B10", p.FlightReference)
	}
	return nil
}

func (g *Generator) fillAwardSheet(f *excelize.File, sheet, number string, e *entity.Entity) error {
	p, ok := e.Payload.(*entity.TenderPayload)
	if !ok {
		return fmt.Errorf("award sheet requires a tender, got %s", e.Kind)
	}

	g.setCell(f, sheet, "A1", "Tender Award Sheet")
	g.setCell(f, sheet, "B2", number)
	g.setCell(f, sheet, "B3", p.Title)
	g.setCell(f, sheet, "B4", p.Category)
	g.setCell(f, sheet, "B5", p.Deadline.Format("2006-01-02"))
	g.setCell(f, sheet, "B6", p.AwardedVendorID)
	return nil
}

func (g *Generator) fillPurchaseOrder(f *excelize.File, sheet, number string, e *entity.Entity) error {
	p, ok := e.Payload.(*entity.PurchaseOrderPayload)
	if !ok {
		return fmt.Errorf("purchase order form requires a purchase order, got %s", e.Kind)
	}

	g.setCell(f, sheet, "A1", "Purchase Order")
	g.setCell(f, sheet, "B2", number)
	g.setCell(f, sheet, "B3", p.VendorID)
	g.setCell(f, sheet, "B4", fmt.Sprintf("%.2f %s", float64(p.AmountCents)/100, p.Currency))
	g.setCell(f, sheet, "B5", p.DeliveryAddress)
	return nil
}

// setCell sets a cell value, logging rather than failing on a bad reference
func (g *Generator) setCell(f *excelize.File, sheet, cell string, value any) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		g.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

var documentPrefixes = map[string]string{
	"itinerary":      "ITN",
	"award_sheet":    "AWD",
	"purchase_order": "PO",
}

func documentNumber(templateKind string, e *entity.Entity) string {
	prefix, ok := documentPrefixes[templateKind]
	if !ok {
		prefix = "DOC"
	}
	return fmt.Sprintf("%s-%d-%06d", prefix, time.Now().Year(), e.ID)
}
