package document

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
	"github.com/ningi265/hrms-client-sub001/internal/infrastructure/storage"
)

func newTestGenerator(t *testing.T) (*Generator, func(path string) bool) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	fs := storage.NewLocalFileStorage(t.TempDir(), logger)
	g := NewGenerator(fs, logger).(*Generator)
	exists := func(path string) bool {
		ok, err := fs.Exists(context.Background(), path)
		if err != nil {
			t.Fatalf("Exists(%q): %v", path, err)
		}
		return ok
	}
	return g, exists
}

func TestGenerateItinerary(t *testing.T) {
	g, exists := newTestGenerator(t)

	e := &entity.Entity{
		ID:        7,
		Kind:      domainwf.KindTravelRequest,
		State:     domainwf.StateTravelNotificationsPending,
		CreatedBy: "emp-2",
		Payload: &entity.TravelRequestPayload{
			Purpose:          "Regional workshop",
			Origin:           "Lilongwe",
			Destination:      "Nairobi",
			MeansOfTravel:    entity.TravelMeansMixed,
			DepartDate:       time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
			ReturnDate:       time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC),
			AssignedDriverID: "drv-14",
			FlightReference:  "KQ-417",
		},
	}

	handle, err := g.Generate(context.Background(), "itinerary", e)
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}

	wantNumber := fmt.Sprintf("ITN-%d-000007", time.Now().Year())
	if handle.Number != wantNumber {
		t.Errorf("document number = %q, want %q", handle.Number, wantNumber)
	}
	if !strings.HasPrefix(handle.Path, "documents/itinerary/") {
		t.Errorf("document path = %q, want documents/itinerary/ prefix", handle.Path)
	}
	if !exists(handle.Path) {
		t.Error("generated workbook was not stored")
	}
}

func TestGenerateRejectsMismatchedPayload(t *testing.T) {
	g, _ := newTestGenerator(t)

	e := &entity.Entity{
		ID:      3,
		Kind:    domainwf.KindTender,
		Payload: &entity.TenderPayload{Title: "Laptops"},
	}

	if _, err := g.Generate(context.Background(), "itinerary", e); err == nil {
		t.Error("an itinerary for a tender entity should fail")
	}
	if _, err := g.Generate(context.Background(), "petty_cash", e); err == nil {
		t.Error("an unknown template kind should fail")
	}
}

func TestGenerateAwardSheetAndPOForm(t *testing.T) {
	g, exists := newTestGenerator(t)
	ctx := context.Background()

	tender := &entity.Entity{
		ID:   11,
		Kind: domainwf.KindTender,
		Payload: &entity.TenderPayload{
			Title:           "Supply of office laptops",
			Category:        "IT equipment",
			Deadline:        time.Now(),
			AwardedVendorID: "4",
		},
	}
	handle, err := g.Generate(ctx, "award_sheet", tender)
	if err != nil {
		t.Fatalf("Generate(award_sheet) unexpected error: %v", err)
	}
	if !strings.HasPrefix(handle.Number, "AWD-") {
		t.Errorf("award sheet number = %q, want AWD- prefix", handle.Number)
	}
	if !exists(handle.Path) {
		t.Error("award sheet was not stored")
	}

	po := &entity.Entity{
		ID:   12,
		Kind: domainwf.KindPurchaseOrder,
		Payload: &entity.PurchaseOrderPayload{
			VendorID:        "4",
			AmountCents:     12_500_000,
			Currency:        "MWK",
			DeliveryAddress: "Area 14, Lilongwe",
		},
	}
	handle, err = g.Generate(ctx, "purchase_order", po)
	if err != nil {
		t.Fatalf("Generate(purchase_order) unexpected error: %v", err)
	}
	if !strings.HasPrefix(handle.Number, "PO-") {
		t.Errorf("PO form number = %q, want PO- prefix", handle.Number)
	}
	if !exists(handle.Path) {
		t.Error("PO form was not stored")
	}
}
