package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/orchestrator"
	appwf "github.com/ningi265/hrms-client-sub001/internal/application/workflow"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	executor       *appwf.Executor
	requisitions   *orchestrator.RequisitionOrchestrator
	travel         *orchestrator.TravelOrchestrator
	tenders        *orchestrator.TenderOrchestrator
	purchaseOrders *orchestrator.PurchaseOrderOrchestrator
	invoices       *orchestrator.InvoiceOrchestrator
	vendors        *orchestrator.VendorOrchestrator
	logger         *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	executor *appwf.Executor,
	requisitions *orchestrator.RequisitionOrchestrator,
	travel *orchestrator.TravelOrchestrator,
	tenders *orchestrator.TenderOrchestrator,
	purchaseOrders *orchestrator.PurchaseOrderOrchestrator,
	invoices *orchestrator.InvoiceOrchestrator,
	vendors *orchestrator.VendorOrchestrator,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		executor:       executor,
		requisitions:   requisitions,
		travel:         travel,
		tenders:        tenders,
		purchaseOrders: purchaseOrders,
		invoices:       invoices,
		vendors:        vendors,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// GetEntity handles GET /api/v1/entities/:id
func (h *Handlers) GetEntity(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}

	e, err := h.executor.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: e})
}

// GetEntityHistory handles GET /api/v1/entities/:id/history
func (h *Handlers) GetEntityHistory(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}

	records, err := h.executor.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// ReplayEntity handles GET /api/v1/entities/:id/replay. It reconstructs the
// state from history and reports whether it matches the stored row.
func (h *Handlers) ReplayEntity(c *gin.Context) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}

	e, err := h.executor.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	replayed, err := h.executor.Replay(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"stored_state":   e.State,
			"replayed_state": replayed,
			"consistent":     e.State == replayed,
		},
	})
}

// CreateRequisition handles POST /api/v1/requisitions
func (h *Handlers) CreateRequisition(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var p entity.RequisitionPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid requisition payload")
		return
	}

	e, err := h.requisitions.Create(c.Request.Context(), actor.ID, &p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: e})
}

// ListPendingRequisitions handles GET /api/v1/requisitions/pending
func (h *Handlers) ListPendingRequisitions(c *gin.Context) {
	limit, offset := h.pagination(c)
	entities, err := h.requisitions.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entities})
}

// ApproveRequisition handles POST /api/v1/requisitions/:id/approve
func (h *Handlers) ApproveRequisition(c *gin.Context) {
	h.action(c, h.requisitions.Approve)
}

// RejectRequisition handles POST /api/v1/requisitions/:id/reject
func (h *Handlers) RejectRequisition(c *gin.Context) {
	h.action(c, h.requisitions.Reject)
}

// CancelRequisition handles POST /api/v1/requisitions/:id/cancel
func (h *Handlers) CancelRequisition(c *gin.Context) {
	h.action(c, h.requisitions.Cancel)
}

// CreateTravelRequest handles POST /api/v1/travel-requests
func (h *Handlers) CreateTravelRequest(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var p entity.TravelRequestPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid travel request payload")
		return
	}

	e, err := h.travel.Create(c.Request.Context(), actor.ID, &p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: e})
}

// TravelSupervisorApprove handles POST /api/v1/travel-requests/:id/supervisor-approve
func (h *Handlers) TravelSupervisorApprove(c *gin.Context) {
	h.action(c, h.travel.SupervisorApprove)
}

// TravelSupervisorReject handles POST /api/v1/travel-requests/:id/supervisor-reject
func (h *Handlers) TravelSupervisorReject(c *gin.Context) {
	h.action(c, h.travel.SupervisorReject)
}

// TravelFinalApprove handles POST /api/v1/travel-requests/:id/final-approve
func (h *Handlers) TravelFinalApprove(c *gin.Context) {
	h.action(c, h.travel.FinalApprove)
}

// TravelFinalReject handles POST /api/v1/travel-requests/:id/final-reject
func (h *Handlers) TravelFinalReject(c *gin.Context) {
	h.action(c, h.travel.FinalReject)
}

// TravelSubmitToFinance handles POST /api/v1/travel-requests/:id/submit-to-finance
func (h *Handlers) TravelSubmitToFinance(c *gin.Context) {
	h.action(c, h.travel.SubmitToFinance)
}

// TravelFinanceClear handles POST /api/v1/travel-requests/:id/finance-clear
func (h *Handlers) TravelFinanceClear(c *gin.Context) {
	h.action(c, h.travel.FinanceClear)
}

// TravelRequestDriver handles POST /api/v1/travel-requests/:id/request-driver
func (h *Handlers) TravelRequestDriver(c *gin.Context) {
	h.action(c, h.travel.RequestDriver)
}

// TravelAssignDriver handles POST /api/v1/travel-requests/:id/assign-driver
func (h *Handlers) TravelAssignDriver(c *gin.Context) {
	var body struct {
		DriverID string `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "driver_id is required")
		return
	}
	h.action(c, func(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
		return h.travel.AssignDriver(ctx, id, actor, body.DriverID)
	})
}

// TravelRequestFlight handles POST /api/v1/travel-requests/:id/request-flight
func (h *Handlers) TravelRequestFlight(c *gin.Context) {
	h.action(c, h.travel.RequestFlight)
}

// TravelBookFlight handles POST /api/v1/travel-requests/:id/book-flight
func (h *Handlers) TravelBookFlight(c *gin.Context) {
	var body struct {
		FlightReference string `json:"flight_reference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "flight_reference is required")
		return
	}
	h.action(c, func(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
		return h.travel.BookFlight(ctx, id, actor, body.FlightReference)
	})
}

// TravelBeginNotifications handles POST /api/v1/travel-requests/:id/begin-notifications
func (h *Handlers) TravelBeginNotifications(c *gin.Context) {
	h.action(c, h.travel.BeginNotifications)
}

// TravelCancel handles POST /api/v1/travel-requests/:id/cancel
func (h *Handlers) TravelCancel(c *gin.Context) {
	h.action(c, h.travel.Cancel)
}

// ListTravelRequests handles GET /api/v1/travel-requests?state=
func (h *Handlers) ListTravelRequests(c *gin.Context) {
	state, ok := h.stateFilter(c)
	if !ok {
		return
	}
	limit, offset := h.pagination(c)
	entities, err := h.travel.ListByState(c.Request.Context(), state, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entities})
}

// CreateTender handles POST /api/v1/tenders. A requisition_id links the
// tender to an approved requisition.
func (h *Handlers) CreateTender(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var p entity.TenderPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid tender payload")
		return
	}

	var e *entity.Entity
	var err error
	if p.RequisitionID > 0 {
		e, err = h.tenders.CreateFromRequisition(c.Request.Context(), actor.ID, p.RequisitionID, &p)
	} else {
		e, err = h.tenders.Create(c.Request.Context(), actor.ID, &p)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: e})
}

// ListOpenTenders handles GET /api/v1/tenders/open
func (h *Handlers) ListOpenTenders(c *gin.Context) {
	limit, offset := h.pagination(c)
	entities, err := h.tenders.ListOpen(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entities})
}

// OpenTender handles POST /api/v1/tenders/:id/open
func (h *Handlers) OpenTender(c *gin.Context) {
	h.action(c, h.tenders.Open)
}

// CloseTender handles POST /api/v1/tenders/:id/close
func (h *Handlers) CloseTender(c *gin.Context) {
	h.action(c, h.tenders.Close)
}

// StartTenderReview handles POST /api/v1/tenders/:id/start-review
func (h *Handlers) StartTenderReview(c *gin.Context) {
	h.action(c, h.tenders.StartReview)
}

// AwardTender handles POST /api/v1/tenders/:id/award
func (h *Handlers) AwardTender(c *gin.Context) {
	var body struct {
		VendorID string `json:"vendor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "vendor_id is required")
		return
	}
	h.action(c, func(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
		return h.tenders.Award(ctx, id, actor, body.VendorID)
	})
}

// CancelTender handles POST /api/v1/tenders/:id/cancel
func (h *Handlers) CancelTender(c *gin.Context) {
	h.action(c, h.tenders.Cancel)
}

// IssuePurchaseOrder handles POST /api/v1/purchase-orders. A tender_id issues
// the order to the tender's awarded vendor.
func (h *Handlers) IssuePurchaseOrder(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var body struct {
		entity.PurchaseOrderPayload
		TenderID int64 `json:"tender_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid purchase order payload")
		return
	}

	var e *entity.Entity
	var err error
	if body.TenderID > 0 {
		e, err = h.purchaseOrders.IssueFromTender(c.Request.Context(), actor.ID, body.TenderID, &body.PurchaseOrderPayload)
	} else {
		e, err = h.purchaseOrders.Issue(c.Request.Context(), actor.ID, &body.PurchaseOrderPayload)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: e})
}

// MarkPODelivered handles POST /api/v1/purchase-orders/:id/mark-delivered
func (h *Handlers) MarkPODelivered(c *gin.Context) {
	h.action(c, h.purchaseOrders.MarkDelivered)
}

// ConfirmPODelivery handles POST /api/v1/purchase-orders/:id/confirm-delivery
func (h *Handlers) ConfirmPODelivery(c *gin.Context) {
	var body struct {
		ProofOfDelivery string `json:"proof_of_delivery" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "proof_of_delivery is required")
		return
	}
	h.action(c, func(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
		return h.purchaseOrders.ConfirmDelivery(ctx, id, actor, body.ProofOfDelivery)
	})
}

// CancelPurchaseOrder handles POST /api/v1/purchase-orders/:id/cancel
func (h *Handlers) CancelPurchaseOrder(c *gin.Context) {
	h.action(c, h.purchaseOrders.Cancel)
}

// ListPurchaseOrders handles GET /api/v1/purchase-orders?state=
func (h *Handlers) ListPurchaseOrders(c *gin.Context) {
	state, ok := h.stateFilter(c)
	if !ok {
		return
	}
	limit, offset := h.pagination(c)
	entities, err := h.purchaseOrders.ListByState(c.Request.Context(), state, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entities})
}

// SubmitInvoice handles POST /api/v1/invoices
func (h *Handlers) SubmitInvoice(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var p entity.InvoicePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid invoice payload")
		return
	}

	e, err := h.invoices.Submit(c.Request.Context(), actor.ID, &p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: e})
}

// ApproveInvoice handles POST /api/v1/invoices/:id/approve
func (h *Handlers) ApproveInvoice(c *gin.Context) {
	h.action(c, h.invoices.Approve)
}

// RejectInvoice handles POST /api/v1/invoices/:id/reject
func (h *Handlers) RejectInvoice(c *gin.Context) {
	h.action(c, h.invoices.Reject)
}

// MarkInvoicePaid handles POST /api/v1/invoices/:id/mark-paid
func (h *Handlers) MarkInvoicePaid(c *gin.Context) {
	h.action(c, h.invoices.MarkPaid)
}

// ListInvoices handles GET /api/v1/invoices?state=
func (h *Handlers) ListInvoices(c *gin.Context) {
	state, ok := h.stateFilter(c)
	if !ok {
		return
	}
	limit, offset := h.pagination(c)
	entities, err := h.invoices.ListByState(c.Request.Context(), state, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entities})
}

// RegisterVendor handles POST /api/v1/vendors
func (h *Handlers) RegisterVendor(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var p entity.VendorRegistrationPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid vendor registration payload")
		return
	}

	e, err := h.vendors.Register(c.Request.Context(), actor.ID, &p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: e})
}

// ListPendingVendors handles GET /api/v1/vendors/pending
func (h *Handlers) ListPendingVendors(c *gin.Context) {
	limit, offset := h.pagination(c)
	entities, err := h.vendors.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entities})
}

// ApproveVendor handles POST /api/v1/vendors/:id/approve
func (h *Handlers) ApproveVendor(c *gin.Context) {
	h.action(c, h.vendors.Approve)
}

// RejectVendor handles POST /api/v1/vendors/:id/reject
func (h *Handlers) RejectVendor(c *gin.Context) {
	h.action(c, h.vendors.Reject)
}

type actionFunc func(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error)

// action runs the common shape of every transition endpoint: parse ID,
// extract actor, invoke, map error
func (h *Handlers) action(c *gin.Context, fn actionFunc) {
	id, ok := h.entityID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	e, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: e})
}

func (h *Handlers) entityID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, "invalid entity ID")
		return 0, false
	}
	return id, true
}

// actor reads the acting identity from headers. Authentication itself is
// owned by the gateway in front of this service; the engine trusts the
// forwarded identity and enforces only workflow-level role permissions.
func (h *Handlers) actor(c *gin.Context) (domainwf.Actor, bool) {
	actorID := c.GetHeader("X-Actor-ID")
	role := c.GetHeader("X-Actor-Role")
	if actorID == "" || role == "" {
		h.badRequest(c, "X-Actor-ID and X-Actor-Role headers are required")
		return domainwf.Actor{}, false
	}
	return domainwf.Actor{ID: actorID, Role: domainwf.Role(role)}, true
}

// stateFilter reads the required state query parameter for list endpoints
func (h *Handlers) stateFilter(c *gin.Context) (domainwf.State, bool) {
	state := c.Query("state")
	if state == "" {
		h.badRequest(c, "state query parameter is required")
		return "", false
	}
	return domainwf.State(state), true
}

func (h *Handlers) pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// respondError maps workflow errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domainwf.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domainwf.ErrInvalidTransition),
		errors.Is(err, domainwf.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, domainwf.ErrGuardFailed),
		errors.Is(err, domainwf.ErrExpiredDeadline):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domainwf.ErrUnknownKind),
		errors.Is(err, domainwf.ErrInvalidState):
		status = http.StatusBadRequest
	case strings.Contains(err.Error(), "not found"):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}
