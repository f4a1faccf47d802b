package billing

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/healthsync/hms-client/internal/domain/ledger"
	"github.com/healthsync/hms-client/internal/platform/apiclient"
	"github.com/healthsync/hms-client/internal/platform/session"
	"github.com/healthsync/hms-client/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the billing console. api must already require a
// session.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – receptionist, patient (own bills only)
	readGroup := api.Group("", session.RequireUserType(session.UserTypeReceptionist, session.UserTypePatient))
	readGroup.GET("/bills", h.ListBills)
	readGroup.GET("/bills/:id", h.GetBill)

	// Write endpoints – receptionist
	writeGroup := api.Group("", session.RequireUserType(session.UserTypeReceptionist))
	writeGroup.DELETE("/bills/:id", h.DeleteBill)
	writeGroup.POST("/bills/:id/payments", h.RecordPayment)
	writeGroup.POST("/drafts", h.CreateDraft)
	writeGroup.GET("/drafts/:id", h.GetDraft)
	writeGroup.PATCH("/drafts/:id", h.UpdateDraft)
	writeGroup.DELETE("/drafts/:id", h.DiscardDraft)
	writeGroup.POST("/drafts/:id/items", h.AddItem)
	writeGroup.PATCH("/drafts/:id/items/:index", h.SetItemField)
	writeGroup.DELETE("/drafts/:id/items/:index", h.RemoveItem)
	writeGroup.POST("/drafts/:id/submit", h.SubmitDraft)
}

// httpError maps service errors onto console responses. The message is the
// one a user should see.
func httpError(err error, fallback string) error {
	msg := UserMessage(err, fallback)
	if msg == "" {
		msg = err.Error()
	}
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrExceedsBalance),
		errors.Is(err, ledger.ErrMissingPatient),
		errors.Is(err, ledger.ErrIncompleteLineItem),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, msg)
	case errors.Is(err, ErrItemOutOfRange):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRequestInFlight):
		return echo.NewHTTPError(http.StatusConflict, msg)
	case errors.Is(err, ErrDraftNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "draft not found")
	case apiclient.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	case apiclient.IsUnauthorized(err):
		return echo.NewHTTPError(http.StatusUnauthorized, msg)
	}
	return echo.NewHTTPError(http.StatusBadGateway, msg)
}

// -- Bill Handlers --

type billListResponse struct {
	*pagination.Response
	Outstanding decimal.Decimal `json:"outstanding"`
}

func (h *Handler) ListBills(c echo.Context) error {
	sess := session.FromContext(c)
	pg := pagination.FromContext(c)

	patientID := c.QueryParam("patient_id")
	if sess.Is(session.UserTypePatient) {
		patientID = sess.User.UserID
	}
	f, err := ParseFilter(c.QueryParam("filter"), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	bills, err := h.svc.ListBills(c.Request().Context(), sess, f)
	if err != nil {
		return httpError(err, "Failed to load bills")
	}
	return c.JSON(http.StatusOK, billListResponse{
		Response:    pagination.Slice(bills, pg),
		Outstanding: OutstandingTotal(bills),
	})
}

func (h *Handler) GetBill(c echo.Context) error {
	sess := session.FromContext(c)
	b, err := h.svc.GetBill(c.Request().Context(), sess, c.Param("id"))
	if err != nil {
		return httpError(err, "Failed to load bill")
	}
	if sess.Is(session.UserTypePatient) && b.PatientID != sess.User.UserID {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBill(c echo.Context) error {
	ack, err := h.svc.DeleteBill(c.Request().Context(), session.FromContext(c), c.Param("id"))
	if err != nil {
		return httpError(err, "Failed to delete bill")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": ack})
}

type paymentRequest struct {
	Amount string `json:"amount"`
}

func (h *Handler) RecordPayment(c echo.Context) error {
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Amount == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Please enter payment amount")
	}
	b, err := h.svc.RecordPayment(c.Request().Context(), session.FromContext(c), c.Param("id"), req.Amount)
	if err != nil {
		return httpError(err, "Failed to process payment")
	}
	return c.JSON(http.StatusOK, b)
}

// -- Draft Handlers --

type createDraftRequest struct {
	BillID string `json:"bill_id"`
}

func (h *Handler) CreateDraft(c echo.Context) error {
	var req createDraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var (
		d   *Draft
		err error
	)
	if req.BillID != "" {
		d, err = h.svc.EditBill(c.Request().Context(), session.FromContext(c), req.BillID)
	} else {
		d, err = h.svc.NewDraft()
	}
	if err != nil {
		return httpError(err, "Failed to load bill")
	}
	return c.JSON(http.StatusCreated, viewOf(d))
}

func (h *Handler) GetDraft(c echo.Context) error {
	d, err := h.svc.GetDraft(c.Param("id"))
	if err != nil {
		return httpError(err, "")
	}
	return c.JSON(http.StatusOK, viewOf(d))
}

func (h *Handler) UpdateDraft(c echo.Context) error {
	var upd DraftUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.UpdateDraft(c.Param("id"), upd)
	if err != nil {
		return httpError(err, "")
	}
	return c.JSON(http.StatusOK, viewOf(d))
}

func (h *Handler) DiscardDraft(c echo.Context) error {
	if err := h.svc.DiscardDraft(c.Param("id")); err != nil {
		return httpError(err, "")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddItem(c echo.Context) error {
	d, err := h.svc.AddItem(c.Param("id"))
	if err != nil {
		return httpError(err, "")
	}
	return c.JSON(http.StatusOK, viewOf(d))
}

type setFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) SetItemField(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid index")
	}
	var req setFieldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	field, err := ledger.ParseField(req.Field)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.SetItemField(c.Param("id"), index, field, req.Value)
	if err != nil {
		return httpError(err, "")
	}
	return c.JSON(http.StatusOK, viewOf(d))
}

func (h *Handler) RemoveItem(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid index")
	}
	d, err := h.svc.RemoveItem(c.Param("id"), index)
	if err != nil {
		return httpError(err, "")
	}
	return c.JSON(http.StatusOK, viewOf(d))
}

func (h *Handler) SubmitDraft(c echo.Context) error {
	b, err := h.svc.Submit(c.Request().Context(), session.FromContext(c), c.Param("id"))
	if err != nil {
		return httpError(err, "Failed to save bill")
	}
	return c.JSON(http.StatusOK, b)
}
