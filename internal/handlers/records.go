package handlers

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clinical-lookup/internal/models"
	"clinical-lookup/internal/records"
	"clinical-lookup/internal/utils"
)

// MinQueryLength is the shortest query the search endpoint runs.
const MinQueryLength = 2

// RecordsHandler serves the read-only lookup endpoints.
type RecordsHandler struct {
	Store models.RecordStore
	Log   zerolog.Logger
}

// NewRecordsHandler creates a new RecordsHandler.
func NewRecordsHandler(store models.RecordStore, log zerolog.Logger) *RecordsHandler {
	return &RecordsHandler{Store: store, Log: log}
}

// Search finds patients by name or identifier. Queries shorter than
// MinQueryLength return an empty list.
func (h *RecordsHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	out := make([]records.PatientSummary, 0)
	if utf8.RuneCountInString(q) < MinQueryLength {
		utils.Success(c, "Patients retrieved successfully", out)
		return
	}

	patients, err := h.Store.SearchPatients(c.Request.Context(), q, models.SearchLimit)
	if err != nil {
		h.fail(c, "search", err)
		return
	}
	for i := range patients {
		out = append(out, patients[i].ToSummary())
	}
	utils.Success(c, "Patients retrieved successfully", out)
}

// History returns a patient with their orders and results.
func (h *RecordsHandler) History(c *gin.Context) {
	id, ok := parseID(c, "patientId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	patient, err := h.Store.FindPatient(ctx, id)
	if err != nil {
		h.fail(c, "history", err)
		return
	}
	orders, lineCounts, err := h.Store.ListOrders(ctx, id)
	if err != nil {
		h.fail(c, "history", err)
		return
	}
	results, err := h.Store.ListResults(ctx, id)
	if err != nil {
		h.fail(c, "history", err)
		return
	}

	history := records.PatientHistory{
		Patient: patient.ToRecord(),
		Orders:  make([]records.OrderSummary, 0, len(orders)),
		Results: make([]records.ResultSummary, 0, len(results)),
		Counts:  records.Counts{Orders: len(orders), Results: len(results)},
	}
	for i := range orders {
		history.Orders = append(history.Orders, orders[i].ToSummary(lineCounts[orders[i].ID]))
	}
	for i := range results {
		history.Results = append(history.Results, results[i].ToSummary())
	}
	utils.Success(c, "History retrieved successfully", history)
}

// Order returns an order with its line items.
func (h *RecordsHandler) Order(c *gin.Context) {
	id, ok := parseID(c, "orderId")
	if !ok {
		return
	}
	order, err := h.Store.FindOrder(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "order", err)
		return
	}
	utils.Success(c, "Order retrieved successfully", order.ToDetail())
}

// Result returns a result with its values.
func (h *RecordsHandler) Result(c *gin.Context) {
	id, ok := parseID(c, "resultId")
	if !ok {
		return
	}
	result, err := h.Store.FindResult(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "result", err)
		return
	}
	utils.Success(c, "Result retrieved successfully", result.ToDetail())
}

func (h *RecordsHandler) fail(c *gin.Context, op string, err error) {
	if errors.Is(err, models.ErrNotFound) {
		utils.NotFound(c, op+" not found")
		return
	}
	h.Log.Error().Err(err).Str("op", op).Msg("records query failed")
	utils.InternalServerError(c, "Database error")
}

func parseID(c *gin.Context, param string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || n == 0 {
		utils.BadRequest(c, "Invalid "+param)
		return 0, false
	}
	return uint(n), true
}
