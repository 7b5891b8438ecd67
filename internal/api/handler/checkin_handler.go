package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
)

// ScanDispatcher is the interface the handler uses to enqueue scans.
type ScanDispatcher interface {
	Enqueue(scan ports.ScanInput) error
	EnqueueBatch(scans []ports.ScanInput) (int, error)
}

// CheckinHandler handles QR scans from the check-in desk.
type CheckinHandler struct {
	service    ports.CheckinService
	dispatcher ScanDispatcher
}

func NewCheckinHandler(service ports.CheckinService, dispatcher ScanDispatcher) *CheckinHandler {
	return &CheckinHandler{service: service, dispatcher: dispatcher}
}

// Scan handles POST /v1/checkins and applies the scan before answering.
//
// @Summary      Record a scan
// @Tags         checkins
// @Accept       json
// @Produce      json
// @Security     Session
// @Param        body  body      scanRequest  true  "Scanned code"
// @Success      200   {object}  ports.CheckinResult
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/checkins [post]
func (h *CheckinHandler) Scan(c echo.Context) error {
	operator, _, err := ctxOperator(c)
	if err != nil {
		return err
	}

	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.service.Scan(c.Request().Context(), toScanInput(req, operator))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// ScanBatch handles POST /v1/checkins/batch: a burst of scans queued for the
// workers, returns 202.
//
// @Summary      Queue a batch of scans
// @Tags         checkins
// @Accept       json
// @Produce      json
// @Security     Session
// @Param        body  body      []scanRequest  true  "Scanned codes"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/checkins/batch [post]
func (h *CheckinHandler) ScanBatch(c echo.Context) error {
	operator, _, err := ctxOperator(c)
	if err != nil {
		return err
	}

	var reqs []scanRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}

	scans := make([]ports.ScanInput, 0, len(reqs))
	for i, req := range reqs {
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("scan[%d]: %v", i, errMessage(err)))
		}
		scans = append(scans, toScanInput(req, operator))
	}

	queued, err := h.dispatcher.EnqueueBatch(scans)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable,
			fmt.Sprintf("%d of %d scans queued: %v", queued, len(scans), err))
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "scans accepted", Count: queued})
}

func toScanInput(req scanRequest, operator string) ports.ScanInput {
	return ports.ScanInput{
		Code:     req.Code,
		Day:      req.Day,
		Turn:     domain.Turn(req.Turn),
		Operator: operator,
	}
}

func errMessage(err error) any {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Message
	}
	return err.Error()
}
