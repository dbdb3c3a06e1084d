package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"inspection_server/server/common/transport/httpresp"
)

func (h *Handler) getDashboard(c *gin.Context) {
	year, month := yearMonthOrNow(c)
	companyID, ok := optionalCompany(c)
	if !ok {
		return
	}
	tasks, err := h.dashboard.Dashboard(c.Request.Context(), year, month, companyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "tasks": tasks})
}

func (h *Handler) getMonthStats(c *gin.Context) {
	year, _ := yearMonthOrNow(c)
	companyID, ok := optionalCompany(c)
	if !ok {
		return
	}
	stats, err := h.dashboard.MonthStats(c.Request.Context(), year, companyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "months": stats})
}

func (h *Handler) getMonthlyReport(c *gin.Context) {
	raw := c.Query("company")
	if raw == "" {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("company is required"))
		return
	}
	companyID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("company must be an integer"))
		return
	}
	year, month := yearMonthOrNow(c)
	report, err := h.reports.ComposeMonthly(c.Request.Context(), companyID, year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func optionalCompany(c *gin.Context) (*int64, bool) {
	raw := c.Query("company")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("company must be an integer"))
		return nil, false
	}
	return &id, true
}
