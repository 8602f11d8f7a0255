package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"av-maintenance-backend/internal/report"
)

// EquipmentStatusReport handles GET /api/reports/equipment-status.
// ?format=json (default) | csv | xlsx.
func (h *Handler) EquipmentStatusReport(c *gin.Context) {
	facilityID, ok := queryInt64(c, "facility_id")
	if !ok {
		return
	}
	rep, err := h.reports.EquipmentStatus(c.Request.Context(), facilityID, time.Now())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	writeReport(c, rep, "equipment_status", "EquipmentStatus")
}

// MaintenanceSummaryReport handles GET /api/reports/maintenance-summary.
// ?format=json (default) | csv | xlsx, ?days_back=30.
func (h *Handler) MaintenanceSummaryReport(c *gin.Context) {
	facilityID, ok := queryInt64(c, "facility_id")
	if !ok {
		return
	}
	daysBack, ok := queryInt(c, "days_back", 30)
	if !ok {
		return
	}
	sum, err := h.reports.Summary(c.Request.Context(), facilityID, daysBack, time.Now())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	writeReport(c, sum, "maintenance_summary", "MaintenanceSummary")
}

// MonthlySummaryReport handles GET /api/reports/monthly-summary.
// ?month=&year= default to the current month; ?format=json | csv | xlsx.
func (h *Handler) MonthlySummaryReport(c *gin.Context) {
	now := time.Now()
	month, ok := queryInt(c, "month", int(now.Month()))
	if !ok {
		return
	}
	year, ok := queryInt(c, "year", now.Year())
	if !ok {
		return
	}
	if month < 1 || month > 12 {
		respondError(c, http.StatusBadRequest, "invalid month, expected 1-12")
		return
	}
	if year < 1 {
		respondError(c, http.StatusBadRequest, "invalid year")
		return
	}

	sum, err := h.reports.Monthly(c.Request.Context(), month, year, now)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	writeReport(c, sum, "monthly_summary", "MonthlySummary")
}

// writeReport renders a report in the requested format. The report must also
// be report.Tabular for the csv and xlsx formats.
func writeReport(c *gin.Context, rep any, filename, sheetName string) {
	switch c.DefaultQuery("format", "json") {
	case "json":
		respondOK(c, rep)
	case "csv":
		tab, ok := rep.(report.Tabular)
		if !ok {
			respondError(c, http.StatusInternalServerError, "report is not exportable")
			return
		}
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, tab); err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	case "xlsx":
		tab, ok := rep.(report.Tabular)
		if !ok {
			respondError(c, http.StatusInternalServerError, "report is not exportable")
			return
		}
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, sheetName, tab); err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	default:
		respondError(c, http.StatusBadRequest, "invalid format, expected json, csv or xlsx")
	}
}
