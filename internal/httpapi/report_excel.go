package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"wisefido-sleep-analyzer/internal/engine"
	"wisefido-sleep-analyzer/internal/models"
)

// handleExport 导出睡眠分析 Excel 报告
func (h *AnalysisHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	algorithm := r.URL.Query().Get("algorithm")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("session_id is required"))
		return
	}
	if algorithm == "" {
		algorithm = engine.AlgorithmThreshold
	}

	record, err := h.service.GetAnalysis(r.Context(), sessionID, algorithm)
	if err != nil {
		h.logger.Error("Failed to query analysis for export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	if record == nil || record.ProcessingStatus != models.StatusCompleted {
		writeJSON(w, http.StatusNotFound, Fail("completed analysis not found"))
		return
	}

	var summary models.SleepSummary
	if err := json.Unmarshal(record.Result, &summary); err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail("failed to parse analysis result"))
		return
	}

	file, err := buildSummaryWorkbook(sessionID, &summary)
	if err != nil {
		h.logger.Error("Failed to build export workbook", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("sleep_report_%s_%s.xlsx", sessionID, algorithm)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := file.Write(w); err != nil {
		h.logger.Error("Failed to write export workbook", zap.Error(err))
	}
}

// buildSummaryWorkbook 生成汇总工作簿
func buildSummaryWorkbook(sessionID string, summary *models.SleepSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Sleep Report"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Session", sessionID},
		{"Algorithm", summary.AlgorithmUsed},
		{"Sleep Onset", derefString(summary.SleepOnset)},
		{"Wake Time", derefString(summary.WakeTime)},
		{"Total Sleep Time (min)", summary.TotalSleepTimeMinutes},
		{"Time In Bed (min)", summary.TimeInBedMinutes},
		{"Sleep Efficiency (%)", summary.SleepEfficiencyPercent},
		{"Sleep Onset Latency (min)", derefFloat(summary.SleepOnsetLatencyMinutes)},
		{"WASO (min)", derefFloat(summary.WakeAfterSleepOnsetMin)},
		{"Awakenings", summary.NumberOfAwakenings},
		{"Awakening Index (/h)", summary.AwakeningIndex},
	}
	if summary.MovementMetrics != nil {
		rows = append(rows,
			[]interface{}{"Avg Activity", summary.MovementMetrics.AvgActivity},
			[]interface{}{"Activity Std", summary.MovementMetrics.ActivityStd},
		)
	}
	if summary.HRMetrics != nil {
		rows = append(rows,
			[]interface{}{"Avg HR (bpm)", summary.HRMetrics.AvgHR},
			[]interface{}{"Min HR (bpm)", summary.HRMetrics.MinHR},
			[]interface{}{"Max HR (bpm)", summary.HRMetrics.MaxHR},
		)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "B", 24); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	return f, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}
