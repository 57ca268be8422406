package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"wisefido-sleep-analyzer/internal/engine"
	"wisefido-sleep-analyzer/internal/service"
)

// AnalysisHandler 睡眠分析 HTTP 处理器
type AnalysisHandler struct {
	service *service.AnalysisService
	logger  *zap.Logger
}

// NewAnalysisHandler 创建处理器
func NewAnalysisHandler(svc *service.AnalysisService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{service: svc, logger: logger}
}

// RegisterRoutes 注册路由
func (h *AnalysisHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/sleep/", h.route)
	mux.HandleFunc("/health", h.handleHealth)
}

// route 按路径后缀分发
//
// POST /api/v1/sleep/analyze              阈值算法分析
// POST /api/v1/sleep/analyze/cole-kripke  Cole-Kripke 算法分析
// POST /api/v1/sleep/analyze/havok        HAVOK 节律分析
// GET  /api/v1/sleep/analysis             查询分析结果
// GET  /api/v1/sleep/export               导出 Excel 报告
func (h *AnalysisHandler) route(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/sleep/")

	switch {
	case path == "analyze" && r.Method == http.MethodPost:
		h.handleAnalyze(w, r, engine.AlgorithmThreshold)
	case path == "analyze/cole-kripke" && r.Method == http.MethodPost:
		h.handleAnalyze(w, r, engine.AlgorithmColeKripke)
	case path == "analyze/havok" && r.Method == http.MethodPost:
		h.handleRhythm(w, r)
	case path == "analysis" && r.Method == http.MethodGet:
		h.handleGetAnalysis(w, r)
	case path == "export" && r.Method == http.MethodGet:
		h.handleExport(w, r)
	default:
		writeJSON(w, http.StatusNotFound, Fail("not found"))
	}
}

// handleAnalyze 触发睡眠分类分析
func (h *AnalysisHandler) handleAnalyze(w http.ResponseWriter, r *http.Request, algorithm string) {
	tenantID := r.URL.Query().Get("tenant_id")
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("session_id is required"))
		return
	}

	outcome, err := h.service.AnalyzeSession(r.Context(), tenantID, sessionID, algorithm)
	if err != nil {
		h.logger.Warn("Sleep analysis request failed",
			zap.String("session_id", sessionID),
			zap.String("algorithm", algorithm),
			zap.Error(err),
		)
		writeJSON(w, analysisErrorStatus(err), Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(outcome))
}

// handleRhythm 触发节律分析
func (h *AnalysisHandler) handleRhythm(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("session_id is required"))
		return
	}

	outcome, err := h.service.AnalyzeRhythm(r.Context(), tenantID, sessionID)
	if err != nil {
		h.logger.Warn("Rhythm analysis request failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		writeJSON(w, analysisErrorStatus(err), Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(outcome))
}

// handleGetAnalysis 查询分析结果
func (h *AnalysisHandler) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
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
		h.logger.Error("Failed to query analysis", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	if record == nil {
		writeJSON(w, http.StatusNotFound, Fail("analysis not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(record))
}

// handleHealth 健康检查
func (h *AnalysisHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
}

// analysisErrorStatus 引擎数据类错误返回 422，其余 500
func analysisErrorStatus(err error) int {
	switch {
	case isEngineDataError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isEngineDataError(err error) bool {
	for _, target := range []error{
		engine.ErrInsufficientData,
		engine.ErrMissingSignal,
		engine.ErrNoSleepDetected,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
