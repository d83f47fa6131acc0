package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/northbridgehealth/voice-agent/pkg/logging"
)

// ToolCallEvent is the webhook payload the voice platform sends when the
// assistant's LLM invokes one of our scheduling tools mid-call.
type ToolCallEvent struct {
	// ConversationID groups tool calls within a single phone call.
	ConversationID string `json:"conversation_id,omitempty"`
	// ToolCallID is unique per invocation; it must be echoed back so the
	// platform can correlate the result.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolName selects the scheduling tool.
	ToolName string `json:"tool_name"`
	// Arguments carries the tool's named string arguments.
	Arguments map[string]string `json:"arguments,omitempty"`
}

// ToolCallResponse is the JSON body returned to the voice platform. Result
// is handed back to the assistant's LLM verbatim.
type ToolCallResponse struct {
	ToolCallID string         `json:"tool_call_id"`
	Result     map[string]any `json:"result"`
}

type toolCallError struct {
	ToolCallID string `json:"tool_call_id,omitempty"`
	Error      string `json:"error"`
}

// toolDispatcher routes a named tool call to its implementation.
type toolDispatcher interface {
	Dispatch(ctx context.Context, toolName string, args map[string]string) map[string]any
}

// fillerControl arms and resolves hold phrases around a tool call.
type fillerControl interface {
	Begin(callID, toolName string)
	Resolve(callID string)
}

// healthChecker reports whether the EHR behind the tools is reachable.
type healthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// VoiceToolsHandler handles tool-call webhooks from the voice platform and
// the health endpoint.
type VoiceToolsHandler struct {
	tools   toolDispatcher
	fillers fillerControl
	health  healthChecker
	logger  *logging.Logger
}

// VoiceToolsHandlerConfig configures the VoiceToolsHandler. Fillers is
// optional.
type VoiceToolsHandlerConfig struct {
	Tools   toolDispatcher
	Fillers fillerControl
	Health  healthChecker
	Logger  *logging.Logger
}

// NewVoiceToolsHandler creates a new VoiceToolsHandler.
func NewVoiceToolsHandler(cfg VoiceToolsHandlerConfig) *VoiceToolsHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &VoiceToolsHandler{
		tools:   cfg.Tools,
		fillers: cfg.Fillers,
		health:  cfg.Health,
		logger:  cfg.Logger.Component("voice-tools"),
	}
}

// RegisterRoutes mounts the handler's endpoints on r.
func (h *VoiceToolsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/voice/tool-calls", h.HandleToolCall)
	r.Get("/healthz", h.HandleHealth)
}

// HandleToolCall is the HTTP handler for POST /webhooks/voice/tool-calls.
func (h *VoiceToolsHandler) HandleToolCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Error("failed to read body", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var event ToolCallEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("failed to parse event", "error", err)
		h.writeJSON(w, http.StatusBadRequest, toolCallError{Error: "malformed tool call event"})
		return
	}
	if event.ToolName == "" {
		h.writeJSON(w, http.StatusBadRequest, toolCallError{
			ToolCallID: event.ToolCallID,
			Error:      "tool_name is required",
		})
		return
	}

	// Some platforms omit the call id on retries; mint one so the filler
	// bookkeeping and logs still line up.
	toolCallID := event.ToolCallID
	if toolCallID == "" {
		toolCallID = uuid.NewString()
	}

	h.logger.Info("received tool call",
		"tool_name", event.ToolName,
		"tool_call_id", toolCallID,
		"conversation_id", event.ConversationID,
	)

	if h.fillers != nil {
		h.fillers.Begin(toolCallID, event.ToolName)
		defer h.fillers.Resolve(toolCallID)
	}

	result := h.tools.Dispatch(ctx, event.ToolName, event.Arguments)
	h.writeJSON(w, http.StatusOK, ToolCallResponse{
		ToolCallID: toolCallID,
		Result:     result,
	})
}

// HandleHealth is the HTTP handler for GET /healthz. It reports 503 when the
// EHR behind the tools is unreachable so the platform can route calls to a
// human.
func (h *VoiceToolsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil && !h.health.HealthCheck(r.Context()) {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"ehr":    "down",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"ehr":    "up",
	})
}

func (h *VoiceToolsHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
