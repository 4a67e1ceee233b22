package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatehouse/internal/gate"
	"gatehouse/internal/gate/metrics"
	"gatehouse/internal/gate/ports"
	"gatehouse/internal/gate/session"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/requestcontext"
)

// ApprovalService defines the approval workflow operations the handler needs.
type ApprovalService interface {
	Submit(ctx context.Context, workOrderID, requestedByUserID, reason string) (gate.ApprovalRecord, error)
	Decide(ctx context.Context, workOrderID, approvalID, decidedByUserID string, approve bool) error
}

// Handler wires gate endpoints to the engine, the fact collectors, and the
// approval workflow.
type Handler struct {
	collectors          ports.Collectors
	approvals           ApprovalService
	sessions            *session.Manager
	preventSelfApproval bool
	fetchTimeout        time.Duration
	logger              *slog.Logger
	metrics             *metrics.Metrics
}

// New constructs a gate handler with its dependencies.
func New(collectors ports.Collectors, approvals ApprovalService, sessions *session.Manager, preventSelfApproval bool, fetchTimeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		collectors:          collectors,
		approvals:           approvals,
		sessions:            sessions,
		preventSelfApproval: preventSelfApproval,
		fetchTimeout:        fetchTimeout,
		logger:              logger,
		metrics:             m,
	}
}

// Register mounts gate endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/gates", h.HandleCatalog)
	r.Get("/gates/{gateID}", h.HandleGateDefinition)
	r.Post("/gates/evaluate", h.HandleEvaluate)
	r.Get("/workorders/{workOrderID}/gates", h.HandleWorkOrderGates)
	r.Get("/workorders/{workOrderID}/gates/status", h.HandleGateStatus)
	r.Get("/workorders/{workOrderID}/gates/actions/{action}", h.HandleActionQuery)
	r.Post("/approvals/sod-check", h.HandleSoDCheck)
	r.Post("/workorders/{workOrderID}/approvals", h.HandleSubmitApproval)
	r.Post("/workorders/{workOrderID}/approvals/{approvalID}/decision", h.HandleDecideApproval)
}

// HandleCatalog lists every gate definition.
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r.Context()); !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, gate.Catalog())
}

// HandleGateDefinition returns the catalog metadata for one gate id.
func (h *Handler) HandleGateDefinition(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r.Context()); !ok {
		return
	}
	id, err := gate.ParseGateID(chi.URLParam(r, "gateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	def, _ := gate.Definition(id)
	httputil.WriteJSON(w, http.StatusOK, def)
}

// HandleGateStatus serves the dashboard polling path: the auto-refreshing
// session for the (work order, user, step) tuple answers from its cached
// result instead of gathering facts per request.
func (h *Handler) HandleGateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	workOrderID := chi.URLParam(r, "workOrderID")
	step := gate.StepID(r.URL.Query().Get("step"))

	sess := h.sessions.Session(workOrderID, userID, step)
	resp := GateStatusResponse{
		State:           string(sess.State()),
		Degraded:        sess.Degraded(),
		UnknownFamilies: sess.UnknownFamilies(),
	}
	if result := sess.Result(); result != nil {
		resp.Result = FromResult(result, resp.UnknownFamilies)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleEvaluate evaluates an explicit snapshot supplied by the caller.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result := gate.Evaluate(req.Input(userID))
	h.observe(result)

	h.logger.InfoContext(ctx, "snapshot evaluated",
		"request_id", requestID,
		"work_order_id", req.WorkOrderID,
		"user_id", userID,
		"all_passed", result.AllPassed,
		"active_gates", len(result.ActiveGates),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result, nil))
}

// HandleWorkOrderGates gathers the current facts for a work order and
// evaluates them.
func (h *Handler) HandleWorkOrderGates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	workOrderID := chi.URLParam(r, "workOrderID")

	result, unknown := h.evaluateWorkOrder(ctx, workOrderID, userID, gate.StepID(r.URL.Query().Get("step")))
	httputil.WriteJSON(w, http.StatusOK, FromResult(result, unknown))
}

// HandleActionQuery answers whether one action is currently allowed for a
// work order. Unrecognized action names are reported allowed with no reasons.
func (h *Handler) HandleActionQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	workOrderID := chi.URLParam(r, "workOrderID")
	action := gate.BlockedAction(chi.URLParam(r, "action"))

	result, _ := h.evaluateWorkOrder(ctx, workOrderID, userID, gate.StepID(r.URL.Query().Get("step")))
	httputil.WriteJSON(w, http.StatusOK, ActionResponse{
		Action:     string(action),
		CanPerform: result.CanPerformAction(action),
		Reasons:    result.BlockingReasons(action),
	})
}

// HandleSoDCheck runs the standalone separation-of-duties check at approval
// submission time, before any approval record exists.
func (h *Handler) HandleSoDCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SoDCheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision := gate.CheckSoDForApproval(req.RequestedByUserID, userID, h.preventSelfApproval)
	httputil.WriteJSON(w, http.StatusOK, SoDCheckResponse{
		Allowed: decision.Allowed,
		Reason:  decision.Reason,
	})
}

// HandleSubmitApproval raises an approval request on behalf of the
// authenticated user.
func (h *Handler) HandleSubmitApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	workOrderID := chi.URLParam(r, "workOrderID")

	req, ok := httputil.DecodeAndPrepare[SubmitApprovalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.approvals.Submit(ctx, workOrderID, userID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "approval submission failed",
			"request_id", requestID,
			"work_order_id", workOrderID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ApprovalResponse{
		ID:                record.ID,
		WorkOrderID:       workOrderID,
		RequestedByUserID: record.RequestedByUserID,
		Status:            string(record.Status),
		Reason:            record.Reason,
	})
}

// HandleDecideApproval approves or rejects a pending request; the SoD rule is
// enforced by the approval service.
func (h *Handler) HandleDecideApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	workOrderID := chi.URLParam(r, "workOrderID")
	approvalID := chi.URLParam(r, "approvalID")

	req, ok := httputil.DecodeAndPrepare[DecideApprovalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.approvals.Decide(ctx, workOrderID, approvalID, userID, *req.Approve); err != nil {
		h.logger.WarnContext(ctx, "approval decision rejected",
			"request_id", requestID,
			"work_order_id", workOrderID,
			"approval_id", approvalID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireUser(w http.ResponseWriter, ctx context.Context) (string, bool) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return userID, true
}

// evaluateWorkOrder runs one gather-then-evaluate round over the configured
// collectors.
func (h *Handler) evaluateWorkOrder(ctx context.Context, workOrderID, userID string, step gate.StepID) (*gate.CheckResult, []string) {
	ctx, cancel := context.WithTimeout(ctx, h.fetchTimeout)
	defer cancel()

	snap := session.Gather(ctx, h.collectors, workOrderID, h.metrics, h.logger)
	snap.Input.CurrentUserID = userID
	snap.Input.CurrentStep = step

	result := gate.Evaluate(snap.Input)
	h.observe(result)
	return result, snap.Unknown
}

func (h *Handler) observe(result *gate.CheckResult) {
	if result.AllPassed {
		h.metrics.IncrementOutcome("passed")
		return
	}
	h.metrics.IncrementOutcome("blocked")
	for _, g := range result.ActiveGates {
		h.metrics.IncrementActiveGate(string(g.ID))
	}
}
