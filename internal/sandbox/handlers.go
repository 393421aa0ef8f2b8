package sandbox

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/storedesk/internal/auth"
	"github.com/charlesng35/storedesk/internal/middleware"
	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/internal/realtime"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
	"github.com/charlesng35/storedesk/pkg/response"
	appValidator "github.com/charlesng35/storedesk/pkg/validator"
)

// Handler exposes the Service over HTTP.
type Handler struct {
	service *Service
	jwt     *iauth.JWTService
	hub     *realtime.Hub
}

type loginRequest struct {
	StaffID string `json:"staff_id" validate:"notblank"`
	PIN     string `json:"pin" validate:"notblank"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	StoreID     string `json:"store_id,omitempty"`
}

type complaintStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress"`
}

type noteRequest struct {
	Content string `json:"content" validate:"notblank,max=2000"`
}

type resolveRequest struct {
	Compensation    string `json:"compensation" validate:"notblank,max=500"`
	ResolutionNotes string `json:"resolution_notes" validate:"max=2000"`
}

type createComplaintRequest struct {
	Customer    models.Customer  `json:"customer"`
	Store       models.StoreInfo `json:"store"`
	Type        string           `json:"complaint_type" validate:"notblank"`
	Description string           `json:"description" validate:"notblank,max=4000"`
	Severity    string           `json:"complaint_severity" validate:"omitempty,oneof=low medium high critical"`
}

type actionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed dismissed"`
}

type followupResolveRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type deviceRequest struct {
	Token    string `json:"token" validate:"notblank,max=256"`
	Platform string `json:"platform" validate:"required,oneof=ios android"`
}

type urgentResponse struct {
	Complaints []models.ComplaintWithActions `json:"complaints"`
}

// Health reports readiness.
func Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// Login exchanges a staff id and PIN for an access token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	caller, err := h.service.Authenticate(c.Request.Context(), req.StaffID, req.PIN)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:  caller.UserID,
		Name:    caller.Name,
		Role:    caller.Role,
		StoreID: caller.StoreID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, loginResponse{
		AccessToken: token,
		UserID:      caller.UserID,
		Name:        caller.Name,
		Role:        caller.Role,
		StoreID:     caller.StoreID,
	})
}

// ListComplaints handles GET /complaints.
func (h *Handler) ListComplaints(c *gin.Context) {
	filter := ComplaintFilter{
		Status:   models.ComplaintStatus(strings.TrimSpace(c.Query("status"))),
		Severity: models.Level(strings.TrimSpace(c.Query("severity"))),
		Page:     parseIntQuery(c, "page", 1),
		Limit:    parseIntQuery(c, "limit", defaultPageLimit),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.Error(c, apperrors.NewBadRequest("unknown status filter"))
		return
	}
	if filter.Severity != "" && !filter.Severity.Valid() {
		response.Error(c, apperrors.NewBadRequest("unknown severity filter"))
		return
	}

	items, hasMore, err := h.service.ListComplaints(c.Request.Context(), callerFrom(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, items, hasMore)
}

// CreateComplaint handles POST /complaints.
func (h *Handler) CreateComplaint(c *gin.Context) {
	var req createComplaintRequest
	if !bindAndValidate(c, &req) {
		return
	}

	view, err := h.service.CreateComplaint(c.Request.Context(), callerFrom(c), NewComplaint{
		Customer:    req.Customer,
		Store:       req.Store,
		Type:        req.Type,
		Description: req.Description,
		Severity:    models.Level(req.Severity),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// GetComplaint handles GET /complaints/:id.
func (h *Handler) GetComplaint(c *gin.Context) {
	view, err := h.service.GetComplaint(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// PatchComplaint handles PATCH /complaints/:id.
func (h *Handler) PatchComplaint(c *gin.Context) {
	var req complaintStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	view, err := h.service.UpdateComplaintStatus(c.Request.Context(), callerFrom(c), c.Param("id"), models.ComplaintStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// AddNote handles POST /complaints/:id/notes.
func (h *Handler) AddNote(c *gin.Context) {
	var req noteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	view, err := h.service.AddNote(c.Request.Context(), callerFrom(c), c.Param("id"), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ResolveComplaint handles POST /complaints/:id/resolve.
func (h *Handler) ResolveComplaint(c *gin.Context) {
	var req resolveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	view, err := h.service.ResolveComplaint(c.Request.Context(), callerFrom(c), c.Param("id"), req.Compensation, req.ResolutionNotes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// AssignComplaint handles POST /complaints/:id/assign.
func (h *Handler) AssignComplaint(c *gin.Context) {
	view, err := h.service.AssignComplaint(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ListActionItems handles GET /action-items.
func (h *Handler) ListActionItems(c *gin.Context) {
	filter := ActionItemFilter{
		Status:  models.ActionItemStatus(strings.TrimSpace(c.Query("status"))),
		Urgency: models.Level(strings.TrimSpace(c.Query("urgency"))),
		Type:    models.ActionItemType(strings.TrimSpace(c.Query("type"))),
		Page:    parseIntQuery(c, "page", 1),
		Limit:   parseIntQuery(c, "limit", defaultPageLimit),
	}
	if (filter.Status != "" && !filter.Status.Valid()) ||
		(filter.Urgency != "" && !filter.Urgency.Valid()) ||
		(filter.Type != "" && !filter.Type.Valid()) {
		response.Error(c, apperrors.NewBadRequest("unknown action item filter"))
		return
	}

	items, hasMore, err := h.service.ListActionItems(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, items, hasMore)
}

// GetActionItem handles GET /action-items/:id.
func (h *Handler) GetActionItem(c *gin.Context) {
	item, err := h.service.GetActionItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, item)
}

// PatchActionItem handles PATCH /action-items/:id.
func (h *Handler) PatchActionItem(c *gin.Context) {
	var req actionStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.service.UpdateActionItemStatus(c.Request.Context(), c.Param("id"), models.ActionItemStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, item)
}

// AssignActionItem handles POST /action-items/:id/assign.
func (h *Handler) AssignActionItem(c *gin.Context) {
	item, err := h.service.AssignActionItem(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, item)
}

// ListFollowups handles GET /follow-ups.
func (h *Handler) ListFollowups(c *gin.Context) {
	filter := FollowupFilter{
		Status: models.ActionItemStatus(strings.TrimSpace(c.Query("status_filter"))),
		Skip:   parseIntQuery(c, "skip", 0),
		Limit:  parseIntQuery(c, "limit", defaultPageLimit),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.Error(c, apperrors.NewBadRequest("unknown status filter"))
		return
	}

	items, hasMore, err := h.service.ListFollowups(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, items, hasMore)
}

// ResolveFollowup handles POST /follow-ups/:id/resolve.
func (h *Handler) ResolveFollowup(c *gin.Context) {
	var req followupResolveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.service.ResolveFollowup(c.Request.Context(), c.Param("id"), req.Notes); err != nil {
		response.Error(c, err)
		return
	}
	response.Ack(c)
}

// Urgent handles GET /urgent.
func (h *Handler) Urgent(c *gin.Context) {
	items, err := h.service.UrgentComplaints(c.Request.Context(), callerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, urgentResponse{Complaints: items})
}

// ListNotifications handles GET /notifications.
func (h *Handler) ListNotifications(c *gin.Context) {
	items, err := h.service.ListNotifications(c.Request.Context(), callerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// MarkNotificationRead handles POST /notifications/:id/read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.service.MarkNotificationRead(c.Request.Context(), callerFrom(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Ack(c)
}

// MarkAllNotificationsRead handles POST /notifications/read-all.
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	if err := h.service.MarkAllNotificationsRead(c.Request.Context(), callerFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Ack(c)
}

// RegisterDevice handles POST /devices.
func (h *Handler) RegisterDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid JSON payload"))
		return
	}
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	if err := appValidator.ValidateStruct(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	if err := h.service.RegisterDevice(c.Request.Context(), callerFrom(c), req.Token, req.Platform); err != nil {
		response.Error(c, err)
		return
	}
	response.Ack(c)
}

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.service.Dashboard(c.Request.Context(), callerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Push upgrades an authenticated request to the push stream.
func (h *Handler) Push(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	streams := gatherStreams(c.Query("streams"))
	if len(streams) == 0 {
		streams = []string{realtime.StreamNotifications}
	}
	for _, stream := range streams {
		if stream != realtime.StreamNotifications && stream != realtime.StreamComplaints {
			response.Error(c, apperrors.NewBadRequest("unknown stream "+stream))
			return
		}
	}

	h.hub.Serve(c.GetString(middleware.CtxUserIDKey), streams, c.Writer, c.Request)
}

func callerFrom(c *gin.Context) Caller {
	claims, ok := middleware.Claims(c)
	if !ok {
		return Caller{}
	}
	return Caller{
		UserID:  claims.UserID,
		Name:    claims.Name,
		Role:    claims.Role,
		StoreID: claims.StoreID,
	}
}

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return false
	}
	return true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func gatherStreams(raw string) []string {
	seen := make(map[string]struct{})
	var streams []string
	for _, part := range strings.Split(raw, ",") {
		stream := strings.ToLower(strings.TrimSpace(part))
		if stream == "" {
			continue
		}
		if _, ok := seen[stream]; ok {
			continue
		}
		seen[stream] = struct{}{}
		streams = append(streams, stream)
	}
	return streams
}
