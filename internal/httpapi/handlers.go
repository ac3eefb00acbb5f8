package httpapi

import (
	"net/http"

	"inbox-platform/internal/auth"
	"inbox-platform/internal/connections"
	"inbox-platform/internal/inbox"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth        *auth.Service
	Inbox       *inbox.Service
	Connections *connections.Service
}

// --- Auth ---

type sendOTPRequest struct {
	Phone  string `json:"phone"`
	Method string `json:"method"`
}

func (h Handlers) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	method, expiresIn, err := h.Auth.RequestOTP(c.Request.Context(), req.Phone, req.Method)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Code sent via " + method,
		"expires_in": expiresIn,
	})
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (h Handlers) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	u, isFirstLogin, token, err := h.Auth.VerifyOTP(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Authentication successful",
		"user":           u,
		"is_first_login": isFirstLogin,
		"token":          token,
	})
}

func (h Handlers) Me(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// --- Connections ---

type createConnectionRequest struct {
	Type     string         `json:"type"`
	Token    string         `json:"token"`
	Metadata map[string]any `json:"metadata"`
}

func (h Handlers) ListConnections(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	conns, err := h.Connections.List(c.Request.Context(), u.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

func (h Handlers) CreateConnection(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req createConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	conn, err := h.Connections.Create(c.Request.Context(), u.ID, req.Type, req.Token, req.Metadata)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Connection created successfully",
		"connection": conn,
	})
}

func (h Handlers) DeleteConnection(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.Connections.Delete(c.Request.Context(), u.ID, c.Param("connection_id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Connection removed successfully"})
}

func (h Handlers) TestConnection(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	conn, result, err := h.Connections.Test(c.Request.Context(), u.ID, c.Param("connection_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Connection test failed",
			"result": result,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Connection tested successfully",
		"result":     result,
		"connection": conn,
	})
}

// --- Threads ---

func (h Handlers) ListThreads(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	f := inbox.ThreadFilter{
		Channel: c.Query("channel"),
		Status:  c.Query("status"),
		Search:  c.Query("search"),
	}
	threads, err := h.Inbox.ListThreads(c.Request.Context(), u.ID, f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

func (h Handlers) ListMessages(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	thread, messages, err := h.Inbox.ListMessages(c.Request.Context(), u.ID, c.Param("thread_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"thread":   thread,
		"messages": messages,
	})
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

func (h Handlers) SendMessage(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	msg, err := h.Inbox.SendMessage(c.Request.Context(), u.ID, c.Param("thread_id"), req.Body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent successfully",
		"data":    msg,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h Handlers) UpdateThreadStatus(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	thread, err := h.Inbox.UpdateStatus(c.Request.Context(), u.ID, c.Param("thread_id"), req.Status)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Status updated successfully",
		"thread":  thread,
	})
}

// --- Drafts ---

type saveDraftRequest struct {
	Content string `json:"content"`
}

func (h Handlers) GetDraft(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	draft, err := h.Inbox.GetDraft(c.Request.Context(), u.ID, c.Param("thread_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	// Absent draft is not an error; the client probes on thread open.
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

func (h Handlers) SaveDraft(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req saveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	draft, err := h.Inbox.UpsertDraft(c.Request.Context(), u.ID, c.Param("thread_id"), req.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Draft saved",
		"draft":   draft,
	})
}

func (h Handlers) DeleteDraft(c *gin.Context) {
	u, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.Inbox.DeleteDraft(c.Request.Context(), u.ID, c.Param("thread_id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draft removed"})
}
