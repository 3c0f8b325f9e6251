package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mediahub/pkg/logger"
	"mediahub/pkg/models"
)

// respondError maps service errors onto statuses and envelope codes
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, models.ErrCodeInternal
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		status, code = http.StatusBadRequest, models.ErrCodeValidation
	case errors.Is(err, models.ErrNotFound):
		status, code = http.StatusNotFound, models.ErrCodeNotFound
	case errors.Is(err, models.ErrTokenExpired):
		status, code = http.StatusUnauthorized, models.ErrCodeTokenExpired
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrInvalidToken),
		errors.Is(err, models.ErrUnauthorized):
		status, code = http.StatusUnauthorized, models.ErrCodeUnauthorized
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithRequestID(c.Request.Context()).WithError(err).Error("request failed")
		msg = "internal server error"
	}
	c.JSON(status, models.Fail(code, msg))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.Fail(models.ErrCodeValidation, msg))
}

// contentKey reads the {type}/{id} path parameters
func contentKey(c *gin.Context) (models.ContentKey, bool) {
	typ, ok := models.ParseContentType(c.Param("type"))
	if !ok {
		badRequest(c, "unknown content type: "+c.Param("type"))
		return models.ContentKey{}, false
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		badRequest(c, "content id is required")
		return models.ContentKey{}, false
	}
	return models.MakeKey(id, typ), true
}

// Auth handlers

// login handles user authentication
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		badRequest(c, "username and password are required")
		return
	}

	resp, err := s.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(resp))
}

// refresh exchanges a token for a new one
func (s *Server) refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		badRequest(c, "token is required")
		return
	}

	token, err := s.authSvc.Refresh(c.Request.Context(), req.Token)
	if err != nil {
		// an expired token is the normal input here, so any rejection is final
		c.JSON(http.StatusUnauthorized, models.Fail(models.ErrCodeUnauthorized, "token cannot be refreshed"))
		return
	}
	c.JSON(http.StatusOK, models.OK(models.RefreshResponse{Token: token}))
}

// Interaction handlers

func (s *Server) toggleLike(c *gin.Context) {
	key, ok := contentKey(c)
	if !ok {
		return
	}
	userID, _ := GetUserID(c)

	resp, err := s.interactionSvc.ToggleLike(c.Request.Context(), userID, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(resp))
}

func (s *Server) toggleSave(c *gin.Context) {
	key, ok := contentKey(c)
	if !ok {
		return
	}
	userID, _ := GetUserID(c)

	resp, err := s.interactionSvc.ToggleSave(c.Request.Context(), userID, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(resp))
}

func (s *Server) share(c *gin.Context) {
	key, ok := contentKey(c)
	if !ok {
		return
	}
	userID, _ := GetUserID(c)

	resp, err := s.interactionSvc.Share(c.Request.Context(), userID, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(resp))
}

func (s *Server) view(c *gin.Context) {
	key, ok := contentKey(c)
	if !ok {
		return
	}
	userID, _ := GetUserID(c)

	// an empty body counts as a bare view
	var req models.ViewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	resp, err := s.interactionSvc.View(c.Request.Context(), userID, key, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(resp))
}

// getMetadata returns counters, plus the caller's flags when authenticated
func (s *Server) getMetadata(c *gin.Context) {
	key, ok := contentKey(c)
	if !ok {
		return
	}
	userID, _ := GetUserID(c)

	stats, err := s.interactionSvc.Stats(c.Request.Context(), userID, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(stats))
}

func (s *Server) getBatchMetadata(c *gin.Context) {
	typ, ok := models.ParseContentType(c.Param("type"))
	if !ok {
		badRequest(c, "unknown content type: "+c.Param("type"))
		return
	}

	var req models.BatchStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	userID, _ := GetUserID(c)

	stats, err := s.interactionSvc.BatchStats(c.Request.Context(), userID, typ, req.ContentIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(stats))
}

func (s *Server) savedContent(c *gin.Context) {
	userID, _ := GetUserID(c)

	items, err := s.interactionSvc.Saved(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(items))
}

// Comment handlers

func (s *Server) listComments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(models.DefaultCommentPageSize)))
	userID, _ := GetUserID(c)

	result, err := s.commentSvc.List(c.Request.Context(), userID, c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(result))
}

func (s *Server) createComment(c *gin.Context) {
	user, ok := GetUser(c)
	if !ok {
		respondError(c, models.ErrUnauthorized)
		return
	}

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	comment, err := s.commentSvc.Create(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.OK(comment))
}

func (s *Server) likeComment(c *gin.Context) {
	userID, _ := GetUserID(c)

	resp, err := s.commentSvc.ToggleLike(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(resp))
}
