package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// registerAdminRoutes wires the moderator surface. Everything except login
// sits behind the JWT middleware.
func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.POST("/login", s.handleAdminLogin)

	guarded := admin.Group("")
	guarded.Use(s.auth.middleware())
	{
		guarded.GET("/stats", s.handleAdminStats)
		guarded.GET("/users", s.handleAdminUsers)
		guarded.GET("/users/:id", s.handleAdminUserDetail)
		guarded.POST("/users/:id/ban", s.handleAdminBan)
		guarded.POST("/users/:id/unban", s.handleAdminUnban)
		guarded.GET("/profiles", s.handleAdminProfiles)
		guarded.GET("/chats", s.handleAdminChats)
		guarded.GET("/chats/:id", s.handleAdminChatHistory)
		guarded.GET("/reports", s.handleAdminReports)
		guarded.POST("/reports/:id/resolve", s.handleAdminResolveReport)
		guarded.POST("/broadcast", s.handleAdminBroadcast)
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleAdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	token, err := s.auth.login(req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, gin.H{"token": token})
}

func (s *Server) handleAdminStats(c *gin.Context) {
	stats, err := s.moderation.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, stats)
}

func (s *Server) handleAdminUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var pageToken *string
	if t := c.Query("page_token"); t != "" {
		pageToken = &t
	}
	users, next, err := s.moderation.Users(c.Request.Context(), pageToken, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, gin.H{"users": users, "next_page_token": next})
}

func (s *Server) handleAdminUserDetail(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	user, profile, chats, err := s.moderation.UserDetail(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, gin.H{"user": user, "profile": profile, "chats": chats})
}

type banRequest struct {
	Duration string `json:"duration" binding:"required"`
	Reason   string `json:"reason"`
}

func (s *Server) handleAdminBan(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	if err := s.moderation.Ban(c.Request.Context(), id, req.Duration, req.Reason); err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, nil)
}

func (s *Server) handleAdminUnban(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	if err := s.moderation.Unban(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, nil)
}

func (s *Server) handleAdminProfiles(c *gin.Context) {
	profiles, err := s.moderation.ActiveProfiles(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, profiles)
}

func (s *Server) handleAdminChats(c *gin.Context) {
	chats, err := s.moderation.Chats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, chats)
}

func (s *Server) handleAdminChatHistory(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	chat, history, err := s.moderation.ChatHistory(c.Request.Context(), id, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, gin.H{"chat": chat, "history": history})
}

func (s *Server) handleAdminReports(c *gin.Context) {
	reports, err := s.moderation.Reports(c.Request.Context(), c.Query("status"))
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, reports)
}

func (s *Server) handleAdminResolveReport(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	if err := s.moderation.ResolveReport(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, nil)
}

type broadcastRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) handleAdminBroadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	sent, failed, err := s.moderation.Broadcast(c.Request.Context(), req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, gin.H{"sent": sent, "failed": failed})
}
