package server

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/beemapp/beem-server/internal/apperr"
	"github.com/beemapp/beem-server/internal/repository"
	"github.com/beemapp/beem-server/internal/service/profiles"
	"github.com/beemapp/beem-server/internal/transport"
)

// registerAPIRoutes wires the user-facing API. Callers are transport
// adapters (the bot front end) running inside the trust boundary, so user
// identity arrives as explicit ids.
func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	{
		api.POST("/users/register", s.handleRegister)
		api.GET("/users/:id", s.handleGetUser)
		api.PATCH("/users/:id", s.handleUpdateUser)

		api.POST("/users/:id/profile", s.handleCreateProfile)
		api.GET("/users/:id/profile", s.handleGetProfile)
		api.DELETE("/users/:id/profile", s.handleDeleteProfile)

		api.GET("/users/:id/matches", s.handleMatches)
		api.GET("/users/:id/chats", s.handleMyChats)

		api.POST("/profiles/:id/like", s.handleToggleLike)
		api.GET("/profiles/:id/likes", s.handleLikeCount)

		api.POST("/chats/open", s.handleOpenByProfile)
		api.POST("/chats/:id/open", s.handleOpenByID)
		api.POST("/chats/:id/report", s.handleReport)
		api.POST("/chats/:id/block", s.handleBlock)

		api.POST("/relay", s.handleRelay)
		api.POST("/relay/exit", s.handleExit)
	}
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("bad id")
	}
	return id, nil
}

func (s *Server) handleRegister(c *gin.Context) {
	var req profiles.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	if req.UserID <= 0 {
		handleError(c, apperr.Invalid("user_id is required"))
		return
	}
	u, err := s.profiles.Register(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, u)
}

func (s *Server) handleGetUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	u, err := s.profiles.User(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, u)
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	var req profiles.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	u, err := s.profiles.UpdateSettings(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, u)
}

type createProfileRequest struct {
	Description string `json:"description"`
	Media       []struct {
		FileRef string `json:"file_ref"`
		Kind    string `json:"kind"`
	} `json:"media"`
}

func (s *Server) handleCreateProfile(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	media := make([]repository.MediaInput, 0, len(req.Media))
	for _, m := range req.Media {
		media = append(media, repository.MediaInput{FileRef: m.FileRef, Kind: m.Kind})
	}
	p, err := s.profiles.CreateProfile(c.Request.Context(), id, req.Description, media)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, p)
}

func (s *Server) handleGetProfile(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	p, media, err := s.profiles.ActiveProfile(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, gin.H{"profile": p, "media": media})
}

func (s *Server) handleDeleteProfile(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	if err := s.profiles.DeleteActiveProfile(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, nil)
}

func (s *Server) handleMatches(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	candidates, err := s.matching.FindCandidates(c.Request.Context(), id, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, candidates)
}

func (s *Server) handleMyChats(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	chats, err := s.relay.MyChats(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, chats)
}

type likeRequest struct {
	LikerID int64 `json:"liker_id" binding:"required"`
}

func (s *Server) handleToggleLike(c *gin.Context) {
	profileID, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	liked, count, err := s.engagement.ToggleLike(c.Request.Context(), profileID, req.LikerID)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, gin.H{"liked": liked, "likes": count})
}

func (s *Server) handleLikeCount(c *gin.Context) {
	profileID, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	count, err := s.engagement.LikeCount(c.Request.Context(), profileID)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, gin.H{"likes": count})
}

type openByProfileRequest struct {
	ViewerID  int64 `json:"viewer_id" binding:"required"`
	ProfileID int64 `json:"profile_id" binding:"required"`
	OwnerID   int64 `json:"owner_id" binding:"required"`
}

func (s *Server) handleOpenByProfile(c *gin.Context) {
	var req openByProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	chat, err := s.relay.OpenByProfile(c.Request.Context(), req.ViewerID, req.ProfileID, req.OwnerID)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, chat)
}

type userRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func (s *Server) handleOpenByID(c *gin.Context) {
	chatID, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	chat, history, err := s.relay.OpenByID(c.Request.Context(), req.UserID, chatID)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, gin.H{"chat": chat, "history": history})
}

type relayRequest struct {
	UserID  int64  `json:"user_id" binding:"required"`
	Kind    string `json:"kind"`
	Text    string `json:"text"`
	FileRef string `json:"file_ref"`
}

func (s *Server) handleRelay(c *gin.Context) {
	var req relayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	if req.Kind == "" {
		req.Kind = string(transport.KindText)
	}
	msg, err := s.relay.Relay(c.Request.Context(), req.UserID, transport.Content{
		Kind:    transport.Kind(req.Kind),
		Text:    req.Text,
		FileRef: req.FileRef,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if msg == nil {
		// no active session: nothing was relayed
		handleSuccess(c, gin.H{"relayed": false})
		return
	}
	handleSuccess(c, gin.H{"relayed": true, "message": msg})
}

func (s *Server) handleExit(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	if err := s.relay.Exit(c.Request.Context(), req.UserID); err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, nil)
}

type reportRequest struct {
	ReporterID int64  `json:"reporter_id" binding:"required"`
	Reason     string `json:"reason"`
}

func (s *Server) handleReport(c *gin.Context) {
	chatID, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	report, err := s.relay.Report(c.Request.Context(), req.ReporterID, chatID, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, report)
}

type blockRequest struct {
	BlockerID int64 `json:"blocker_id" binding:"required"`
}

func (s *Server) handleBlock(c *gin.Context) {
	chatID, err := pathID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleParamError(c, err)
		return
	}
	if err := s.relay.Block(c.Request.Context(), req.BlockerID, chatID); err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, nil)
}
