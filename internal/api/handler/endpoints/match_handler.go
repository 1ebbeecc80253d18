package endpoints

import (
	"errors"
	"net/http"

	"livescore"
	"livescore/internal/api/handler/mapper"
	"livescore/internal/api/handler/middleware"
	"livescore/internal/api/handler/request"
	"livescore/internal/api/handler/response"
	"livescore/internal/api/models"
	"livescore/internal/api/service"
	"livescore/pkg"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type matchService interface {
	Create(match models.Match) (*models.Match, error)
	List(limit int) ([]models.Match, error)
	FindByID(id uint) (*models.Match, error)
	UpdateScore(id uint, home int, away int) (*models.Match, error)
	UpdateStatus(id uint, status models.MatchStatus) (*models.Match, error)
}

type commentaryService interface {
	Add(matchID uint, entry models.Commentary) (*models.Commentary, error)
	List(matchID uint, limit int) ([]models.Commentary, error)
}

type matchHandler struct {
	matchService      matchService
	commentaryService commentaryService
	matchMapper       mapper.MatchMapper
	config            livescore.AppConfig
	logger            zerolog.Logger
}

func newMatchHandler(matches matchService, commentary commentaryService, cfg livescore.AppConfig, logger zerolog.Logger) *matchHandler {
	return &matchHandler{
		matchService:      matches,
		commentaryService: commentary,
		matchMapper:       mapper.NewMatchMapper(),
		config:            cfg,
		logger:            logger,
	}
}

// MatchHandler registers the match and commentary routes. Reads are public,
// writes need a bearer token outside dev.
func MatchHandler(router gin.IRouter, matches matchService, commentary commentaryService) {
	h := newMatchHandler(matches, commentary, livescore.GetConfig(), livescore.Logger)
	h.register(router)
}

func (slf *matchHandler) register(router gin.IRouter) {
	routes := router.Group("/api/v1/matches")
	{
		routes.GET("", slf.list)
		routes.GET("/:id", slf.getByID)
		routes.GET("/:id/commentary", slf.listCommentary)
	}

	protected := router.Group("/api/v1/matches")
	protected.Use(middleware.AuthMiddleware(slf.config))
	{
		protected.POST("", slf.create)
		protected.PATCH("/:id/score", slf.updateScore)
		protected.PATCH("/:id/status", slf.updateStatus)
		protected.POST("/:id/commentary", slf.addCommentary)
	}
}

func (slf *matchHandler) list(c *gin.Context) {
	matches, err := slf.matchService.List(pkg.QueryInt(c, "limit", service.DefaultListLimit))
	if err != nil {
		slf.fail(c, err, "Failed to retrieve matches")
		return
	}
	c.JSON(http.StatusOK, response.NewList(matches))
}

func (slf *matchHandler) getByID(c *gin.Context) {
	id, ok := pkg.ParseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid ID"})
		return
	}

	match, err := slf.matchService.FindByID(id)
	if err != nil {
		slf.fail(c, err, "Failed to retrieve match")
		return
	}
	c.JSON(http.StatusOK, match)
}

func (slf *matchHandler) create(c *gin.Context) {
	var req request.CreateMatch
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid request", Data: err.Error()})
		return
	}

	match, err := slf.matchService.Create(slf.matchMapper.CreateMatch(req))
	if err != nil {
		slf.fail(c, err, "Failed to create match")
		return
	}
	c.JSON(http.StatusCreated, match)
}

func (slf *matchHandler) updateScore(c *gin.Context) {
	id, ok := pkg.ParseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid ID"})
		return
	}

	var req request.UpdateScore
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid request", Data: err.Error()})
		return
	}

	match, err := slf.matchService.UpdateScore(id, *req.HomeScore, *req.AwayScore)
	if err != nil {
		slf.fail(c, err, "Failed to update score")
		return
	}
	c.JSON(http.StatusOK, match)
}

func (slf *matchHandler) updateStatus(c *gin.Context) {
	id, ok := pkg.ParseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid ID"})
		return
	}

	var req request.UpdateStatus
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid request", Data: err.Error()})
		return
	}

	match, err := slf.matchService.UpdateStatus(id, req.Status)
	if err != nil {
		slf.fail(c, err, "Failed to update status")
		return
	}
	c.JSON(http.StatusOK, match)
}

func (slf *matchHandler) listCommentary(c *gin.Context) {
	id, ok := pkg.ParseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid ID"})
		return
	}

	entries, err := slf.commentaryService.List(id, pkg.QueryInt(c, "limit", service.DefaultListLimit))
	if err != nil {
		slf.fail(c, err, "Failed to retrieve commentary")
		return
	}
	c.JSON(http.StatusOK, response.NewList(entries))
}

func (slf *matchHandler) addCommentary(c *gin.Context) {
	id, ok := pkg.ParseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid ID"})
		return
	}

	var req request.CreateCommentary
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid request", Data: err.Error()})
		return
	}

	entry, err := slf.commentaryService.Add(id, slf.matchMapper.CreateCommentary(req))
	if err != nil {
		slf.fail(c, err, "Failed to add commentary")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// fail maps service errors to HTTP statuses.
func (slf *matchHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		c.JSON(http.StatusNotFound, response.APIError{Message: "Match not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, response.APIError{Message: err.Error()})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
	default:
		slf.logger.Error().Err(err).Str("path", c.FullPath()).Msg(message)
		c.JSON(http.StatusInternalServerError, response.APIError{Message: message})
	}
}
