package daemon

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"rtgrab/internal/logger"
	"rtgrab/internal/model"
	"rtgrab/internal/repository"
	"rtgrab/internal/rtorrent"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type JobReader interface {
	ListJobs(ctx context.Context) ([]rtorrent.Job, error)
	GetJob(ctx context.Context, hash string) (rtorrent.Job, bool, error)
	GetVersion(ctx context.Context) (string, error)
}

type JobController interface {
	AddFromURL(ctx context.Context, rawURL string) (string, error)
	AddFromPayload(ctx context.Context, data []byte, opts rtorrent.AddOptions) (string, error)
	Remove(ctx context.Context, hash string, eraseData bool) error
	Pause(ctx context.Context, hash string) error
	Resume(ctx context.Context, hash string) error
	SetPriority(ctx context.Context, hash string, level rtorrent.Priority) error
	GetDownloadRate(ctx context.Context, hash string) (int64, error)
}

type HistoryReader interface {
	GetRecent(limit int) ([]model.Action, error)
	GetStats() (repository.Stats, error)
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

type Server struct {
	echo    *echo.Echo
	jobs    JobReader
	control JobController
	history HistoryReader
	port    int
	stopCh  chan struct{}
}

func NewServer(jobs JobReader, control JobController, history HistoryReader, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New()}
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		jobs:    jobs,
		control: control,
		history: history,
		port:    port,
		stopCh:  make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/version", s.handleVersion)
	s.echo.POST("/stop", s.handleStop)

	g := s.echo.Group("/jobs")
	g.GET("", s.handleListJobs)
	g.POST("", s.handleAddURL)
	g.POST("/raw", s.handleAddPayload)
	g.GET("/:hash", s.handleGetJob)
	g.DELETE("/:hash", s.handleRemoveJob)
	g.POST("/:hash/pause", s.handlePauseJob)
	g.POST("/:hash/resume", s.handleResumeJob)
	g.PUT("/:hash/priority", s.handleSetPriority)
	g.GET("/:hash/rate", s.handleDownloadRate)

	s.echo.GET("/history", s.handleHistory)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() {
	go func() {
		addr := ":" + strconv.Itoa(s.port)
		logger.Log.Info("control api started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("control api error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func errorJSON(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, rtorrent.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, rtorrent.ErrUpstreamFetch),
		errors.Is(err, rtorrent.ErrTransport),
		errors.Is(err, rtorrent.ErrProtocolFault):
		status = http.StatusBadGateway
	}

	return c.JSON(status, map[string]string{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

func (s *Server) handleVersion(c echo.Context) error {
	v, err := s.jobs.GetVersion(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"version": v})
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleListJobs(c echo.Context) error {
	jobs, err := s.jobs.ListJobs(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) handleGetJob(c echo.Context) error {
	job, ok, err := s.jobs.GetJob(c.Request().Context(), c.Param("hash"))
	if err != nil {
		return errorJSON(c, err)
	}
	if !ok {
		return errorJSON(c, rtorrent.ErrNotFound)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"job":   job,
		"state": job.State(),
	})
}

type addURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

func (s *Server) handleAddURL(c echo.Context) error {
	var req addURLRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "a valid url is required")
	}

	hash, err := s.control.AddFromURL(c.Request().Context(), req.URL)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]string{"hash": hash})
}

type addPayloadRequest struct {
	Payload   string `json:"payload" validate:"required,base64"`
	Directory string `json:"directory"`
	Label     string `json:"label"`
}

func (s *Server) handleAddPayload(c echo.Context) error {
	var req addPayloadRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "payload must be base64")
	}

	data, err := base64.StdEncoding.DecodeString(req.Payload)
	if err != nil {
		return badRequest(c, "payload must be base64")
	}

	hash, err := s.control.AddFromPayload(c.Request().Context(), data, rtorrent.AddOptions{
		Directory: req.Directory,
		Label:     req.Label,
	})
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]string{"hash": hash})
}

func (s *Server) handleRemoveJob(c echo.Context) error {
	erase := false
	if v := c.QueryParam("erase"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "invalid erase flag")
		}
		erase = parsed
	}

	if err := s.control.Remove(c.Request().Context(), c.Param("hash"), erase); err != nil {
		return errorJSON(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handlePauseJob(c echo.Context) error {
	if err := s.control.Pause(c.Request().Context(), c.Param("hash")); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleResumeJob(c echo.Context) error {
	if err := s.control.Resume(c.Request().Context(), c.Param("hash")); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "resumed"})
}

type priorityRequest struct {
	Priority *int `json:"priority" validate:"required,min=0,max=3"`
}

func (s *Server) handleSetPriority(c echo.Context) error {
	var req priorityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "priority must be between 0 and 3")
	}

	level := rtorrent.Priority(*req.Priority)
	if err := s.control.SetPriority(c.Request().Context(), c.Param("hash"), level); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"priority": level.String()})
}

func (s *Server) handleDownloadRate(c echo.Context) error {
	rate, err := s.control.GetDownloadRate(c.Request().Context(), c.Param("hash"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]int64{"down_rate": rate})
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.history == nil {
		return c.JSON(http.StatusOK, map[string]any{"actions": []model.Action{}})
	}

	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil && parsed > 0 {
			n = parsed
		}
	}

	actions, err := s.history.GetRecent(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	stats, err := s.history.GetStats()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"actions": actions,
		"stats":   stats,
	})
}
