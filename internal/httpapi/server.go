package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mkrill/glossa/internal/history"
	"github.com/mkrill/glossa/internal/translator"
)

// TranslateService is the slice of the pipeline the API depends on.
type TranslateService interface {
	Translate(ctx context.Context, req translator.TranslateRequest) (*translator.Result, error)
}

// HistoryLister serves the history listing; nil disables the endpoint.
type HistoryLister interface {
	List(ctx context.Context, filter history.ListFilter) ([]history.Entry, error)
}

// Pinger reports persistent-store connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	svc    TranslateService
	lister HistoryLister
	pinger Pinger
	logger zerolog.Logger
	opts   Options
}

func NewServer(svc TranslateService, lister HistoryLister, pinger Pinger, logger zerolog.Logger, opts Options) *Server {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Minute
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		svc:    svc,
		lister: lister,
		pinger: pinger,
		logger: logger,
		opts:   opts,
	}
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	e := s.router()
	e.Server.ReadTimeout = s.opts.ReadTimeout
	e.Server.WriteTimeout = s.opts.WriteTimeout

	address := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(address)
	}()

	s.logger.Info().Str("address", address).Msg("http api listening")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/translate", s.handleTranslate)
	e.POST("/v1/rerun", s.handleRerun)
	e.POST("/v1/refresh", s.handleRefresh)
	e.GET("/v1/history", s.handleHistory)

	return e
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	response := map[string]any{"status": "ok", "history": s.pinger != nil}
	if s.pinger != nil {
		if err := s.pinger.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"detail": err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translator.TranslateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid_request", Detail: "malformed JSON body"})
	}

	result, err := s.svc.Translate(c.Request().Context(), req)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type rerunPayload struct {
	translator.TranslateRequest
	Style               translator.RerunStyle `json:"style"`
	PreviousTranslation string                `json:"previous_translation"`
}

func (s *Server) handleRerun(c echo.Context) error {
	var payload rerunPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid_request", Detail: "malformed JSON body"})
	}

	req, err := translator.RerunRequest(payload.TranslateRequest, payload.PreviousTranslation, payload.Style)
	if err != nil {
		return s.writeError(c, err)
	}

	result, err := s.svc.Translate(c.Request().Context(), req)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type refreshPayload struct {
	translator.TranslateRequest
	Seed *int `json:"refresh_seed"`
}

func (s *Server) handleRefresh(c echo.Context) error {
	var payload refreshPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid_request", Detail: "malformed JSON body"})
	}

	seed := int(time.Now().UnixNano() & 0x7fffffff)
	if payload.Seed != nil {
		seed = *payload.Seed
	}

	result, err := s.svc.Translate(c.Request().Context(), translator.RefreshRequest(payload.TranslateRequest, seed))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.lister == nil {
		return c.JSON(http.StatusNotImplemented, errorBody{Error: "history_disabled", Detail: "no database configured"})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid_request", Detail: "limit must be an integer"})
		}
		limit = parsed
	}

	entries, err := s.lister.List(c.Request().Context(), history.ListFilter{
		Mode:       c.QueryParam("mode"),
		TargetLang: c.QueryParam("target_lang"),
		Limit:      limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("history listing failed")
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "internal", Detail: "history listing failed"})
	}
	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) writeError(c echo.Context, err error) error {
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("translate request failed")
	}
	return c.JSON(status, errorBody{Error: code, Detail: err.Error()})
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, translator.ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge, "request_too_large"
	case errors.Is(err, translator.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, translator.ErrDetectionFailed):
		return http.StatusUnprocessableEntity, "detection_failed"
	case errors.Is(err, translator.ErrProviderTimeout):
		return http.StatusGatewayTimeout, "provider_timeout"
	case errors.Is(err, translator.ErrProviderAuth):
		return http.StatusBadGateway, "provider_auth_error"
	case errors.Is(err, translator.ErrProviderUnavailable):
		return http.StatusBadGateway, "provider_unavailable"
	case errors.Is(err, translator.ErrUnparsableOutput):
		return http.StatusBadGateway, "unparsable_output"
	case errors.Is(err, translator.ErrEmptyResult):
		return http.StatusBadGateway, "empty_result"
	}
	return http.StatusInternalServerError, "internal"
}
