package httpapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/matchsight/matchsight/internal/usecase"
)

// Handler carries the HTTP-facing use case services. All endpoints write
// Google-style JSON envelopes.
type Handler struct {
	automationService *usecase.AutomationService
	configService     *usecase.ConfigService
	logService        *usecase.LogService
	fixtureService    *usecase.FixtureService
	logger            *slog.Logger
	validator         *validator.Validate
}

func NewHandler(
	automationService *usecase.AutomationService,
	configService *usecase.ConfigService,
	logService *usecase.LogService,
	fixtureService *usecase.FixtureService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		automationService: automationService,
		configService:     configService,
		logService:        logService,
		fixtureService:    fixtureService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) decodeRequest(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid request body: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, req any) error {
	if err := h.validator.StructCtx(ctx, req); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func invalidQueryParam(name, value string) error {
	return fmt.Errorf("%w: invalid %s query parameter %q", usecase.ErrInvalidInput, name, value)
}
