package configuration

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/estimator"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/strategy"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// Service is the strategy operations exposed over HTTP
type Service interface {
	Create(ctx context.Context, req *models.CreateConfigurationRequest) (*models.MatchingConfiguration, error)
	Get(ctx context.Context, id string) (*models.MatchingConfiguration, error)
	List(ctx context.Context) ([]*models.MatchingConfiguration, error)
	Estimate(ctx context.Context, id string) (*models.MatchingConfiguration, error)
	RefreshAll(ctx context.Context) ([]estimator.RefreshResult, error)
	Analyze(ctx context.Context, id string, pairs []models.RecordPair, iterations int) (*strategy.AnalysisResult, error)
}

// Register registers configuration routes. Handlers resolve their Service from the request's
// dependency container.
func Register(g *echo.Group) {
	g.GET("", ListConfigurations)
	g.POST("", CreateConfiguration)
	g.POST("/refresh", RefreshConfigurations)
	g.GET("/:id", GetConfiguration)
	g.POST("/:id/estimate", EstimateConfiguration)
	g.POST("/:id/analyze", AnalyzeConfiguration)
}

func service(ctx context.Context) (context.Context, Service, error) {
	ctx, svc, err := ectoinject.GetContext[Service](ctx)
	if err != nil {
		return ctx, nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	return ctx, svc, nil
}

// ListResponse is the response of the list endpoint
type ListResponse struct {
	Items      []*models.MatchingConfiguration `json:"items"`
	TotalCount int                             `json:"total_count"`
}

func ListConfigurations(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "configuration_handler.List")
	defer span.End()

	ctx, svc, err := service(ctx)
	if err != nil {
		return err
	}

	configs, err := svc.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ListResponse{Items: configs, TotalCount: len(configs)})
}

func CreateConfiguration(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "configuration_handler.Create")
	defer span.End()

	ctx, svc, err := service(ctx)
	if err != nil {
		return err
	}

	var req models.CreateConfigurationRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, err := utils.Validate(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cfg, err := svc.Create(ctx, &req)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{"id": cfg.ID}).Info("Created matching configuration")
	}

	return c.JSON(http.StatusCreated, cfg)
}

func GetConfiguration(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "configuration_handler.Get")
	defer span.End()

	ctx, svc, err := service(ctx)
	if err != nil {
		return err
	}

	cfg, err := svc.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// EstimateConfiguration recomputes the cached workload estimate of one configuration
func EstimateConfiguration(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "configuration_handler.Estimate")
	defer span.End()

	ctx, svc, err := service(ctx)
	if err != nil {
		return err
	}

	cfg, err := svc.Estimate(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// RefreshResponse is the response of the refresh endpoint
type RefreshResponse struct {
	Results    []estimator.RefreshResult `json:"results"`
	Recomputed int                       `json:"recomputed"`
}

// RefreshConfigurations recomputes every configuration whose estimate went stale
func RefreshConfigurations(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "configuration_handler.Refresh")
	defer span.End()

	ctx, svc, err := service(ctx)
	if err != nil {
		return err
	}

	results, err := svc.RefreshAll(ctx)
	if err != nil {
		return err
	}

	resp := RefreshResponse{Results: results}
	for _, r := range results {
		if r.Recomputed {
			resp.Recomputed++
		}
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{"recomputed": resp.Recomputed}).Info("Refreshed matching configurations")
	}

	return c.JSON(http.StatusOK, resp)
}

// AnalyzeRequest carries the sampled candidate pairs to fit weights from
type AnalyzeRequest struct {
	Pairs      []models.RecordPair `json:"pairs" validate:"required,min=1,dive"`
	Iterations int                 `json:"iterations" validate:"gte=0,lte=1000"`
}

// AnalyzeConfiguration refits a configuration's m/u weights
func AnalyzeConfiguration(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "configuration_handler.Analyze")
	defer span.End()

	ctx, svc, err := service(ctx)
	if err != nil {
		return err
	}

	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, err := utils.Validate(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := svc.Analyze(ctx, c.Param("id"), req.Pairs, req.Iterations)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
