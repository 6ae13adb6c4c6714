package configuration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/container"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/estimator"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/strategy"
)

type fakeService struct {
	configs  map[string]*models.MatchingConfiguration
	created  *models.CreateConfigurationRequest
	analyzed []models.RecordPair
	iter     int
	err      error
}

func (f *fakeService) Create(_ context.Context, req *models.CreateConfigurationRequest) (*models.MatchingConfiguration, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = req
	return &models.MatchingConfiguration{ID: "new", Name: req.Name, Rows: req.Rows}, nil
}

func (f *fakeService) Get(_ context.Context, id string) (*models.MatchingConfiguration, error) {
	cfg, ok := f.configs[id]
	if !ok {
		return nil, clerrors.NotFoundf("matching configuration %q", id)
	}
	return cfg, nil
}

func (f *fakeService) List(context.Context) ([]*models.MatchingConfiguration, error) {
	list := make([]*models.MatchingConfiguration, 0, len(f.configs))
	for _, cfg := range f.configs {
		list = append(list, cfg)
	}
	return list, f.err
}

func (f *fakeService) Estimate(ctx context.Context, id string) (*models.MatchingConfiguration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.Get(ctx, id)
}

func (f *fakeService) RefreshAll(context.Context) ([]estimator.RefreshResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []estimator.RefreshResult{
		{ConfigurationID: "a", Recomputed: true, Drift: 200, TotalRecords: 1200},
		{ConfigurationID: "b", Drift: 20, TotalRecords: 1200},
	}, nil
}

func (f *fakeService) Analyze(ctx context.Context, id string, pairs []models.RecordPair, iterations int) (*strategy.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	cfg, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	f.analyzed = pairs
	f.iter = iterations
	return &strategy.AnalysisResult{Configuration: cfg, Vectors: len(pairs), Iterations: iterations}, nil
}

// newServer serves the configuration routes from a fresh container; a nil svc leaves Service unregistered
func newServer(t *testing.T, svc Service) *echo.Echo {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	c, err := container.New(uuid.NewString(), logger)
	require.NoError(t, err)
	require.NoError(t, ectoinject.RegisterInstance[ectologger.Logger](c, logger))
	if svc != nil {
		require.NoError(t, ectoinject.RegisterInstance[Service](c, svc))
	}

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	e.Use(middleware.Container(c.GetContainerID()))
	Register(e.Group("/configurations"))
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func seeded() *fakeService {
	return &fakeService{configs: map[string]*models.MatchingConfiguration{
		"a": {ID: "a", Name: "by gender", EstimatedPairs: 12},
	}}
}

func TestCreate(t *testing.T) {
	svc := seeded()
	e := newServer(t, svc)

	rec := do(e, http.MethodPost, "/configurations", `{
		"name": "by gender",
		"rows": [
			{"entry": {"field_name": "Person.gender", "is_blocking": true}},
			{"entry": {"field_name": "PersonName.givenName"}, "algorithm": "jaro_winkler", "threshold": 0.85}
		]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var cfg models.MatchingConfiguration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, "new", cfg.ID)
	require.NotNil(t, svc.created)
	assert.Equal(t, models.AlgorithmJaroWinkler, svc.created.Rows[1].Algorithm)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestCreate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"missing rows", `{"name": "x"}`},
		{"bad algorithm", `{"name": "x", "rows": [{"entry": {"field_name": "Person.gender"}, "algorithm": "cosine"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := seeded()
			rec := do(newServer(t, svc), http.MethodPost, "/configurations", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, svc.created)
		})
	}
}

func TestCreate_DomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid entry", clerrors.InvalidEntryf("%q names unknown field", "Person.shoeSize"), http.StatusBadRequest},
		{"io failure", clerrors.WrapIO(assert.AnError, "count"), http.StatusBadGateway},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}
	body := `{"name": "x", "rows": [{"entry": {"field_name": "Person.gender"}}]}`
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := seeded()
			svc.err = tt.err
			rec := do(newServer(t, svc), http.MethodPost, "/configurations", body)
			assert.Equal(t, tt.code, rec.Code)

			var resp middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.RequestID)
			if tt.code >= http.StatusInternalServerError {
				assert.Equal(t, http.StatusText(tt.code), resp.Message)
			}
		})
	}
}

func TestGetAndList(t *testing.T) {
	e := newServer(t, seeded())

	rec := do(e, http.MethodGet, "/configurations/a", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/configurations/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/configurations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.TotalCount)
}

func TestEstimateAndRefresh(t *testing.T) {
	e := newServer(t, seeded())

	rec := do(e, http.MethodPost, "/configurations/a/estimate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodPost, "/configurations/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Recomputed)
	assert.Len(t, resp.Results, 2)
}

func TestAnalyze(t *testing.T) {
	svc := seeded()
	e := newServer(t, svc)

	rec := do(e, http.MethodPost, "/configurations/a/analyze", `{
		"iterations": 4,
		"pairs": [
			{"left": {"PersonName.givenName": "Ann"}, "right": {"PersonName.givenName": "Anne"}}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 4, svc.iter)
	require.Len(t, svc.analyzed, 1)
	assert.Equal(t, "Anne", svc.analyzed[0].Right.Value("PersonName.givenName"))

	rec = do(e, http.MethodPost, "/configurations/a/analyze", `{"pairs": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = clerrors.InsufficientDataf("posterior mass vanished")
	rec = do(e, http.MethodPost, "/configurations/a/analyze", `{"pairs": [{"left": {}, "right": {}}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServiceNotRegistered(t *testing.T) {
	e := newServer(t, nil)

	rec := do(e, http.MethodGet, "/configurations", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
