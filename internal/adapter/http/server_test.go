package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/hydrocalc/internal/adapter/http"
	"github.com/couchcryptid/hydrocalc/internal/calc"
	"github.com/couchcryptid/hydrocalc/internal/domain"
	"github.com/couchcryptid/hydrocalc/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(readyErr error) *httpadapter.Server {
	svc := calc.New(slog.Default(), observability.NewMetricsForTesting(), 16)
	return httpadapter.NewServer(":0", svc, &mockReadiness{err: readyErr}, slog.Default())
}

func do(t *testing.T, srv *httpadapter.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(t, newTestServer(fmt.Errorf("not ready yet")), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestReadinessFunc(t *testing.T) {
	svc := calc.New(slog.Default(), observability.NewMetricsForTesting(), 0)
	srv := httpadapter.NewServer(":0", svc, httpadapter.ReadinessFunc(func(context.Context) error { return nil }), slog.Default())

	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestIDAssignedAndPropagated(t *testing.T) {
	srv := newTestServer(nil)

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Len(t, rec.Header().Get("X-Request-Id"), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "caller-supplied")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "caller-supplied", rec.Header().Get("X-Request-Id"))
}

func TestLandUses(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/v1/land-uses", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		SoilGroups []string              `json:"soil_groups"`
		LandUses   []domain.LandUseEntry `json:"land_uses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"A", "B", "C", "D"}, body.SoilGroups)
	require.Len(t, body.LandUses, 5)
	assert.Equal(t, "urban", body.LandUses[0].Key)
}

func TestOpenChannel(t *testing.T) {
	body := `{"width":3,"depth":1.5,"slope":0.001,"roughness":0.013}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/open-channel", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out domain.ExportRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, domain.KindOpenChannel, out.Kind)

	var res domain.FlowResult
	require.NoError(t, json.Unmarshal(out.Results, &res))
	assert.InDelta(t, 2.007, res.Velocity, 0.002)
	assert.Equal(t, domain.FlowSubcritical, res.FlowType)
}

func TestOpenChannel_Download(t *testing.T) {
	body := `{"width":3,"depth":1.5,"slope":0.001,"roughness":0.013}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/open-channel?download=true", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="open-channel-results.json"`, rec.Header().Get("Content-Disposition"))
}

func TestPipeNetwork_FillsMissingIDs(t *testing.T) {
	body := `{"method":"darcy-weisbach","pipes":[{"length":100,"diameter":0.2,"roughness":0.015},{"id":"5","length":40,"diameter":0.1,"roughness":0.02}]}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/pipe-network", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out domain.ExportRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	var res domain.PipeNetworkResult
	require.NoError(t, json.Unmarshal(out.Results, &res))
	require.Len(t, res.Segments, 2)
	assert.Equal(t, "6", res.Segments[0].ID)
	assert.Equal(t, "5", res.Segments[1].ID)
	assert.NotNil(t, res.Segments[0].HeadLoss)
}

func TestStormwater(t *testing.T) {
	body := `{"rainfall_depth":100,"catchment_area":10,"land_use":"forest","soil_group":"D"}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/stormwater", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out domain.ExportRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	var res domain.RunoffResult
	require.NoError(t, json.Unmarshal(out.Results, &res))
	assert.InDelta(t, 48.58, res.RunoffDepth, 0.01)
}

func TestCompare(t *testing.T) {
	body := `{"rainfall_depth":75,"catchment_area":25,"soil_group":"b"}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/stormwater/compare", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out domain.ExportRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	var rows []domain.RunoffComparison
	require.NoError(t, json.Unmarshal(out.Results, &rows))
	assert.Len(t, rows, 5)
}

func TestCalculateEnvelope(t *testing.T) {
	body := `{"kind":"stormwater","stormwater":{"rainfall_depth":20,"catchment_area":5,"land_use":"urban","soil_group":"C"}}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/calculate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out domain.ExportRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, domain.KindStormwater, out.Kind)
}

func TestCalculateEnvelope_PipeNetworkWithoutIDs(t *testing.T) {
	body := `{"kind":"pipe-network","pipe_network":{"method":"hazen-williams","pipes":[{"length":100,"diameter":0.2,"roughness":130},{"length":250,"diameter":0.3,"roughness":120}]}}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/calculate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out domain.ExportRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, domain.KindPipeNetwork, out.Kind)

	var res domain.PipeNetworkResult
	require.NoError(t, json.Unmarshal(out.Results, &res))
	require.Len(t, res.Segments, 2)
	assert.Equal(t, "1", res.Segments[0].ID)
	assert.Equal(t, "2", res.Segments[1].ID)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantKind string
	}{
		{
			name:     "channel out of range",
			path:     "/v1/open-channel",
			body:     `{"width":30,"depth":1.5,"slope":0.001,"roughness":0.013}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "OutOfRangeError",
		},
		{
			name:     "unknown land use",
			path:     "/v1/stormwater",
			body:     `{"rainfall_depth":10,"catchment_area":5,"land_use":"tundra","soil_group":"A"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "InvalidInputError",
		},
		{
			name:     "unknown kind",
			path:     "/v1/calculate",
			body:     `{"kind":"weir"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "InvalidInputError",
		},
		{
			name:     "malformed json",
			path:     "/v1/open-channel",
			body:     `{"width":`,
			wantCode: http.StatusBadRequest,
			wantKind: "MalformedRequest",
		},
		{
			name:     "unknown field",
			path:     "/v1/open-channel",
			body:     `{"width":3,"depht":1.5}`,
			wantCode: http.StatusBadRequest,
			wantKind: "MalformedRequest",
		},
	}

	srv := newTestServer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/v1/open-channel", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
