package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/premium/internal/adapters/http/api"
	service "github.com/okian/premium/internal/app"
	"github.com/okian/premium/internal/domain/engine"
	"github.com/okian/premium/internal/domain/model"
	"github.com/okian/premium/internal/domain/profile"
	"github.com/okian/premium/internal/domain/scoring"
	"github.com/okian/premium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const scenarioJSON = `{
	"Age": 35,
	"Number of Dependants": 2,
	"Income in Lakhs": 10,
	"Genetical Risk": 1,
	"Insurance Plan": "Silver",
	"Employment Status": "Salaried",
	"Gender": "Male",
	"Marital Status": "Married",
	"BMI Category": "Normal",
	"Smoking Status": "No Smoking",
	"Region": "Northwest",
	"Medical History": "No Disease"
}`

// mockDependencies fails every call with err.
type mockDependencies struct {
	err   error
	ready bool
}

func (m *mockDependencies) Predict(context.Context, map[string]any) (model.Quote, error) {
	return model.Quote{}, m.err
}

func (m *mockDependencies) Explain(context.Context, map[string]any) (engine.Breakdown, error) {
	return engine.Breakdown{}, m.err
}

func (m *mockDependencies) PredictBatch(context.Context, []map[string]any) ([]model.BatchItem, error) {
	return nil, m.err
}

func (m *mockDependencies) Schema() []profile.FieldSpec { return profile.Fields() }

func (m *mockDependencies) ModelInfo() (model.ModelInfo, error) { return model.ModelInfo{}, m.err }

func (m *mockDependencies) Ready() bool { return m.ready }

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func startedService() *service.Service {
	svc := service.New(service.WithLogger(logger.NewNop()), service.WithWorkerCount(2), service.WithMaxBatchSize(5))
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server over a started service", t, func() {
		svc := startedService()
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When posting a valid profile to /predict", func() {
			w := do(mux, http.MethodPost, "/predict", scenarioJSON)

			Convey("Then it should return a quote", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				body := decode(w)
				So(body["premium"], ShouldEqual, 11541.0)
				So(body["currency"], ShouldEqual, "INR")
				So(body["artifact_version"], ShouldEqual, "2024.1-linear")
				So(body["quote_id"], ShouldNotBeEmpty)
				So(body["cached"], ShouldEqual, false)
			})

			Convey("And posting it again should be served from the cache", func() {
				again := decode(do(mux, http.MethodPost, "/predict", scenarioJSON))
				So(again["cached"], ShouldEqual, true)
				So(again["premium"], ShouldEqual, 11541.0)
			})
		})

		Convey("When the profile breaks the schema", func() {
			body := strings.Replace(scenarioJSON, `"Age": 35`, `"Age": 35.5`, 1)
			w := do(mux, http.MethodPost, "/predict", body)

			Convey("Then it should return 422 naming the field", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				resp := decode(w)
				So(resp["code"], ShouldEqual, "validation_error")
				So(resp["field"], ShouldEqual, "Age")
				So(resp["message"], ShouldNotBeEmpty)
			})
		})

		Convey("When the profile carries an unknown key", func() {
			body := strings.Replace(scenarioJSON, `"Age": 35`, `"Age": 35, "Height": 180`, 1)
			w := do(mux, http.MethodPost, "/predict", body)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decode(w)["field"], ShouldEqual, "Height")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/predict", "{not json")

			Convey("Then it should return 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When /predict is called with GET", func() {
			w := do(mux, http.MethodGet, "/predict", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When explaining a profile", func() {
			w := do(mux, http.MethodPost, "/predict/explain", scenarioJSON)

			Convey("Then it should return the breakdown", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(len(body["columns"].([]any)), ShouldEqual, 18)
				So(len(body["features"].([]any)), ShouldEqual, 18)
				So(body["premium"], ShouldEqual, 11541.0)
				So(body["risk"].(map[string]any)["medical_risk"], ShouldEqual, 0.0)
			})
		})

		Convey("When posting a batch", func() {
			bad := strings.Replace(scenarioJSON, `"Smoking Status": "No Smoking"`, `"Smoking Status": "Heavy"`, 1)
			w := do(mux, http.MethodPost, "/predict/batch", fmt.Sprintf(`{"profiles":[%s,%s]}`, scenarioJSON, bad))

			Convey("Then each result should be reported by index", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				results := decode(w)["results"].([]any)
				So(len(results), ShouldEqual, 2)
				first := results[0].(map[string]any)
				second := results[1].(map[string]any)
				So(first["premium"], ShouldEqual, 11541.0)
				So(second["index"], ShouldEqual, 1.0)
				So(second["field"], ShouldEqual, "Smoking Status")
				So(second["premium"], ShouldBeNil)
			})
		})

		Convey("When the batch is too large", func() {
			profiles := strings.TrimSuffix(strings.Repeat(scenarioJSON+",", 6), ",")
			w := do(mux, http.MethodPost, "/predict/batch", `{"profiles":[`+profiles+`]}`)
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})

		Convey("When the batch has no profiles key", func() {
			w := do(mux, http.MethodPost, "/predict/batch", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When reading the schema and the model", func() {
			schema := do(mux, http.MethodGet, "/schema", "")
			info := do(mux, http.MethodGet, "/model", "")

			Convey("Then both should describe the engine", func() {
				So(schema.Code, ShouldEqual, http.StatusOK)
				fields := decode(schema)["fields"].([]any)
				So(len(fields), ShouldEqual, 12)
				dependants := fields[1].(map[string]any)
				So(dependants["name"], ShouldEqual, "Number of Dependants")
				So(dependants["min"], ShouldEqual, 0.0)
				So(dependants["max"], ShouldEqual, 20.0)
				plan := fields[4].(map[string]any)
				_, hasMin := plan["min"]
				So(hasMin, ShouldBeFalse)
				So(info.Code, ShouldEqual, http.StatusOK)
				So(decode(info)["version"], ShouldEqual, "2024.1-linear")
			})
		})

		Convey("When probing health, readiness and stats", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodGet, "/readyz", "").Code, ShouldEqual, http.StatusOK)
			stats := do(mux, http.MethodGet, "/stats", "")
			So(stats.Code, ShouldEqual, http.StatusOK)
			body := decode(stats)
			So(body["started"], ShouldEqual, true)
			So(body["runtime"], ShouldNotBeNil)
		})
	})
}

func TestServer_FailureMapping(t *testing.T) {
	Convey("Given dependencies that fail", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{service.ErrNotStarted, http.StatusServiceUnavailable, "not_ready"},
			{fmt.Errorf("self-check: %w", scoring.ErrModelShape), http.StatusServiceUnavailable, "model_error"},
			{service.ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
			{service.ErrBatchTooLarge, http.StatusRequestEntityTooLarge, "batch_too_large"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}

		for _, tc := range cases {
			Convey(fmt.Sprintf("When the service returns %v", tc.err), func() {
				mux := newMux(&mockDependencies{err: tc.err})
				w := do(mux, http.MethodPost, "/predict/batch", `{"profiles":[]}`)

				Convey("Then the status and code should follow the error kind", func() {
					So(w.Code, ShouldEqual, tc.status)
					So(decode(w)["code"], ShouldEqual, tc.code)
				})
			})
		}

		Convey("When the service is not ready", func() {
			mux := newMux(&mockDependencies{err: service.ErrNotStarted})

			Convey("Then readiness and model info should report 503", func() {
				So(do(mux, http.MethodGet, "/readyz", "").Code, ShouldEqual, http.StatusServiceUnavailable)
				So(do(mux, http.MethodGet, "/model", "").Code, ShouldEqual, http.StatusServiceUnavailable)
				So(do(mux, http.MethodPost, "/predict", scenarioJSON).Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a server limited to a burst of two", t, func() {
		mux := newMux(&mockDependencies{err: service.ErrNotStarted, ready: true}, api.WithRateLimit(0.001, 2))

		codes := make([]int, 3)
		for i := range codes {
			codes[i] = do(mux, http.MethodPost, "/predict", scenarioJSON).Code
		}

		Convey("Then the third prediction should be rejected", func() {
			So(codes[0], ShouldEqual, http.StatusServiceUnavailable)
			So(codes[1], ShouldEqual, http.StatusServiceUnavailable)
			So(codes[2], ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("Then unlimited routes should stay reachable", func() {
			So(do(mux, http.MethodGet, "/readyz", "").Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a non-positive rate", t, func() {
		So(api.NewRateLimiter(0, 10), ShouldBeNil)
	})
}

func TestErrors(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("unexpected EOF")
		err := api.WrapKind("api.predict", api.ErrBadRequest, cause)

		Convey("Then both the kind and the cause should be matchable", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.predict: bad request: unexpected EOF")
			So(api.Wrap("op", nil), ShouldBeNil)
			So(api.NewKind("op", api.ErrNotReady).Error(), ShouldEqual, "op: engine not ready")
		})
	})
}
