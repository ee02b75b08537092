package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/compass/internal/adapters/http/api"
	"github.com/okian/compass/internal/domain/classifier"
	"github.com/okian/compass/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type failingModel struct{}

func (failingModel) Predict([][]float64) ([]int, error) { return nil, errors.New("boom") }
func (failingModel) PredictProba([][]float64) ([][]float64, error) {
	return nil, errors.New("boom")
}

func newMux(model api.Predictor) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(model).Register(context.Background(), mux)
	return mux
}

func testModel() *classifier.Model {
	return &classifier.Model{
		Classes:   []int{0, 1},
		Coef:      [][]float64{{-1, 0}, {1, 0}},
		Intercept: []float64{0, 0},
	}
}

func post(mux http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

type predictBody struct {
	Predictions []int     `json:"predictions"`
	Confidences []float64 `json:"confidences"`
	Error       string    `json:"error"`
}

func decode(rec *httptest.ResponseRecorder) predictBody {
	var b predictBody
	_ = json.Unmarshal(rec.Body.Bytes(), &b)
	return b
}

func TestPredictEndpoint(t *testing.T) {
	Convey("Given a prediction server with a loaded model", t, func() {
		mux := newMux(testModel())

		Convey("When posting a 1-D feature vector", func() {
			rec := post(mux, `{"features": [2, 0]}`)
			b := decode(rec)

			Convey("Then it is treated as exactly one sample", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(b.Predictions, ShouldResemble, []int{1})
				So(len(b.Confidences), ShouldEqual, 1)
			})
		})

		Convey("When posting a 2-D batch", func() {
			rows := [][]float64{{2, 0}, {-3, 1}, {0.1, 5}}
			raw, _ := json.Marshal(map[string]any{"features": rows})
			rec := post(mux, string(raw))
			b := decode(rec)

			Convey("Then each confidence is the max class probability within [0,1]", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(b.Predictions, ShouldResemble, []int{1, 0, 1})
				proba, err := testModel().PredictProba(rows)
				So(err, ShouldBeNil)
				for i, p := range proba {
					want := p[0]
					if p[1] > want {
						want = p[1]
					}
					So(b.Confidences[i], ShouldAlmostEqual, want, 1e-12)
					So(b.Confidences[i], ShouldBeBetweenOrEqual, 0.0, 1.0)
				}
			})
		})

		Convey("When features are missing or empty", func() {
			for _, body := range []string{`{}`, `{"features": null}`, `{"features": []}`, `{"features": 0}`} {
				rec := post(mux, body)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(rec).Error, ShouldEqual, "No features provided")
			}
		})

		Convey("When the body is not JSON", func() {
			Convey("Then it fails with 500 and the parse error", func() {
				for _, body := range []string{`features=1`, `{"features": [[1, 2]]`, ``} {
					rec := post(mux, body)
					So(rec.Code, ShouldEqual, http.StatusInternalServerError)
					So(decode(rec).Error, ShouldContainSubstring, "bad request")
				}
			})
		})

		Convey("When inference fails", func() {
			cases := []string{
				`{"features": [[1, 2], [3]]}`,
				`{"features": [1, 2, 3]}`,
				`{"features": ["a", "b"]}`,
				`{"features": "text"}`,
			}
			for _, body := range cases {
				rec := post(mux, body)
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(rec).Error, ShouldNotBeEmpty)
			}
		})

		Convey("When using the wrong method", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predict", http.NoBody))
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given a prediction server without a model", t, func() {
		mux := newMux(nil)
		rec := post(mux, `{"features": [1, 2]}`)

		Convey("Then predictions are refused with 500", func() {
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode(rec).Error, ShouldEqual, "Model not loaded")
		})

		Convey("Then the model check comes before input validation", func() {
			rec := post(mux, `{}`)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})

	Convey("Given a model that errors", t, func() {
		rec := post(newMux(failingModel{}), `{"features": [1, 2]}`)

		So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		So(decode(rec).Error, ShouldEqual, "boom")
	})
}

func TestHealthAndMetrics(t *testing.T) {
	Convey("Given prediction servers", t, func() {
		Convey("When the model is loaded", func() {
			rec := httptest.NewRecorder()
			newMux(testModel()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			Convey("Then health reports ok and the model state", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body["status"], ShouldEqual, "ok")
				So(body["service"], ShouldEqual, "predict")
				So(body["model_loaded"], ShouldEqual, true)
			})
		})

		Convey("When the model is missing", func() {
			rec := httptest.NewRecorder()
			newMux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
			So(rec.Body.String(), ShouldContainSubstring, `"model_loaded":false`)
		})

		Convey("When scraping metrics after a prediction", func() {
			mux := newMux(testModel())
			_ = post(mux, `{"features": [1, 2]}`)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

			Convey("Then the prediction counters are exposed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "compass_predictions_total")
				So(rec.Body.String(), ShouldContainSubstring, "compass_http_requests_total")
			})
		})
	})
}
