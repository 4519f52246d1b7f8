package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/mazeball/internal/adapters/http/api"
	"github.com/okian/mazeball/internal/adapters/repository"
	service "github.com/okian/mazeball/internal/app"
	"github.com/okian/mazeball/internal/domain/model"
	"github.com/okian/mazeball/internal/domain/nickname"
	"github.com/okian/mazeball/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// stubDeps returns canned answers and records calls.
type stubDeps struct {
	boards    types.Leaderboards
	syncErr   error
	renameErr error
	pingErr   error

	gotDevice string
	gotScores []model.Score
	gotName   string
}

func (s *stubDeps) FetchAll(context.Context) types.Leaderboards { return s.boards }

func (s *stubDeps) Sync(_ context.Context, deviceID string, scores []model.Score) (types.Leaderboards, error) {
	s.gotDevice, s.gotScores = deviceID, scores
	if s.syncErr != nil {
		return nil, s.syncErr
	}
	return s.boards, nil
}

func (s *stubDeps) Rename(_ context.Context, deviceID, name string) error {
	s.gotDevice, s.gotName = deviceID, name
	return s.renameErr
}

func (s *stubDeps) Ping(context.Context) error { return s.pingErr }

func (s *stubDeps) GetStats() service.Stats {
	return service.Stats{Levels: 2, Entries: 5, NamedEntries: 3, Devices: 4}
}

func newHandler(deps api.Dependencies) http.Handler {
	r := api.NewRouter(time.Second)
	api.NewServer(deps).Register(context.Background(), r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestLeaderboardRoutes(t *testing.T) {
	Convey("Given the API with stubbed dependencies", t, func() {
		deps := &stubDeps{boards: types.Leaderboards{
			1: {{DeviceID: "A", PlayerName: "Alice", TimeMillis: 4500}},
		}}
		h := newHandler(deps)

		Convey("When fetching all leaderboards", func() {
			w := do(h, http.MethodGet, "/leaderboard/all", "")

			Convey("Then level ids are string keys with the client field names", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				So(strings.TrimSpace(w.Body.String()), ShouldEqual,
					`{"1":[{"deviceId":"A","playerName":"Alice","timeMillis":4500}]}`)
			})
		})

		Convey("When syncing scores", func() {
			w := do(h, http.MethodPost, "/leaderboard/sync",
				`{"deviceId":"A","scores":[{"levelId":1,"deviceId":"A","timeMillis":4500},{"levelId":2,"deviceId":"X","timeMillis":9000}]}`)

			Convey("Then the request-level device id and scores reach the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotDevice, ShouldEqual, "A")
				So(deps.gotScores, ShouldResemble, []model.Score{{LevelID: 1, TimeMillis: 4500}, {LevelID: 2, TimeMillis: 9000}})
				var got types.Leaderboards
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldResemble, deps.boards)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(h, http.MethodPost, "/leaderboard/sync", `{"deviceId":`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the body exceeds the size limit", func() {
			w := do(h, http.MethodPost, "/leaderboard/sync", `{"deviceId":"`+strings.Repeat("x", 1<<20)+`"}`)

			Convey("Then it is rejected as too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(decodeError(w)["code"], ShouldEqual, "too_large")
			})
		})

		Convey("When the service rejects the input", func() {
			deps.syncErr = fmt.Errorf("%w: deviceId is required", service.ErrInvalidRequest)
			w := do(h, http.MethodPost, "/leaderboard/sync", `{"deviceId":"","scores":[]}`)

			Convey("Then the reason is reported with 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["message"], ShouldContainSubstring, "deviceId is required")
			})
		})

		Convey("When the store fails", func() {
			deps.syncErr = &repository.StorageError{Op: "upsert_entry", Err: errors.New("disk I/O error")}
			w := do(h, http.MethodPost, "/leaderboard/sync", `{"deviceId":"A","scores":[]}`)

			Convey("Then a 500 storage_error hides the cause", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "storage_error")
				So(body["message"], ShouldNotContainSubstring, "disk")
			})
		})

		Convey("When the store rejects a row", func() {
			deps.syncErr = fmt.Errorf("sync A: %w", &repository.StorageError{Op: "upsert_entry", Err: errors.New("CHECK constraint failed")})
			w := do(h, http.MethodPost, "/leaderboard/sync", `{"deviceId":"A","scores":[]}`)

			Convey("Then it is still reported as a storage failure", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["code"], ShouldEqual, "storage_error")
			})
		})

		Convey("When something unexpected fails", func() {
			deps.syncErr = errors.New("boom")
			w := do(h, http.MethodPost, "/leaderboard/sync", `{"deviceId":"A"}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(decodeError(w)["code"], ShouldEqual, "internal_error")
		})

		Convey("When using the wrong method or path", func() {
			So(do(h, http.MethodGet, "/leaderboard/sync", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(do(h, http.MethodGet, "/leaderboard/nope", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestNicknameRoute(t *testing.T) {
	Convey("Given the API with stubbed dependencies", t, func() {
		deps := &stubDeps{}
		h := newHandler(deps)

		Convey("When the rename succeeds", func() {
			w := do(h, http.MethodPost, "/user/nickname", `{"deviceId":"A","newNickname":"Alice"}`)

			Convey("Then 200 is returned with an empty body", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.Len(), ShouldEqual, 0)
				So(deps.gotName, ShouldEqual, "Alice")
			})
		})

		Convey("When the nickname is taken", func() {
			deps.renameErr = fmt.Errorf("rename B: %w", nickname.ErrNicknameConflict)
			w := do(h, http.MethodPost, "/user/nickname", `{"deviceId":"B","newNickname":"alice"}`)

			Convey("Then 409 explains the conflict", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decodeError(w), ShouldResemble, map[string]string{
					"code":    "nickname_taken",
					"message": "Nickname is already taken",
				})
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given the API with stubbed dependencies", t, func() {
		deps := &stubDeps{}
		h := newHandler(deps)

		Convey("Then /healthz reports ok", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"status":"ok"}`)
		})

		Convey("Then /healthz reports an unreachable store", func() {
			deps.pingErr = errors.New("closed")
			So(do(h, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Then /stats returns the counters", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"levels":2,"entries":5,"namedEntries":3,"devices":4}`)
			So(w.Header().Get("Cache-Control"), ShouldEqual, "no-store")
		})

		Convey("Then /metrics exposes request counters", func() {
			_ = do(h, http.MethodGet, "/leaderboard/all", "")
			w := do(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "mazeball_leaderboard_http_requests_total")
		})
	})
}

func TestEndToEnd(t *testing.T) {
	Convey("Given the API over a real service and store", t, func() {
		ctx := context.Background()
		store, err := repository.Open(ctx, filepath.Join(t.TempDir(), "mazeball.db"))
		So(err, ShouldBeNil)
		svc := service.New(store)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		srv := httptest.NewServer(newHandler(svc))
		defer srv.Close()

		post := func(path, body string) *http.Response {
			resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			return resp
		}
		readBoards := func(resp *http.Response) types.Leaderboards {
			defer resp.Body.Close()
			var out types.Leaderboards
			So(json.NewDecoder(resp.Body).Decode(&out), ShouldBeNil)
			return out
		}

		Convey("When a device plays, names itself and improves", func() {
			So(readBoards(post("/leaderboard/sync", `{"deviceId":"A","scores":[{"levelId":1,"deviceId":"A","timeMillis":5000}]}`)), ShouldBeEmpty)

			resp := post("/user/nickname", `{"deviceId":"A","newNickname":"Alice"}`)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			boards := readBoards(post("/leaderboard/sync", `{"deviceId":"A","scores":[{"levelId":1,"deviceId":"A","timeMillis":4500}]}`))

			Convey("Then the merged board is returned and B cannot take the name", func() {
				So(boards, ShouldResemble, types.Leaderboards{1: {{DeviceID: "A", PlayerName: "Alice", TimeMillis: 4500}}})

				conflict := post("/user/nickname", `{"deviceId":"B","newNickname":"alice"}`)
				conflict.Body.Close()
				So(conflict.StatusCode, ShouldEqual, http.StatusConflict)

				worse := readBoards(post("/leaderboard/sync", `{"deviceId":"A","scores":[{"levelId":1,"deviceId":"A","timeMillis":4800}]}`))
				So(worse[1][0].TimeMillis, ShouldEqual, int64(4500))

				bad := post("/leaderboard/sync", `{"deviceId":"A","scores":[{"levelId":1,"timeMillis":-4}]}`)
				bad.Body.Close()
				So(bad.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}
