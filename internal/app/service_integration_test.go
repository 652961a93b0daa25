package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/synaptic/internal/adapters/http/api"
	"github.com/okian/synaptic/internal/adapters/repository"
	service "github.com/okian/synaptic/internal/app"
	"github.com/okian/synaptic/internal/domain/ability"
	. "github.com/smartystreets/goconvey/convey"
)

// startServer runs a wall clock service behind the HTTP API.
func startServer(t *testing.T, opts ...service.Option) (*service.Service, *httptest.Server, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "integration.db")
	base := []service.Option{
		service.WithDBPath(dbPath),
		service.WithTickInterval(5 * time.Millisecond),
		service.WithSeed(11),
		service.WithSpawnInterval(time.Hour),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}

	mux := http.NewServeMux()
	server := api.NewServer(svc, svc.Reports(), svc, api.WithCommandTimeout(2*time.Second))
	server.Register(context.Background(), mux)
	return svc, httptest.NewServer(mux), dbPath
}

func post(url, key string) (*http.Response, map[string]interface{}, error) {
	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		return nil, nil, err
	}
	if key != "" {
		req.Header.Set(api.IdempotencyKeyHeader, key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	var body map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body, err
}

// eventually polls cond until it holds or the timeout passes.
func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a running service behind the HTTP API", t, func() {
		svc, ts, _ := startServer(t)
		defer svc.Stop()
		defer ts.Close()

		Convey("When the frame clock runs", func() {
			ok := eventually(2*time.Second, func() bool {
				ticks, _ := svc.GetStats()["ticks"].(uint64)
				return ticks > 3
			})

			Convey("Then frames advance on their own", func() {
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When switching the feed to simulated data", func() {
			resp, body, err := post(ts.URL+"/feed/simulate", "")
			So(err, ShouldBeNil)

			Convey("Then the feed streams and reports connected samples", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["state"], ShouldEqual, "simulated")
				So(eventually(time.Second, func() bool { return svc.Report().EEG.Connected }), ShouldBeTrue)
			})
		})

		Convey("When activating an ability with an idempotency key", func() {
			url := ts.URL + "/abilities/" + ability.DendriticLightning + "/activate"
			resp, body, err := post(url, "cast-1")
			So(err, ShouldBeNil)

			Convey("Then the ability fires once", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["status"], ShouldEqual, "activated")
				So(body["duplicate"], ShouldEqual, false)
				So(eventually(time.Second, func() bool { return svc.Snapshot().Score == 10 }), ShouldBeTrue)
			})

			Convey("And a retry with the same key is replayed", func() {
				again, body, err := post(url, "cast-1")
				So(err, ShouldBeNil)
				So(again.StatusCode, ShouldEqual, http.StatusOK)
				So(body["duplicate"], ShouldEqual, true)
				So(svc.Snapshot().AbilitiesUsed, ShouldEqual, 1)
			})

			Convey("And a new key is refused by the cooldown", func() {
				again, body, err := post(url, "cast-2")
				So(err, ShouldBeNil)
				So(again.StatusCode, ShouldEqual, http.StatusConflict)
				So(body["code"], ShouldEqual, "not_ready")
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a running service behind the HTTP API", t, func() {
		svc, ts, _ := startServer(t)
		defer svc.Stop()
		defer ts.Close()

		Convey("When many clients activate the same ability at once", func() {
			const clients = 20
			url := ts.URL + "/abilities/" + ability.SerotoninTsunami + "/activate"

			var (
				wg    sync.WaitGroup
				mu    sync.Mutex
				codes = map[int]int{}
			)
			for i := 0; i < clients; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					resp, _, err := post(url, fmt.Sprintf("client-%d", i))
					if err != nil {
						return
					}
					mu.Lock()
					codes[resp.StatusCode]++
					mu.Unlock()
				}(i)
			}
			wg.Wait()

			Convey("Then exactly one activation wins the cooldown", func() {
				So(codes[http.StatusOK], ShouldEqual, 1)
				So(codes[http.StatusConflict], ShouldEqual, clients-1)
				So(svc.Snapshot().AbilitiesUsed, ShouldEqual, 1)
			})
		})

		Convey("When many clients retry one key at once", func() {
			const clients = 10
			url := ts.URL + "/abilities/" + ability.DendriticLightning + "/activate"

			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				statuses []string
			)
			for i := 0; i < clients; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					resp, body, err := post(url, "shared")
					if err != nil {
						return
					}
					mu.Lock()
					statuses = append(statuses, fmt.Sprintf("%d/%v", resp.StatusCode, body["code"]))
					mu.Unlock()
				}()
			}
			wg.Wait()

			Convey("Then the ability fires once and no request is refused by the cooldown", func() {
				So(len(statuses), ShouldEqual, clients)
				So(statuses, ShouldNotContain, "409/not_ready")
				So(svc.Snapshot().AbilitiesUsed, ShouldEqual, 1)
			})
		})
	})
}

func TestServiceRecording(t *testing.T) {
	Convey("Given a service recording frequently", t, func() {
		svc, ts, dbPath := startServer(t, service.WithRecordInterval(20*time.Millisecond))
		defer svc.Stop()
		defer ts.Close()
		session := svc.SessionID()

		Convey("When it runs for a while and stops", func() {
			So(eventually(2*time.Second, func() bool {
				n, _ := svc.GetStats()["reports_recorded"].(int)
				return n >= 2
			}), ShouldBeTrue)

			served := eventually(2*time.Second, func() bool {
				resp, err := http.Get(ts.URL + "/sessions/" + session + "/reports?format=json")
				if err != nil {
					return false
				}
				resp.Body.Close()
				return resp.StatusCode == http.StatusOK
			})
			So(served, ShouldBeTrue)

			svc.Stop()

			Convey("Then the reports survive in the database", func() {
				store, err := repository.NewSQLiteStore(context.Background(), dbPath)
				So(err, ShouldBeNil)
				defer store.Close()

				sessions, err := store.Sessions(context.Background())
				So(err, ShouldBeNil)
				So(len(sessions), ShouldEqual, 1)
				So(sessions[0].SessionID, ShouldEqual, session)
				So(sessions[0].Reports, ShouldBeGreaterThanOrEqualTo, 3)
			})
		})
	})
}

func TestServiceIntegration_TimedOutActivation(t *testing.T) {
	Convey("Given a manually clocked service behind an API with a short command timeout", t, func() {
		svc, _ := newManualService(t)
		defer svc.Stop()
		mux := http.NewServeMux()
		api.NewServer(svc, svc.Reports(), svc, api.WithCommandTimeout(20*time.Millisecond)).
			Register(context.Background(), mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()
		url := ts.URL + "/abilities/" + ability.DendriticLightning + "/activate"
		ctx := context.Background()

		Convey("When an activation times out before a frame runs", func() {
			first, body, err := post(url, "slow-1")
			So(err, ShouldBeNil)
			So(first.StatusCode, ShouldEqual, http.StatusGatewayTimeout)
			So(body["code"], ShouldEqual, "timeout")

			Convey("And a retry arrives while it is still queued", func() {
				again, body, err := post(url, "slow-1")
				So(err, ShouldBeNil)

				Convey("Then the retry is told it is in progress", func() {
					So(again.StatusCode, ShouldEqual, http.StatusConflict)
					So(body["code"], ShouldEqual, "in_progress")
				})
			})

			Convey("And the next frame runs it and the cooldown passes", func() {
				_, err := svc.Step(ctx, 0.1)
				So(err, ShouldBeNil)
				So(svc.Snapshot().AbilitiesUsed, ShouldEqual, 1)
				for range 25 {
					_, err = svc.Step(ctx, 0.1)
					So(err, ShouldBeNil)
				}

				retry, body, err := post(url, "slow-1")
				So(err, ShouldBeNil)
				_, err = svc.Step(ctx, 0.1)
				So(err, ShouldBeNil)

				Convey("Then a retry with the same key replays the first activation", func() {
					So(retry.StatusCode, ShouldEqual, http.StatusOK)
					So(body["status"], ShouldEqual, "activated")
					So(body["duplicate"], ShouldEqual, true)
					So(svc.Snapshot().AbilitiesUsed, ShouldEqual, 1)
					So(svc.Snapshot().Score, ShouldEqual, 10)
				})
			})
		})
	})
}
