package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/racepick/internal/adapters/repository"
	service "github.com/okian/racepick/internal/app"
	"github.com/okian/racepick/internal/config"
	"github.com/okian/racepick/internal/domain/lineup"
	"github.com/okian/racepick/internal/domain/model"
	"github.com/okian/racepick/internal/domain/prediction"
	"github.com/okian/racepick/internal/synth"
	"github.com/okian/racepick/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func roster(t *testing.T) model.Roster {
	r, err := synth.Generate(context.Background(), synth.Config{
		Teams:          2,
		PlayersPerTeam: 3,
		Matches:        15,
		Seed:           11,
		TeamNames:      []string{"Zoosters", "Sharks"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func newService(path string, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithStore(repository.NewFileStore(path)),
		service.WithTrials(2000),
		service.WithSeed(5),
		service.WithWorkerCount(2),
	}
	return service.New(append(base, opts...)...)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["backend"], ShouldEqual, "file")
			So(stats["maxGames"], ShouldEqual, lineup.DefaultMaxGames)
		})
	})

	Convey("Given a service built from configuration", t, func() {
		cfg := config.New()
		cfg.PredictionsPath = filepath.Join(t.TempDir(), "p.yaml")
		cfg.Trials = 500
		cfg.MaxGames = 4
		svc := service.FromConfig(cfg)

		Convey("Then the configuration is applied", func() {
			stats := svc.GetStats()
			So(stats["trials"], ShouldEqual, 500)
			So(stats["maxGames"], ShouldEqual, 4)
			So(stats["backend"], ShouldEqual, "file")
		})
	})

	Convey("Given a configuration with a redis address", t, func() {
		cfg := config.New()
		cfg.RedisAddr = "localhost:0"
		cfg.RedisKey = "league:predictions"
		cfg.RedisTTL = 2 * time.Hour
		store := service.NewStore(cfg)

		Convey("Then the redis store is selected with the configured key and ttl", func() {
			So(store.Backend(), ShouldEqual, "redis")
			rs, ok := store.(interface {
				Key() string
				TTL() time.Duration
			})
			So(ok, ShouldBeTrue)
			So(rs.Key(), ShouldEqual, "league:predictions")
			So(rs.TTL(), ShouldEqual, 2*time.Hour)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service with an empty store", t, func() {
		path := filepath.Join(t.TempDir(), "predictions.yaml")
		svc := newService(path)
		ctx := context.Background()

		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then it is started without a report", func() {
			So(svc.GetStats()["started"], ShouldEqual, true)
			_, err := svc.Predictions(ctx)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("And starting twice is a no-op", func() {
			So(svc.Start(ctx), ShouldBeNil)
		})

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a corrupt report on disk", t, func() {
		path := filepath.Join(t.TempDir(), "predictions.yaml")
		So(os.WriteFile(path, []byte("outcomes: [:"), 0o600), ShouldBeNil)
		svc := newService(path)

		Convey("Then Start fails", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, repository.ErrCorruptReport), ShouldBeTrue)
		})
	})
}

func TestService_BuildReport(t *testing.T) {
	Convey("Given a started service and a roster", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "predictions.yaml")
		svc := newService(path)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		r := roster(t)

		Convey("When building the report", func() {
			report, err := svc.BuildReport(ctx, r, "Zoosters", "Sharks")
			So(err, ShouldBeNil)

			Convey("Then every pairing is evaluated in roster order", func() {
				So(report.Outcomes, ShouldHaveLength, 9)
				So(report.OurTeam, ShouldEqual, "Zoosters")
				So(report.Outcomes[0].Ours, ShouldEqual, report.OurPlayers[0])
				So(report.Outcomes[1].Theirs, ShouldEqual, report.TheirPlayers[1])
				So(report.Count(prediction.StatusError), ShouldEqual, 0)
			})

			Convey("And it becomes the current report", func() {
				current, err := svc.Predictions(ctx)
				So(err, ShouldBeNil)
				So(current.ID, ShouldEqual, report.ID)
				So(svc.GetStats()["builds"], ShouldEqual, 1)
				So(svc.GetStats()["scored"], ShouldEqual, len(report.Table()))
			})

			Convey("And a fresh service picks it up from the store", func() {
				other := newService(path)
				So(other.Start(ctx), ShouldBeNil)
				defer other.Stop()
				loaded, err := other.Predictions(ctx)
				So(err, ShouldBeNil)
				So(loaded.ID, ShouldEqual, report.ID)
				So(loaded.Outcomes, ShouldHaveLength, 9)
			})

			Convey("And lineup queries rank against it", func() {
				ranking, err := svc.Optimize(ctx, lineup.Query{
					GamesRemaining: 2,
					Ours:           report.OurPlayers,
					Theirs:         report.TheirPlayers,
				})
				So(err, ShouldBeNil)
				So(ranking.Slates, ShouldEqual, 36)
				So(ranking.Candidates, ShouldHaveLength, 3)

				_, err = svc.Optimize(ctx, lineup.Query{
					GamesRemaining: 7,
					Ours:           report.OurPlayers,
					Theirs:         report.TheirPlayers,
				})
				So(errors.Is(err, lineup.ErrSlateTooLarge), ShouldBeTrue)
			})
		})

		Convey("When the same seed builds twice the scores repeat", func() {
			other := newService(filepath.Join(t.TempDir(), "other.yaml"), service.WithWorkerCount(4))
			first, err := svc.BuildReport(ctx, r, "Zoosters", "Sharks")
			So(err, ShouldBeNil)
			second, err := other.BuildReport(ctx, r, "Zoosters", "Sharks")
			So(err, ShouldBeNil)
			So(second.Table(), ShouldResemble, first.Table())
		})

		Convey("When a single worker builds the report inline", func() {
			inline := newService(filepath.Join(t.TempDir(), "inline.yaml"), service.WithWorkerCount(1))
			first, err := inline.BuildReport(ctx, r, "Zoosters", "Sharks")
			So(err, ShouldBeNil)
			pooled, err := svc.BuildReport(ctx, r, "Zoosters", "Sharks")
			So(err, ShouldBeNil)

			Convey("Then it matches the pooled build", func() {
				So(first.Outcomes, ShouldHaveLength, 9)
				So(first.Table(), ShouldResemble, pooled.Table())
			})

			Convey("And a cancelled context stops it", func() {
				cctx, cancel := context.WithCancel(ctx)
				cancel()
				_, err := inline.BuildReport(cctx, r, "Zoosters", "Sharks")
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When a team is unknown", func() {
			_, err := svc.BuildReport(ctx, r, "Zoosters", "Nobody")
			So(errors.Is(err, service.ErrUnknownTeam), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.BuildReport(cctx, r, "Zoosters", "Sharks")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestService_Predict(t *testing.T) {
	Convey("Given a snapshot on disk", t, func() {
		dir := t.TempDir()
		snapshot := filepath.Join(dir, "roster.yaml")
		f, err := os.Create(snapshot)
		So(err, ShouldBeNil)
		So(repository.EncodeSnapshot(f, roster(t)), ShouldBeNil)
		So(f.Close(), ShouldBeNil)

		svc := newService(filepath.Join(dir, "predictions.yaml"))

		Convey("Then Predict builds the report from it", func() {
			report, err := svc.Predict(context.Background(), snapshot, "Sharks", "Zoosters")
			So(err, ShouldBeNil)
			So(report.OurTeam, ShouldEqual, "Sharks")
			So(report.Outcomes, ShouldHaveLength, 9)
		})

		Convey("Then a missing snapshot fails", func() {
			_, err := svc.Predict(context.Background(), filepath.Join(dir, "none.yaml"), "Sharks", "Zoosters")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestService_Race(t *testing.T) {
	Convey("Given two ratings", t, func() {
		svc := service.New()

		Convey("Then the race comes from the handicap table", func() {
			race, err := svc.Race(95, 20)
			So(err, ShouldBeNil)
			So(race, ShouldResemble, model.Race{Ours: 10, Theirs: 2})

			race, err = svc.Race(20, 95)
			So(err, ShouldBeNil)
			So(race, ShouldResemble, model.Race{Ours: 2, Theirs: 10})
		})

		Convey("Then negative ratings fail", func() {
			_, err := svc.Race(-1, 40)
			So(err, ShouldNotBeNil)
		})
	})
}
