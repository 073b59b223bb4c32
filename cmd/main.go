package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/bugsnag/panicwrap"
	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fabriq/collab/internal/configure"
	"github.com/fabriq/collab/internal/externalapis"
	"github.com/fabriq/collab/internal/global"
	"github.com/fabriq/collab/internal/monitoring"
	"github.com/fabriq/collab/internal/svc/broadcast"
	"github.com/fabriq/collab/internal/svc/health"
	"github.com/fabriq/collab/internal/svc/identity"
	"github.com/fabriq/collab/internal/svc/pprof"
	"github.com/fabriq/collab/internal/svc/presences"
	"github.com/fabriq/collab/internal/svc/prometheus"
	"github.com/fabriq/collab/internal/svc/transport"
)

var (
	Version = "development"
	Unix    = ""
	Time    = "unknown"
	User    = "unknown"
)

func init() {
	if i, err := strconv.Atoi(Unix); err == nil {
		Time = time.Unix(int64(i), 0).Format(time.RFC3339)
	}
}

func main() {
	config := configure.New()

	exitStatus, err := panicwrap.BasicWrap(func(s string) {
		zap.S().Errorw("panic detected",
			"panic", s,
		)
	})
	if err != nil {
		zap.S().Errorw("failed to setup panic handler",
			"error", err,
		)
		os.Exit(2)
	}

	if exitStatus >= 0 {
		os.Exit(exitStatus)
	}

	if !config.NoHeader {
		zap.S().Info("Fabriq Collab Presence")
		zap.S().Infof("Version: %s", Version)
		zap.S().Infof("build.Time: %s", Time)
		zap.S().Infof("build.User: %s", User)
	}

	zap.S().Debugf("MaxProcs: %d", runtime.GOMAXPROCS(0))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))

	{
		switch config.Transport.Mode {
		case configure.TransportModeNats:
			gCtx.Inst().Transport, err = transport.NewNats(transport.NatsOptions{
				URL: config.Nats.URL,
			})
		default:
			gCtx.Inst().Redis = redis.NewUniversalClient(&redis.UniversalOptions{
				Addrs:    config.Redis.Addresses,
				Username: config.Redis.Username,
				Password: config.Redis.Password,
				DB:       config.Redis.Database,
			})

			gCtx.Inst().Transport, err = transport.NewRedis(gCtx, transport.RedisOptions{
				Client: gCtx.Inst().Redis,
			})
		}

		if err != nil {
			zap.S().Fatalw("failed to setup transport",
				"error", err,
			)
		}
	}

	{
		gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{
			Labels: config.Monitoring.Labels,
		})
	}

	{
		gCtx.Inst().Identity = identity.New(identity.Options{
			Token:  config.Backend.Token,
			Secret: config.Backend.TokenSecret,
		})
	}

	{
		var localUserID string
		if user, ok := gCtx.Inst().Identity.Resolve(); ok {
			localUserID = user.ID
		}

		gCtx.Inst().Presences = presences.New(presences.Options{
			ProjectID:   config.Collab.ProjectID,
			LocalUserID: localUserID,
			ShowViewers: config.Collab.ShowViewers,
			Transport:   gCtx.Inst().Transport,
			Metrics:     gCtx.Inst().Prometheus,
		})
	}

	{
		gCtx.Inst().Broadcast = broadcast.New(broadcast.Options{
			ProjectID: config.Collab.ProjectID,
			Identity:  gCtx.Inst().Identity,
			Transport: gCtx.Inst().Transport,
			Sender:    externalapis.NewCollabAPI(config.Backend.URL, config.Backend.Token, gCtx.Inst().Identity.SessionID()),
			Metrics:   gCtx.Inst().Prometheus,
		})
	}

	wg := sync.WaitGroup{}

	if gCtx.Config().Health.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-health.New(gCtx)
		}()
	}
	if gCtx.Config().Monitoring.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-monitoring.New(gCtx)
		}()
	}
	if gCtx.Config().PProf.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-pprof.New(gCtx)
		}()
	}

	done := make(chan struct{})
	go func() {
		<-sig
		go func() {
			select {
			case <-time.After(time.Minute):
			case <-sig:
			}
			zap.S().Fatal("force shutdown")
		}()

		zap.S().Info("shutting down")

		gCtx.Inst().Presences.Dispose()
		gCtx.Inst().Broadcast.Dispose()

		errs := &multierror.Error{}
		errs = multierror.Append(errs, gCtx.Inst().Transport.Close())

		if gCtx.Inst().Redis != nil {
			errs = multierror.Append(errs, gCtx.Inst().Redis.Close())
		}

		if err := errs.ErrorOrNil(); err != nil {
			zap.S().Warnw("shutdown finished with errors",
				"error", err,
			)
		}

		cancel()

		wg.Wait()

		close(done)
	}()

	zap.S().Info("running")

	<-done

	zap.S().Info("shutdown")
	os.Exit(0)
}
