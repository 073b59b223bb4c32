package pprof

import (
	"net/http"
	_ "net/http/pprof"

	"go.uber.org/zap"

	"github.com/fabriq/collab/internal/global"
)

func New(gctx global.Context) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		if err := http.ListenAndServe(gctx.Config().PProf.Bind, nil); err != nil {
			zap.S().Fatalw("pprof failed to listen",
				"error", err,
			)
		}
	}()

	go func() {
		<-gctx.Done()
		close(done)
	}()

	return done
}
