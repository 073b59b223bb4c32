package health

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/fabriq/collab/internal/configure"
	"github.com/fabriq/collab/internal/global"
	"github.com/fabriq/collab/internal/svc/transport"
	"github.com/fabriq/collab/internal/testutil"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	config := &configure.Config{}
	config.Health.Enabled = true
	config.Health.Bind = "127.0.1.1:3921"

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))
	gCtx.Inst().Transport = transport.NewMemory()

	done := New(gCtx)

	time.Sleep(time.Millisecond * 50)

	resp, err := http.DefaultClient.Get("http://127.0.1.1:3921")
	testutil.IsNil(t, err, "No error")
	_ = resp.Body.Close()
	testutil.Assert(t, http.StatusOK, resp.StatusCode, "response code")

	cancel()

	<-done
}

func TestHealthTransportDown(t *testing.T) {
	t.Parallel()

	config := &configure.Config{}
	config.Health.Enabled = true
	config.Health.Bind = "127.0.1.1:3922"

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))

	tr := transport.NewMemory()
	tr.SetConnected(false)
	gCtx.Inst().Transport = tr

	done := New(gCtx)

	time.Sleep(time.Millisecond * 50)

	resp, err := http.DefaultClient.Get("http://127.0.1.1:3922")
	testutil.IsNil(t, err, "No error")
	_ = resp.Body.Close()
	testutil.Assert(t, http.StatusInternalServerError, resp.StatusCode, "response code")

	cancel()

	<-done
}
