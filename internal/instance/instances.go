package instance

import (
	"github.com/redis/go-redis/v9"

	"github.com/fabriq/collab/internal/svc/broadcast"
	"github.com/fabriq/collab/internal/svc/identity"
	"github.com/fabriq/collab/internal/svc/presences"
	"github.com/fabriq/collab/internal/svc/transport"
)

type Instances struct {
	Redis      redis.UniversalClient
	Transport  transport.Instance
	Identity   identity.Instance
	Presences  presences.Instance
	Broadcast  broadcast.Instance
	Prometheus Prometheus
}
