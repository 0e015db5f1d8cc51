package metrics

import "sync/atomic"

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

// GatewayStats counts callbacks per gateway. Succeeded/Failed reflect the
// embedded protocol code, not the HTTP status (which is always 200).
type GatewayStats struct {
	Received  Counter
	Succeeded Counter
	Failed    Counter
}

func (g *GatewayStats) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"received":  g.Received.Load(),
		"succeeded": g.Succeeded.Load(),
		"failed":    g.Failed.Load(),
	}
}
