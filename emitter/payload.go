package emitter

import (
	"time"

	"github.com/jamesmcclain/chipsupplier"
)

// statsPayload is the wire form of one snapshot. msgpack keeps it compact
// enough to publish every few seconds from a fleet of trainers.
type statsPayload struct {
	Instance  string `msgpack:"instance"`
	EmittedAt int64  `msgpack:"emitted_at_ms"`
	Mode      string `msgpack:"mode"`

	ChipsProduced    uint64 `msgpack:"chips_produced"`
	ChipsDelivered   uint64 `msgpack:"chips_delivered"`
	ReadErrors       uint64 `msgpack:"read_errors"`
	SlotBusy         uint64 `msgpack:"slot_busy"`
	PredicateRejects uint64 `msgpack:"predicate_rejects"`
	CoverageRejects  uint64 `msgpack:"coverage_rejects"`

	Workers []workerPayload `msgpack:"workers"`

	LatencySamples int     `msgpack:"latency_samples"`
	LatencyMeanS   float64 `msgpack:"latency_mean_s"`
	LatencyStdDevS float64 `msgpack:"latency_stddev_s"`
	LatencyMaxS    float64 `msgpack:"latency_max_s"`
}

type workerPayload struct {
	Worker        int    `msgpack:"worker"`
	ChipsProduced uint64 `msgpack:"chips_produced"`
	ReadErrors    uint64 `msgpack:"read_errors"`
	IsIdle        bool   `msgpack:"is_idle"`
}

func buildPayload(instance string, now time.Time, s chipsupplier.SupplierStats) statsPayload {
	p := statsPayload{
		Instance:  instance,
		EmittedAt: now.UnixMilli(),
		Mode:      s.Mode.String(),

		ChipsProduced:    s.ChipsProduced,
		ChipsDelivered:   s.ChipsDelivered,
		ReadErrors:       s.ReadErrors,
		SlotBusy:         s.SlotBusy,
		PredicateRejects: s.PredicateRejects,
		CoverageRejects:  s.CoverageRejects,

		LatencySamples: s.ReadLatency.Samples,
		LatencyMeanS:   s.ReadLatency.Mean,
		LatencyStdDevS: s.ReadLatency.StdDev,
		LatencyMaxS:    s.ReadLatency.Max,
	}
	for _, w := range s.Workers {
		p.Workers = append(p.Workers, workerPayload{
			Worker:        w.Worker,
			ChipsProduced: w.ChipsProduced,
			ReadErrors:    w.ReadErrors,
			IsIdle:        w.IsIdle,
		})
	}
	return p
}
