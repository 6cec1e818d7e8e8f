package metrics

import "time"

// Metric vars mirroring preconf/metrics.go's grouping: one section per
// subsystem, gauges for point-in-time state, meters for outcome counts,
// timers for per-stage latency.
var (
	AccountCacheSizeGauge      = NewRegisteredGauge("boltsidecar/statecache/size", nil)
	AccountCacheHitMeter       = NewRegisteredMeter("boltsidecar/statecache/hit", nil)
	AccountCacheMissMeter      = NewRegisteredMeter("boltsidecar/statecache/miss", nil)

	RequestAcceptedMeter = NewRegisteredMeter("boltsidecar/rpc/accepted", nil)
	RequestRejectedMeter = NewRegisteredMeter("boltsidecar/rpc/rejected", nil)
	RequestDuplicateMeter = NewRegisteredMeter("boltsidecar/rpc/duplicate", nil)

	ValidationHandleTimer  = NewRegisteredTimer("boltsidecar/validation/handle", nil)
	ConstraintsSignTimer   = NewRegisteredTimer("boltsidecar/constraints/sign", nil)
	DownstreamSubmitTimer  = NewRegisteredTimer("boltsidecar/downstream/submit", nil)

	RemoteSignerFailureMeter = NewRegisteredMeter("boltsidecar/signerclient/failure", nil)
)

// ObserveValidationHandleCost records the time spent running the
// validator + pricing check for one request.
func ObserveValidationHandleCost(start time.Time) {
	ValidationHandleTimer.UpdateSince(start)
}

// ObserveConstraintsSignCost records the time spent in the worker pool
// producing a BLS signature over a ConstraintsMessage.
func ObserveConstraintsSignCost(start time.Time) {
	ConstraintsSignTimer.UpdateSince(start)
}

// ObserveDownstreamSubmitCost records the time spent forwarding a
// SignedConstraints to the downstream sink.
func ObserveDownstreamSubmitCost(start time.Time) {
	DownstreamSubmitTimer.UpdateSince(start)
}
