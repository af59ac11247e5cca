package internal

import "expvar"

var (
	deliveriesTotal   = expvar.NewMap("agenthooks_deliveries_total")
	invalidSignatures = expvar.NewMap("agenthooks_invalid_signatures_total")
	unknownEvents     = expvar.NewMap("agenthooks_unknown_events_total")
	dispatchMisses    = expvar.NewMap("agenthooks_dispatch_misses_total")
	publishErrors     = expvar.NewMap("agenthooks_publish_errors_total")
)

func IncDelivery(provider string) {
	deliveriesTotal.Add(provider, 1)
}

func IncInvalidSignature(provider string) {
	invalidSignatures.Add(provider, 1)
}

func IncUnknownEvent(provider string) {
	unknownEvents.Add(provider, 1)
}

func IncDispatchMiss(provider string) {
	dispatchMisses.Add(provider, 1)
}

func IncPublishError(driver string) {
	publishErrors.Add(driver, 1)
}
