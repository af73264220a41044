// Package metrics defines the sink interface the simulator reports emissions,
// import runs and active plan counts to. Concrete sinks are registered by
// name through RegisterSink and built from configuration with
// BuildSink, which returns a MultiSink when several are configured. Sinks
// holding clients implement Closer and are released with CloseSink.
package metrics
