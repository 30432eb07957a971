package ctaphid

// MetricsReporter receives engine events for external instrumentation.
// Mirrors the WithMetrics(MetricsReporter)/noopMetrics{} pattern used
// throughout the teacher codebase's session/manager/echo types, whose
// actual MetricsReporter definition lives in a file this repository's
// retrieval pack did not retrieve; the interface here is shaped to match
// how it is consumed (internal/metrics.Collector implements it).
type MetricsReporter interface {
	// TransactionCompleted is called once per dispatched transaction,
	// labeled by the command name.
	TransactionCompleted(cmd string)

	// ErrorOccurred is called once per error reply emitted, labeled by
	// the ErrorKind name.
	ErrorOccurred(kind string)

	// ChannelEvicted is called whenever FIFO pressure evicts the oldest
	// channel table entry.
	ChannelEvicted()
}

// noopMetrics discards all events; it is the default when no
// MetricsReporter is supplied via WithMetrics.
type noopMetrics struct{}

func (noopMetrics) TransactionCompleted(string) {}
func (noopMetrics) ErrorOccurred(string)        {}
func (noopMetrics) ChannelEvicted()             {}
