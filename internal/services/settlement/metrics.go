package settlement

// MetricsCollector receives settlement activity counters.
type MetricsCollector interface {
	RecordSettlement(txType string, outcome Outcome, amount float64)
	RecordReconciliation(result string)
	RecordError(operation, errType string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordSettlement(string, Outcome, float64) {}
func (n *NoopMetricsCollector) RecordReconciliation(string)              {}
func (n *NoopMetricsCollector) RecordError(string, string)               {}
