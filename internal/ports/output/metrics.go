package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncDocumentsProcessed increments the processed document counter.
	IncDocumentsProcessed(status string)

	// ObserveProcessingDuration records how long a document took to process.
	ObserveProcessingDuration(format string, duration time.Duration)

	// IncPipelineErrors counts a rejected call stream by error kind.
	IncPipelineErrors(kind string)

	// IncShapesBegun counts shapes begun in a pipeline.
	IncShapesBegun(topology, shapeType string)

	// IncFiguresBegun counts figures begun in a pipeline.
	IncFiguresBegun(topology string)

	// IncShapesBuilt counts completed top-level shapes.
	IncShapesBuilt(shapeType string)

	// SetDocumentsLoaded sets the number of documents in the catalog.
	SetDocumentsLoaded(count int)

	// SetDocumentsValid sets the number of valid documents in the catalog.
	SetDocumentsValid(count int)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records storage operation duration.
	ObserveStorageDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncDocumentsProcessed implements MetricsCollector.
func (n *NoOpMetrics) IncDocumentsProcessed(_ string) {}

// ObserveProcessingDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveProcessingDuration(_ string, _ time.Duration) {}

// IncPipelineErrors implements MetricsCollector.
func (n *NoOpMetrics) IncPipelineErrors(_ string) {}

// IncShapesBegun implements MetricsCollector.
func (n *NoOpMetrics) IncShapesBegun(_, _ string) {}

// IncFiguresBegun implements MetricsCollector.
func (n *NoOpMetrics) IncFiguresBegun(_ string) {}

// IncShapesBuilt implements MetricsCollector.
func (n *NoOpMetrics) IncShapesBuilt(_ string) {}

// SetDocumentsLoaded implements MetricsCollector.
func (n *NoOpMetrics) SetDocumentsLoaded(_ int) {}

// SetDocumentsValid implements MetricsCollector.
func (n *NoOpMetrics) SetDocumentsValid(_ int) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}
