package shared

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceMetrics tracks run counts, outcomes and timings for a service
type ServiceMetrics struct {
	serviceName           string
	totalRequests         int64
	successfulRequests    int64
	failedRequests        int64
	totalProcessingTime   time.Duration
	averageProcessingTime time.Duration
	lastUpdated           time.Time
	counters              map[string]int64
	performance           *PerformanceMetrics
	mutex                 sync.RWMutex
}

// ServiceMetricsSnapshot is a point-in-time copy of ServiceMetrics
type ServiceMetricsSnapshot struct {
	ServiceName           string              `json:"service_name"`
	TotalRequests         int64               `json:"total_requests"`
	SuccessfulRequests    int64               `json:"successful_requests"`
	FailedRequests        int64               `json:"failed_requests"`
	SuccessRate           float64             `json:"success_rate"`
	TotalProcessingTime   time.Duration       `json:"total_processing_time"`
	AverageProcessingTime time.Duration       `json:"average_processing_time"`
	LastUpdated           time.Time           `json:"last_updated"`
	Counters              map[string]int64    `json:"counters"`
	Performance           PerformanceSnapshot `json:"performance"`
}

// NewServiceMetrics creates a new metrics tracker for a service
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		serviceName: serviceName,
		lastUpdated: time.Now(),
		counters:    make(map[string]int64),
		performance: NewPerformanceMetrics(),
	}
}

// RecordRequest records a request with its success status and processing time
func (m *ServiceMetrics) RecordRequest(success bool, processingTime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.totalRequests++
	m.totalProcessingTime += processingTime
	m.averageProcessingTime = time.Duration(int64(m.totalProcessingTime) / m.totalRequests)

	if success {
		m.successfulRequests++
	} else {
		m.failedRequests++
	}

	m.lastUpdated = time.Now()
	m.performance.RecordProcessingTime(processingTime)
}

// IncrementCounter increments a named counter
func (m *ServiceMetrics) IncrementCounter(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.counters[key]++
	m.lastUpdated = time.Now()
}

// GetSuccessRate returns the success rate as a percentage
func (m *ServiceMetrics) GetSuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.successRateLocked()
}

func (m *ServiceMetrics) successRateLocked() float64 {
	if m.totalRequests == 0 {
		return 0.0
	}
	return float64(m.successfulRequests) / float64(m.totalRequests) * 100.0
}

// GetSnapshot returns a thread-safe snapshot of current metrics
func (m *ServiceMetrics) GetSnapshot() ServiceMetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}

	return ServiceMetricsSnapshot{
		ServiceName:           m.serviceName,
		TotalRequests:         m.totalRequests,
		SuccessfulRequests:    m.successfulRequests,
		FailedRequests:        m.failedRequests,
		SuccessRate:           m.successRateLocked(),
		TotalProcessingTime:   m.totalProcessingTime,
		AverageProcessingTime: m.averageProcessingTime,
		LastUpdated:           m.lastUpdated,
		Counters:              counters,
		Performance:           m.performance.GetPerformanceSnapshot(),
	}
}

// LogSummary logs a metrics summary
func (m *ServiceMetrics) LogSummary() {
	snapshot := m.GetSnapshot()

	logrus.WithFields(logrus.Fields{
		"service_name":            snapshot.ServiceName,
		"total_requests":          snapshot.TotalRequests,
		"successful_requests":     snapshot.SuccessfulRequests,
		"failed_requests":         snapshot.FailedRequests,
		"success_rate":            snapshot.SuccessRate,
		"average_processing_time": snapshot.AverageProcessingTime,
		"min_processing_time":     snapshot.Performance.MinProcessingTime,
		"max_processing_time":     snapshot.Performance.MaxProcessingTime,
		"p95_processing_time":     snapshot.Performance.P95ProcessingTime,
		"counters":                snapshot.Counters,
	}).Info("Service metrics summary")
}

// HTTPMetrics tracks outbound HTTP attempts against one upstream
type HTTPMetrics struct {
	totalRequests       int64
	successfulRequests  int64
	failedRequests      int64
	timeoutRequests     int64
	retryAttempts       int64
	totalResponseTime   time.Duration
	averageResponseTime time.Duration
	statusCodeCounts    map[int]int64
	errorCounts         map[string]int64
	mutex               sync.RWMutex
}

// HTTPMetricsSnapshot is a point-in-time copy of HTTPMetrics
type HTTPMetricsSnapshot struct {
	TotalRequests       int64            `json:"total_requests"`
	SuccessfulRequests  int64            `json:"successful_requests"`
	FailedRequests      int64            `json:"failed_requests"`
	TimeoutRequests     int64            `json:"timeout_requests"`
	RetryAttempts       int64            `json:"retry_attempts"`
	AverageResponseTime time.Duration    `json:"average_response_time"`
	StatusCodeCounts    map[int]int64    `json:"status_code_counts"`
	ErrorCounts         map[string]int64 `json:"error_counts"`
}

// NewHTTPMetrics creates a new HTTP metrics tracker
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		statusCodeCounts: make(map[int]int64),
		errorCounts:      make(map[string]int64),
	}
}

// RecordHTTPRequest records an HTTP attempt with its result; statusCode is 0 when no response arrived
func (hm *HTTPMetrics) RecordHTTPRequest(success bool, statusCode int, responseTime time.Duration, errorType string, isTimeout bool) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	hm.totalRequests++
	hm.totalResponseTime += responseTime
	hm.averageResponseTime = time.Duration(int64(hm.totalResponseTime) / hm.totalRequests)

	if success {
		hm.successfulRequests++
	} else {
		hm.failedRequests++
	}

	if isTimeout {
		hm.timeoutRequests++
	}

	if statusCode != 0 {
		hm.statusCodeCounts[statusCode]++
	}

	if errorType != "" {
		hm.errorCounts[errorType]++
	}
}

// RecordRetryAttempt records a retry attempt
func (hm *HTTPMetrics) RecordRetryAttempt() {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	hm.retryAttempts++
}

// GetSnapshot returns a thread-safe snapshot of the HTTP metrics
func (hm *HTTPMetrics) GetSnapshot() HTTPMetricsSnapshot {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	statusCodes := make(map[int]int64, len(hm.statusCodeCounts))
	for k, v := range hm.statusCodeCounts {
		statusCodes[k] = v
	}
	errorCounts := make(map[string]int64, len(hm.errorCounts))
	for k, v := range hm.errorCounts {
		errorCounts[k] = v
	}

	return HTTPMetricsSnapshot{
		TotalRequests:       hm.totalRequests,
		SuccessfulRequests:  hm.successfulRequests,
		FailedRequests:      hm.failedRequests,
		TimeoutRequests:     hm.timeoutRequests,
		RetryAttempts:       hm.retryAttempts,
		AverageResponseTime: hm.averageResponseTime,
		StatusCodeCounts:    statusCodes,
		ErrorCounts:         errorCounts,
	}
}

// PerformanceMetrics tracks processing time distribution over the last samples
type PerformanceMetrics struct {
	minProcessingTime time.Duration
	maxProcessingTime time.Duration
	processingTimes   []time.Duration
	mutex             sync.RWMutex
}

// PerformanceSnapshot is a point-in-time copy of PerformanceMetrics
type PerformanceSnapshot struct {
	MinProcessingTime time.Duration `json:"min_processing_time"`
	MaxProcessingTime time.Duration `json:"max_processing_time"`
	P95ProcessingTime time.Duration `json:"p95_processing_time"`
	P99ProcessingTime time.Duration `json:"p99_processing_time"`
	Samples           int           `json:"samples"`
}

const maxPerformanceSamples = 1000

// NewPerformanceMetrics creates a new performance metrics tracker
func NewPerformanceMetrics() *PerformanceMetrics {
	return &PerformanceMetrics{
		processingTimes: make([]time.Duration, 0, 64),
	}
}

// RecordProcessingTime records a processing time sample
func (pm *PerformanceMetrics) RecordProcessingTime(duration time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pm.minProcessingTime == 0 || duration < pm.minProcessingTime {
		pm.minProcessingTime = duration
	}
	if duration > pm.maxProcessingTime {
		pm.maxProcessingTime = duration
	}

	if len(pm.processingTimes) >= maxPerformanceSamples {
		pm.processingTimes = pm.processingTimes[1:]
	}
	pm.processingTimes = append(pm.processingTimes, duration)
}

// GetPerformanceSnapshot returns min, max and percentiles of the recorded samples
func (pm *PerformanceMetrics) GetPerformanceSnapshot() PerformanceSnapshot {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	snapshot := PerformanceSnapshot{
		MinProcessingTime: pm.minProcessingTime,
		MaxProcessingTime: pm.maxProcessingTime,
		Samples:           len(pm.processingTimes),
	}
	if len(pm.processingTimes) == 0 {
		return snapshot
	}

	times := make([]time.Duration, len(pm.processingTimes))
	copy(times, pm.processingTimes)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	snapshot.P95ProcessingTime = times[percentileIndex(len(times), 0.95)]
	snapshot.P99ProcessingTime = times[percentileIndex(len(times), 0.99)]
	return snapshot
}

func percentileIndex(n int, p float64) int {
	idx := int(float64(n) * p)
	if idx >= n {
		idx = n - 1
	}
	return idx
}
