package monitoring

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeSummary MetricType = "summary"
)

// Metric 指标
type Metric struct {
	Name   string            `json:"name"`
	Type   MetricType        `json:"type"`
	Value  float64           `json:"value"`
	Count  uint64            `json:"count,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
	Help   string            `json:"help,omitempty"`
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	metrics     map[string]*Metric
	help        map[string]string
	metricsLock sync.RWMutex

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:   make(map[string]*Metric),
		help:      make(map[string]string),
		startTime: time.Now(),
	}
}

// Describe 设置指标说明
func (mc *MetricsCollector) Describe(name, help string) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()
	mc.help[name] = help
}

// IncrCounter 增加计数器
func (mc *MetricsCollector) IncrCounter(name string, value float64, labels map[string]string) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	metric := mc.series(name, MetricTypeCounter, labels)
	metric.Value += value
}

// ObserveDuration 记录耗时（秒），导出为 summary 的 _sum/_count
func (mc *MetricsCollector) ObserveDuration(name string, d time.Duration, labels map[string]string) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	metric := mc.series(name, MetricTypeSummary, labels)
	metric.Value += d.Seconds()
	metric.Count++
}

// Get 获取某个序列的当前值
func (mc *MetricsCollector) Get(name string, labels map[string]string) (Metric, bool) {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	metric, ok := mc.metrics[seriesKey(name, labels)]
	if !ok {
		return Metric{}, false
	}
	return *metric, true
}

// ExportPrometheus 导出Prometheus格式
func (mc *MetricsCollector) ExportPrometheus() string {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	keys := make([]string, 0, len(mc.metrics))
	for key := range mc.metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	described := make(map[string]bool)
	for _, key := range keys {
		metric := mc.metrics[key]
		if !described[metric.Name] {
			help := mc.help[metric.Name]
			if help == "" {
				help = fmt.Sprintf("Metric %s", metric.Name)
			}
			fmt.Fprintf(&b, "# HELP %s %s\n", metric.Name, help)
			fmt.Fprintf(&b, "# TYPE %s %s\n", metric.Name, metric.Type)
			described[metric.Name] = true
		}
		labels := formatLabels(metric.Labels)
		if metric.Type == MetricTypeSummary {
			fmt.Fprintf(&b, "%s_sum%s %g\n", metric.Name, labels, metric.Value)
			fmt.Fprintf(&b, "%s_count%s %d\n", metric.Name, labels, metric.Count)
			continue
		}
		fmt.Fprintf(&b, "%s%s %g\n", metric.Name, labels, metric.Value)
	}
	fmt.Fprintf(&b, "# TYPE process_uptime_seconds gauge\nprocess_uptime_seconds %g\n", mc.GetUptime().Seconds())
	return b.String()
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

func (mc *MetricsCollector) series(name string, typ MetricType, labels map[string]string) *Metric {
	key := seriesKey(name, labels)
	metric, ok := mc.metrics[key]
	if !ok {
		copied := make(map[string]string, len(labels))
		for k, v := range labels {
			copied[k] = v
		}
		metric = &Metric{Name: name, Type: typ, Labels: copied}
		mc.metrics[key] = metric
	}
	return metric
}

func seriesKey(name string, labels map[string]string) string {
	return name + formatLabels(labels)
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%q", k, labels[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}
