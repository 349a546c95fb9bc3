// Package metrics 提供基于 Prometheus 的指标注册表与 LCA 查询标准指标.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 封装独立的 Prometheus 注册表及预定义指标。
type Metrics struct {
	registry *prometheus.Registry

	LCAQueriesTotal  *prometheus.CounterVec   // LCA 查询次数 (维度: strategy, result)
	LCAQueryDuration *prometheus.HistogramVec // LCA 查询耗时 (维度: strategy)
	MemoLookupsTotal *prometheus.CounterVec   // 记忆化缓存查找 (维度: result=hit|miss)
	TreesBuiltTotal  *prometheus.CounterVec   // 树构建次数 (维度: result=ok|rejected)
	TreeNodes        prometheus.Histogram     // 构建出的树的节点数分布
	BuildInfo        *prometheus.GaugeVec
}

// NewMetrics 初始化指标采集器，并注册 Go 运行时与进程指标。
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.LCAQueriesTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "lca_queries_total",
		Help: "Total number of LCA queries by strategy and outcome",
	}, []string{"strategy", "result"})

	m.LCAQueryDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lca_query_duration_seconds",
		Help:    "LCA query latency in seconds",
		Buckets: prometheus.ExponentialBuckets(1e-7, 4, 12),
	}, []string{"strategy"})

	m.MemoLookupsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "lca_memo_lookups_total",
		Help: "Memoization cache lookups by result",
	}, []string{"result"})

	m.TreesBuiltTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "lca_trees_built_total",
		Help: "Trees built from level-order input by result",
	}, []string{"result"})

	m.TreeNodes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lca_tree_nodes",
		Help:    "Number of nodes per built tree",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	reg.MustRegister(m.TreeNodes)

	slog.Info("unified metrics registry initialized", "service", serviceName)
	return m
}

// NewCounterVec 创建并注册计数器。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册仪表盘。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册直方图。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// ObserveQuery 记录一次策略查询，found 表示是否得到节点。
func (m *Metrics) ObserveQuery(strategy string, found bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "found"
	if !found {
		result = "absent"
	}
	m.LCAQueriesTotal.WithLabelValues(strategy, result).Inc()
	m.LCAQueryDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// ObserveMemo 累加记忆化缓存的命中与未命中增量。
func (m *Metrics) ObserveMemo(hits, misses int64) {
	if m == nil {
		return
	}
	if hits > 0 {
		m.MemoLookupsTotal.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		m.MemoLookupsTotal.WithLabelValues("miss").Add(float64(misses))
	}
}

// ObserveTree 记录一次树构建。
func (m *Metrics) ObserveTree(nodes int, rejected bool) {
	if m == nil {
		return
	}
	if rejected {
		m.TreesBuiltTotal.WithLabelValues("rejected").Inc()
		return
	}
	m.TreesBuiltTotal.WithLabelValues("ok").Inc()
	m.TreeNodes.Observe(float64(nodes))
}

// Registry 返回底层注册表，便于测试与自定义采集。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ExposeHttp 在指定端口启动独立 HTTP 服务器暴露指标，返回优雅关闭函数。
func (m *Metrics) ExposeHttp(port, path string) func() {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown metrics server", "error", err)
		}
	}
}
