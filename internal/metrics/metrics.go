// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 編集コアのサービス層、ワーカー、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordLockAcquire(granted bool)
	RecordLockRenew(ok bool)
	RecordLockRelease(ok bool)
	RecordLocksSwept(count int64)
	RecordRevisionCreated()
	RecordRevisionsPruned(count int64)
	RecordVersionConflict()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	lockAcquire      *prometheus.CounterVec
	lockRenew        *prometheus.CounterVec
	lockRelease      *prometheus.CounterVec
	locksSwept       prometheus.Counter
	revisionsCreated prometheus.Counter
	revisionsPruned  prometheus.Counter
	versionConflicts prometheus.Counter
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		lockAcquire: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsroom_lock_acquire_total",
			Help: "ロック取得要求の結果別の合計数",
		}, []string{"result"}),
		lockRenew: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsroom_lock_renew_total",
			Help: "ロック延長要求の結果別の合計数",
		}, []string{"result"}),
		lockRelease: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsroom_lock_release_total",
			Help: "ロック解放要求の結果別の合計数",
		}, []string{"result"}),
		locksSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsroom_locks_swept_total",
			Help: "ワーカーが削除した失効ロックの合計数",
		}),
		revisionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsroom_revisions_created_total",
			Help: "作成されたリビジョンの合計数",
		}),
		revisionsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsroom_revisions_pruned_total",
			Help: "保持数を超えて削除されたリビジョンの合計数",
		}),
		versionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsroom_revision_version_conflicts_total",
			Help: "バージョン採番の競合による再試行の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsroom_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsroom_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.lockAcquire,
		c.lockRenew,
		c.lockRelease,
		c.locksSwept,
		c.revisionsCreated,
		c.revisionsPruned,
		c.versionConflicts,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

func resultLabel(ok bool, okLabel, ngLabel string) string {
	if ok {
		return okLabel
	}
	return ngLabel
}

// RecordLockAcquire はロック取得の結果（granted/denied）を記録する。
func (c *Collector) RecordLockAcquire(granted bool) {
	c.lockAcquire.WithLabelValues(resultLabel(granted, "granted", "denied")).Inc()
}

// RecordLockRenew はロック延長の結果を記録する。
func (c *Collector) RecordLockRenew(ok bool) {
	c.lockRenew.WithLabelValues(resultLabel(ok, "ok", "rejected")).Inc()
}

// RecordLockRelease はロック解放の結果を記録する。
func (c *Collector) RecordLockRelease(ok bool) {
	c.lockRelease.WithLabelValues(resultLabel(ok, "ok", "rejected")).Inc()
}

// RecordLocksSwept は削除した失効ロック数を記録する。
func (c *Collector) RecordLocksSwept(count int64) {
	c.locksSwept.Add(float64(count))
}

// RecordRevisionCreated はリビジョン作成を記録する。
func (c *Collector) RecordRevisionCreated() {
	c.revisionsCreated.Inc()
}

// RecordRevisionsPruned は削除したリビジョン数を記録する。
func (c *Collector) RecordRevisionsPruned(count int64) {
	c.revisionsPruned.Add(float64(count))
}

// RecordVersionConflict はバージョン採番の競合を記録する。
func (c *Collector) RecordVersionConflict() {
	c.versionConflicts.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はHTTPリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// NopCollector は何も記録しないMetricsCollector。
// テストやメトリクス未設定時に使用する。
type NopCollector struct{}

func (NopCollector) RecordLockAcquire(bool)             {}
func (NopCollector) RecordLockRenew(bool)               {}
func (NopCollector) RecordLockRelease(bool)             {}
func (NopCollector) RecordLocksSwept(int64)             {}
func (NopCollector) RecordRevisionCreated()             {}
func (NopCollector) RecordRevisionsPruned(int64)        {}
func (NopCollector) RecordVersionConflict()             {}
func (NopCollector) RecordHTTPStatus(int)               {}
func (NopCollector) RecordRequestLatency(time.Duration) {}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
