package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
// 記録用メソッドは nil レシーバでも安全に呼び出せる
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 参加・離脱の総数（operation: join/leave, result: joined/already_joined/full/left/not_joined/not_found/error）
	ParticipationsTotal *prometheus.CounterVec

	// ストア障害によるリトライ回数（operation）
	StoreRetriesTotal *prometheus.CounterVec

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec

	// 一覧キャッシュの結果（result: hit/miss/error）
	ListingCacheTotal *prometheus.CounterVec

	// 会場提案の呼び出し数（status: success/invalid/unavailable/error）
	SuggestionsTotal *prometheus.CounterVec

	// 開催予定のイベント数
	UpcomingEvents prometheus.Gauge
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ParticipationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "participations_total",
				Help: "Total number of join/leave attempts by result",
			},
			[]string{"operation", "result"},
		),
		StoreRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_retries_total",
				Help: "Total number of retries caused by an unavailable store",
			},
			[]string{"operation"},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		ListingCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_cache_total",
				Help: "Event listing cache lookups by result",
			},
			[]string{"result"},
		),
		SuggestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suggestions_total",
				Help: "Total number of location suggestion requests",
			},
			[]string{"status"},
		),
		UpcomingEvents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "upcoming_events",
				Help: "Number of events scheduled in the future",
			},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ParticipationsTotal,
		m.StoreRetriesTotal,
		m.DistributedLockDuration,
		m.ListingCacheTotal,
		m.SuggestionsTotal,
		m.UpcomingEvents,
	)

	return m
}

// ObserveParticipation は参加・離脱の結果を記録する
func (m *Metrics) ObserveParticipation(operation, result string) {
	if m == nil {
		return
	}
	m.ParticipationsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveStoreRetry はリトライを記録する
func (m *Metrics) ObserveStoreRetry(operation string) {
	if m == nil {
		return
	}
	m.StoreRetriesTotal.WithLabelValues(operation).Inc()
}

// ObserveLock はロック操作の所要時間を記録する
func (m *Metrics) ObserveLock(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// ObserveListingCache は一覧キャッシュの結果を記録する
func (m *Metrics) ObserveListingCache(result string) {
	if m == nil {
		return
	}
	m.ListingCacheTotal.WithLabelValues(result).Inc()
}

// ObserveSuggestion は会場提案の結果を記録する
func (m *Metrics) ObserveSuggestion(status string) {
	if m == nil {
		return
	}
	m.SuggestionsTotal.WithLabelValues(status).Inc()
}

// SetUpcomingEvents は開催予定のイベント数を設定する
func (m *Metrics) SetUpcomingEvents(n int) {
	if m == nil {
		return
	}
	m.UpcomingEvents.Set(float64(n))
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Set はデフォルトのメトリクスインスタンスを差し替える
func Set(m *Metrics) {
	defaultMetrics = m
}

// Get はデフォルトのメトリクスインスタンスを返す
// 未初期化の場合は nil
func Get() *Metrics {
	return defaultMetrics
}
