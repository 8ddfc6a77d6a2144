package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/pkg/logger"
	"github.com/sanosuguru/sportup/internal/pkg/metrics"
)

// UpcomingEventCounter は今後開催されるイベント数を数えるインターフェース
type UpcomingEventCounter interface {
	CountUpcomingEvents(ctx context.Context) (int, error)
}

// UpcomingEventsReporter は今後開催されるイベント数を定期的にゲージへ反映するワーカー
type UpcomingEventsReporter struct {
	counter  UpcomingEventCounter
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewUpcomingEventsReporter は新しいレポーターを作成
// interval が0以下の場合は1分間隔
func NewUpcomingEventsReporter(counter UpcomingEventCounter, interval time.Duration) *UpcomingEventsReporter {
	if interval <= 0 {
		interval = time.Minute
	}
	return &UpcomingEventsReporter{
		counter:  counter,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はレポーターを開始する
// 起動直後に1回集計し、その後 interval ごとに集計する
func (r *UpcomingEventsReporter) Start(ctx context.Context) {
	logger.Info("開催予定イベント集計開始", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	r.report(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("開催予定イベント集計停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("開催予定イベント集計停止（シグナル受信）")
			return
		case <-ticker.C:
			r.report(ctx)
		}
	}
}

// Stop はレポーターを停止し、終了を待つ
func (r *UpcomingEventsReporter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
}

func (r *UpcomingEventsReporter) report(ctx context.Context) {
	count, err := r.counter.CountUpcomingEvents(ctx)
	if err != nil {
		logger.Error("開催予定イベントの集計失敗", zap.Error(err))
		return
	}
	metrics.Get().SetUpcomingEvents(count)
	logger.Debug("開催予定イベントを集計", zap.Int("count", count))
}
