package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/sportup/internal/pkg/metrics"
)

// MockUpcomingEventCounter はUpcomingEventCounterのモック
type MockUpcomingEventCounter struct {
	mock.Mock
}

func (m *MockUpcomingEventCounter) CountUpcomingEvents(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func useTestMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	prev := metrics.Get()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	metrics.Set(m)
	t.Cleanup(func() { metrics.Set(prev) })
	return m
}

func TestNewUpcomingEventsReporter(t *testing.T) {
	reporter := NewUpcomingEventsReporter(new(MockUpcomingEventCounter), time.Minute)

	assert.NotNil(t, reporter)
	assert.Equal(t, time.Minute, reporter.interval)
	assert.NotNil(t, reporter.stopCh)
	assert.NotNil(t, reporter.doneCh)
}

func TestUpcomingEventsReporter_Report(t *testing.T) {
	t.Run("集計結果をゲージに反映する", func(t *testing.T) {
		m := useTestMetrics(t)
		counter := new(MockUpcomingEventCounter)
		counter.On("CountUpcomingEvents", mock.Anything).Return(7, nil)
		reporter := NewUpcomingEventsReporter(counter, time.Minute)

		reporter.report(context.Background())

		assert.Equal(t, float64(7), testutil.ToFloat64(m.UpcomingEvents))
		counter.AssertExpectations(t)
	})

	t.Run("エラー時はゲージを変更しない", func(t *testing.T) {
		m := useTestMetrics(t)
		m.SetUpcomingEvents(3)
		counter := new(MockUpcomingEventCounter)
		counter.On("CountUpcomingEvents", mock.Anything).Return(0, errors.New("store down"))
		reporter := NewUpcomingEventsReporter(counter, time.Minute)

		reporter.report(context.Background())

		assert.Equal(t, float64(3), testutil.ToFloat64(m.UpcomingEvents))
	})
}

func TestUpcomingEventsReporter_StartStop(t *testing.T) {
	t.Run("Stop で終了する", func(t *testing.T) {
		useTestMetrics(t)
		counter := new(MockUpcomingEventCounter)
		counter.On("CountUpcomingEvents", mock.Anything).Return(1, nil)
		reporter := NewUpcomingEventsReporter(counter, 10*time.Millisecond)

		go reporter.Start(context.Background())
		time.Sleep(35 * time.Millisecond)
		reporter.Stop()
		reporter.Stop()

		// 起動直後の1回 + ティック分
		assert.GreaterOrEqual(t, len(counter.Calls), 2)
	})

	t.Run("コンテキストのキャンセルで終了する", func(t *testing.T) {
		useTestMetrics(t)
		counter := new(MockUpcomingEventCounter)
		counter.On("CountUpcomingEvents", mock.Anything).Return(1, nil)
		reporter := NewUpcomingEventsReporter(counter, time.Hour)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			reporter.Start(ctx)
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("レポーターが停止しませんでした")
		}
	})
}
