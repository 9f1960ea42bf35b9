// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyOrchestrator считает запуски RunFullSync.
type spyOrchestrator struct {
	calls  atomic.Int64
	result models.SyncResult
}

func (s *spyOrchestrator) RunFullSync(_ context.Context) models.SyncResult {
	s.calls.Add(1)
	return s.result
}

// ── tickerTrigger ────────────────────────────────────────────────────────────

func TestTickerTrigger_FiresPeriodically(t *testing.T) {
	var calls atomic.Int64
	trigger := NewTickerTrigger(10 * time.Millisecond)
	ctx := context.Background()

	// интервал 10ms — за 55ms должно быть несколько срабатываний
	trigger.Start(ctx, func(_ context.Context) { calls.Add(1) })
	time.Sleep(55 * time.Millisecond)
	trigger.Stop()

	got := calls.Load()
	assert.GreaterOrEqual(t, got, int64(3), "функция должна вызываться по тикеру, вызвано: %d", got)
}

func TestTickerTrigger_StopHaltsInvocations(t *testing.T) {
	var calls atomic.Int64
	trigger := NewTickerTrigger(10 * time.Millisecond)

	trigger.Start(context.Background(), func(_ context.Context) { calls.Add(1) })
	time.Sleep(30 * time.Millisecond)
	trigger.Stop()

	callsAfterStop := calls.Load()
	time.Sleep(30 * time.Millisecond)
	callsLater := calls.Load()

	assert.Equal(t, callsAfterStop, callsLater, "после Stop новых вызовов быть не должно")
}

func TestTickerTrigger_StopBeforeStart_NoPanic(t *testing.T) {
	trigger := NewTickerTrigger(time.Second)
	assert.NotPanics(t, func() { trigger.Stop() })
}

func TestTickerTrigger_DoubleStop_NoPanic(t *testing.T) {
	trigger := NewTickerTrigger(10 * time.Millisecond)
	trigger.Start(context.Background(), func(_ context.Context) {})
	trigger.Stop()
	assert.NotPanics(t, func() { trigger.Stop() })
}

func TestTickerTrigger_DoubleStart_NoSecondGoroutine(t *testing.T) {
	var calls atomic.Int64
	trigger := NewTickerTrigger(10 * time.Millisecond)
	ctx := context.Background()

	// повторный Start — no-op, частота срабатываний не удваивается
	trigger.Start(ctx, func(_ context.Context) { calls.Add(1) })
	trigger.Start(ctx, func(_ context.Context) { calls.Add(100) })
	time.Sleep(35 * time.Millisecond)
	trigger.Stop()

	assert.Less(t, calls.Load(), int64(100), "второй Start не должен регистрировать новую функцию")
}

func TestTickerTrigger_DefaultInterval(t *testing.T) {
	var calls atomic.Int64
	trigger := NewTickerTrigger(0)
	ctx, cancel := context.WithCancel(context.Background())

	// interval <= 0 → дефолт 5 минут, за 20ms вызовов быть не должно
	trigger.Start(ctx, func(_ context.Context) { calls.Add(1) })
	time.Sleep(20 * time.Millisecond)
	cancel()
	trigger.Stop()

	assert.Equal(t, int64(0), calls.Load())
}

func TestTickerTrigger_ContextCancel_StopReturns(t *testing.T) {
	trigger := NewTickerTrigger(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	trigger.Start(ctx, func(_ context.Context) {})
	time.Sleep(25 * time.Millisecond)
	cancel() // отменяем родительский контекст

	done := make(chan struct{})
	go func() {
		trigger.Stop()
		close(done)
	}()

	select {
	case <-done:
		// ok
	case <-time.After(1 * time.Second):
		t.Fatal("Stop завис после отмены контекста")
	}
}

func TestTickerTrigger_RestartAfterStop(t *testing.T) {
	var calls atomic.Int64
	trigger := NewTickerTrigger(10 * time.Millisecond)
	ctx := context.Background()

	trigger.Start(ctx, func(_ context.Context) { calls.Add(1) })
	time.Sleep(30 * time.Millisecond)
	trigger.Stop()

	callsBefore := calls.Load()
	require.Greater(t, callsBefore, int64(0))

	// после Stop триггер можно запустить заново
	trigger.Start(ctx, func(_ context.Context) { calls.Add(1) })
	time.Sleep(30 * time.Millisecond)
	trigger.Stop()

	assert.Greater(t, calls.Load(), callsBefore, "после перезапуска вызовы продолжаются")
}

// ── scheduler ────────────────────────────────────────────────────────────────

func TestScheduler_RunsOrchestratorOnTick(t *testing.T) {
	spy := &spyOrchestrator{}
	sched := NewScheduler(spy, NewTickerTrigger(10*time.Millisecond), logger.NewLogger("test"))

	sched.StartBackgroundSync(context.Background())
	time.Sleep(55 * time.Millisecond)
	sched.StopBackgroundSync()

	got := spy.calls.Load()
	assert.GreaterOrEqual(t, got, int64(3), "RunFullSync должен вызываться по расписанию: %d", got)
}

func TestScheduler_FailedRunDoesNotStopSchedule(t *testing.T) {
	spy := &spyOrchestrator{result: models.SyncResult{
		Status: models.SyncStatusFailed,
		Err:    assert.AnError,
	}}
	sched := NewScheduler(spy, NewTickerTrigger(10*time.Millisecond), logger.NewLogger("test"))

	// ошибки логируются, но расписание продолжает работать
	sched.StartBackgroundSync(context.Background())
	time.Sleep(55 * time.Millisecond)
	sched.StopBackgroundSync()

	assert.GreaterOrEqual(t, spy.calls.Load(), int64(3))
}

func TestScheduler_StopBeforeStart_NoPanic(t *testing.T) {
	sched := NewScheduler(&spyOrchestrator{}, NewTickerTrigger(time.Second), logger.NewLogger("test"))
	assert.NotPanics(t, func() { sched.StopBackgroundSync() })
}
