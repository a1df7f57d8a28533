package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emersoneims/generator-oracle/internal/license"
	"github.com/emersoneims/generator-oracle/internal/store"
)

const lastWarningKey = "push_last_expiry_warning"

// Scheduler sends renewal-warning notifications when the license is inside
// the 30-day expiry window, at most once per day.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	licenses *license.Service
	push     *store.PushStore
	settings *store.SettingsStore
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(svc *Service, licenses *license.Service, pushStore *store.PushStore, settingsStore *store.SettingsStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		licenses: licenses,
		push:     pushStore,
		settings: settingsStore,
		logger:   logger,
		interval: time.Hour,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now().UTC())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	enabled, err := s.settings.Get("push_expiry_warnings")
	if err != nil || enabled != "true" {
		return
	}

	info := s.licenses.GetInfo()
	if info == nil || (!info.NeedsRenewal && !info.IsExpired) {
		return
	}

	// One warning per day, surviving restarts.
	today := now.Format("2006-01-02")
	if last, err := s.settings.Get(lastWarningKey); err == nil && last == today {
		return
	}

	payload := Payload{
		Title: "Generator Oracle License",
		URL:   "/license",
		Tag:   "license-expiry",
	}
	switch {
	case info.IsExpired:
		payload.Body = "Your license has expired. Renew to continue diagnosing faults."
	case info.DaysRemaining == 1:
		payload.Body = "Your license expires tomorrow. Renew now to avoid interruption."
	default:
		payload.Body = fmt.Sprintf("Your license expires in %d days. Renew to keep diagnosing faults.", info.DaysRemaining)
	}

	subs, err := s.push.List()
	if err != nil {
		s.logger.Error("list push subscriptions", "error", err)
		return
	}

	sent := 0
	for _, sub := range subs {
		if err := s.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.push.DeleteByEndpoint(sub.Endpoint)
			} else {
				s.logger.Error("send expiry warning", "error", err)
			}
			continue
		}
		sent++
	}

	if sent > 0 {
		if err := s.settings.Set(lastWarningKey, today); err != nil {
			s.logger.Error("record warning date", "error", err)
		}
		s.logger.Info("sent expiry warnings", "count", sent, "days_remaining", info.DaysRemaining)
	}
}
