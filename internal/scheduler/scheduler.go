// Package scheduler keeps one recurring auto-post timer per connected account
// and runs the generate-and-publish cycle on every tick.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Waribiz/waribiz-bot/internal/domain"
	"github.com/Waribiz/waribiz-bot/internal/metrics"
	"github.com/Waribiz/waribiz-bot/internal/store"
)

const (
	// startDelay is how soon the first post fires after the user enables auto-posting.
	startDelay = 10 * time.Second
	// restoreDelay spreads the first fire after a process restart.
	restoreDelay = 60 * time.Second
	// tickTimeout bounds one generate-and-publish cycle.
	tickTimeout = 2 * time.Minute
)

// Sink delivers outcome notifications back to the user's chat.
// telegram.Router implements this.
type Sink interface {
	SendMessage(chatID int64, text string) error
}

// Generator produces the post text for a theme.
type Generator interface {
	Generate(ctx context.Context, theme string) (string, error)
}

// Publisher posts a message with an image to a Facebook page.
type Publisher interface {
	PublishPhoto(ctx context.Context, pageID, pageToken, message, image string) (string, error)
}

// ImageSource selects an illustration for a post.
type ImageSource interface {
	Pick() string
}

// Scheduler owns the per-account timers. Persisted auto_post flags are the
// source of truth; the timer map is transient state derived from them.
type Scheduler struct {
	repo        store.Repo
	log         *zap.Logger
	gen         Generator
	pub         Publisher
	imgs        ImageSource
	sink        Sink
	minInterval int
	clk         clock

	mu      sync.Mutex
	jobs    map[int64]*job
	flights map[int64]*sync.Mutex
}

// job is one account's armed timer.
type job struct {
	sched   *Scheduler
	chatID  int64
	period  time.Duration
	timer   timer
	stopped bool
}

func New(repo store.Repo, log *zap.Logger, gen Generator, pub Publisher, imgs ImageSource, sink Sink, minIntervalMin int) *Scheduler {
	return newScheduler(repo, log, gen, pub, imgs, sink, minIntervalMin, realClock{})
}

func newScheduler(repo store.Repo, log *zap.Logger, gen Generator, pub Publisher, imgs ImageSource, sink Sink, minIntervalMin int, clk clock) *Scheduler {
	return &Scheduler{
		repo:        repo,
		log:         log,
		gen:         gen,
		pub:         pub,
		imgs:        imgs,
		sink:        sink,
		minInterval: minIntervalMin,
		clk:         clk,
		jobs:        make(map[int64]*job),
		flights:     make(map[int64]*sync.Mutex),
	}
}

// Start enables auto-posting for an account: persists the flag and arms a
// recurring timer. Any existing timer for the account is replaced first.
func (s *Scheduler) Start(ctx context.Context, chatID int64) error {
	a, err := s.repo.GetAccount(ctx, chatID)
	if err != nil {
		return err
	}
	if !a.HasCredentials() {
		return fmt.Errorf("%w: chat %d has no connected page", domain.ErrConfigIncomplete, chatID)
	}
	if err := s.repo.SetAutoPost(ctx, chatID, true); err != nil {
		return err
	}
	s.arm(chatID, domain.IntervalDuration(a.IntervalMinutes), startDelay)
	s.log.Info("auto-post started",
		zap.Int64("chatID", chatID),
		zap.Int("intervalMin", a.IntervalMinutes),
	)
	return nil
}

// Stop cancels the account's timer (no-op if absent) and persists the flag.
// After Stop returns, no future tick fires; an already dispatched tick may finish.
func (s *Scheduler) Stop(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	if j, ok := s.jobs[chatID]; ok {
		j.cancel()
		delete(s.jobs, chatID)
	}
	s.mu.Unlock()

	if err := s.repo.SetAutoPost(ctx, chatID, false); err != nil {
		return err
	}
	s.log.Info("auto-post stopped", zap.Int64("chatID", chatID))
	return nil
}

// Reschedule validates and persists a new interval. If a timer is live it is
// replaced atomically; the next fire happens one new period from now.
func (s *Scheduler) Reschedule(ctx context.Context, chatID int64, minutes int) error {
	if _, err := domain.ValidateInterval(minutes, s.minInterval); err != nil {
		return err
	}
	if err := s.repo.SetInterval(ctx, chatID, minutes); err != nil {
		return err
	}

	period := domain.IntervalDuration(minutes)
	s.mu.Lock()
	_, active := s.jobs[chatID]
	s.mu.Unlock()
	if active {
		s.arm(chatID, period, period)
	}
	s.log.Info("interval rescheduled", zap.Int64("chatID", chatID), zap.Int("minutes", minutes))
	return nil
}

// RestoreAll re-arms a timer for every account whose persisted flag says
// auto-posting is on. Called once at process start; the longer initial delay
// avoids a burst of publishes right after boot.
func (s *Scheduler) RestoreAll(ctx context.Context) error {
	accounts, err := s.repo.ListAutoEnabled(ctx)
	if err != nil {
		return err
	}
	for i := range accounts {
		a := &accounts[i]
		if !a.HasCredentials() {
			s.log.Warn("skipping restore, account has no credentials", zap.Int64("chatID", a.ChatID))
			continue
		}
		s.arm(a.ChatID, domain.IntervalDuration(a.IntervalMinutes), restoreDelay)
		s.log.Info("auto-post restored", zap.Int64("chatID", a.ChatID), zap.Int("intervalMin", a.IntervalMinutes))
	}
	return nil
}

// PostNow runs one generate-and-publish cycle outside the schedule. It shares
// the per-account in-flight guard with scheduled ticks, so a manual publish
// never runs alongside one; if one is already running it returns
// domain.ErrPublishInFlight instead of queueing.
func (s *Scheduler) PostNow(ctx context.Context, chatID int64) error {
	a, err := s.repo.GetAccount(ctx, chatID)
	if err != nil {
		return err
	}
	if !a.HasCredentials() {
		return fmt.Errorf("%w: chat %d has no connected page", domain.ErrConfigIncomplete, chatID)
	}

	fl := s.flight(chatID)
	if !fl.TryLock() {
		return fmt.Errorf("%w: chat %d", domain.ErrPublishInFlight, chatID)
	}
	defer fl.Unlock()

	s.publish(ctx, a)
	return nil
}

// Active reports whether a timer is currently armed for the account.
func (s *Scheduler) Active(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[chatID]
	return ok
}

// ActiveCount returns the number of armed timers.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Shutdown cancels every timer. In-flight ticks are left to finish.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for chatID, j := range s.jobs {
		j.cancel()
		delete(s.jobs, chatID)
	}
}

// arm replaces any existing timer for the account with a fresh one.
// There is never a window with two live timers: the old job is cancelled
// under the same lock that installs the new one.
func (s *Scheduler) arm(chatID int64, period, initial time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.jobs[chatID]; ok {
		old.cancel()
	}
	j := &job{sched: s, chatID: chatID, period: period}
	j.timer = s.clk.AfterFunc(initial, j.fire)
	s.jobs[chatID] = j
}

// flight returns the account's publish guard. One mutex per account, created
// on first use and kept for the process lifetime so it outlives any timer
// replacement.
func (s *Scheduler) flight(chatID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	fl, ok := s.flights[chatID]
	if !ok {
		fl = &sync.Mutex{}
		s.flights[chatID] = fl
	}
	return fl
}

// cancel must be called with the scheduler lock held.
func (j *job) cancel() {
	j.stopped = true
	if j.timer != nil {
		j.timer.Stop()
	}
}

// fire is the timer callback. It re-arms first so a slow or failed publish
// never shifts the next tick, then runs the cycle under the in-flight guard.
func (j *job) fire() {
	s := j.sched

	s.mu.Lock()
	if j.stopped || s.jobs[j.chatID] != j {
		s.mu.Unlock()
		return
	}
	j.timer = s.clk.AfterFunc(j.period, j.fire)
	s.mu.Unlock()

	fl := s.flight(j.chatID)
	if !fl.TryLock() {
		metrics.TicksDropped.Inc()
		s.log.Warn("tick dropped, previous publish still in flight", zap.Int64("chatID", j.chatID))
		return
	}
	defer fl.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	a, err := s.repo.GetAccount(ctx, j.chatID)
	if err != nil {
		// Account vanished: log, skip, keep the timer (the flag owns its fate).
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error("tick for unknown account", zap.Int64("chatID", j.chatID))
			return
		}
		s.log.Error("tick account lookup failed", zap.Int64("chatID", j.chatID), zap.Error(err))
		return
	}
	s.publish(ctx, a)
}

// publish runs one generate-and-publish cycle and reports the outcome through
// the sink. Failures stay user-visible; they never propagate to the timer.
func (s *Scheduler) publish(ctx context.Context, a *domain.Account) {
	text, err := s.gen.Generate(ctx, a.Theme)
	if err != nil {
		metrics.GenerationFailures.Inc()
		s.log.Error("generation failed", zap.Int64("chatID", a.ChatID), zap.Error(err))
		s.notify(a.ChatID, "⚠️ Could not generate a message.")
		return
	}

	image := s.imgs.Pick()
	postID, err := s.pub.PublishPhoto(ctx, a.PageID, a.AccessToken, text, image)
	if err != nil {
		metrics.PostsFailed.Inc()
		s.log.Error("publish failed", zap.Int64("chatID", a.ChatID), zap.Error(err))
		s.notify(a.ChatID, "❌ Publish failed.")
		return
	}

	if err := s.repo.AppendPost(ctx, &domain.Post{
		ChatID:   a.ChatID,
		PostID:   postID,
		Message:  text,
		PostedAt: s.clk.Now().UTC(),
	}); err != nil {
		s.log.Error("append post log failed", zap.Int64("chatID", a.ChatID), zap.Error(err))
	}

	metrics.PostsPublished.Inc()
	s.notify(a.ChatID, fmt.Sprintf("✅ Published (post %s):\n\n%s", postID, text))
}

func (s *Scheduler) notify(chatID int64, text string) {
	if err := s.sink.SendMessage(chatID, text); err != nil {
		s.log.Error("notification send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}
