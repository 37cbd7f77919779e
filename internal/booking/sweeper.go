package booking

import (
    "context"
    "log"
    "time"
)

// Sweeper is the background task that expires no-show reservations and
// publishes pre-expiration notices. It runs on a fixed interval,
// independent of request traffic, and is started and stopped with the
// process lifecycle. Each per-reservation transition is a guarded
// conditional update, so a slow sweep overlapping the next one cannot
// double-process a row, and a failure on one reservation never aborts the
// batch.
type Sweeper struct {
    store    Store
    notifier Notifier
    clock    Clock
    interval time.Duration
    batch    int
}

// NewSweeper builds a Sweeper. interval controls how often a sweep runs;
// batch caps how many rows one sweep processes.
func NewSweeper(store Store, notifier Notifier, clock Clock, interval time.Duration, batch int) *Sweeper {
    if batch <= 0 {
        batch = 100
    }
    return &Sweeper{store: store, notifier: notifier, clock: clock, interval: interval, batch: batch}
}

// Run loops until the context is cancelled. It is normally launched as a
// goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
    t := time.NewTicker(s.interval)
    defer t.Stop()
    log.Printf("sweeper: running every %s", s.interval)
    for {
        select {
        case <-ctx.Done():
            log.Printf("sweeper: stopping: %v", ctx.Err())
            return
        case <-t.C:
            expired, failed := s.SweepOnce(ctx)
            if expired > 0 || failed > 0 {
                log.Printf("sweeper: expired=%d failed=%d", expired, failed)
            }
            sent, nfailed := s.NoticeOnce(ctx)
            if sent > 0 || nfailed > 0 {
                log.Printf("sweeper: notices=%d failed=%d", sent, nfailed)
            }
        }
    }
}

// SweepOnce expires every eligible reservation once and returns how many
// rows were expired and how many attempts failed. Errors are logged and
// counted, never propagated, so one bad row cannot block the rest. Running
// it twice back to back is a no-op the second time: the conditional update
// in MarkExpired only fires on rows still in a sweepable state.
func (s *Sweeper) SweepOnce(ctx context.Context) (expired, failed int) {
    now := s.clock.Now()
    candidates, err := s.store.ExpireCandidates(ctx, now, s.batch)
    if err != nil {
        log.Printf("sweeper: load expire candidates: %v", err)
        return 0, 1
    }
    for _, r := range candidates {
        // Re-check the guard per row; the candidate query and the update
        // are separate statements and the row may have changed between
        // them (deposit recorded, cancelled, expired by an overlapping
        // sweep).
        if err := CanExpire(&r, now); err != nil {
            continue
        }
        ok, err := s.store.MarkExpired(ctx, r.ID, r.Version, now)
        if err != nil {
            log.Printf("sweeper: expire reservation %d: %v", r.ID, err)
            failed++
            continue
        }
        if !ok {
            continue // lost the race to another sweep or a user action
        }
        expired++
        if s.notifier != nil {
            s.notifier.ReservationExpired(ctx, r)
        }
    }
    return expired, failed
}

// NoticeOnce publishes an "approaching expiration" event for every unpaid
// reservation entering its tenant's notice lead. The notice_sent flag is
// flipped with the same guarded-update discipline as expiration, so each
// reservation is notified at most once.
func (s *Sweeper) NoticeOnce(ctx context.Context) (sent, failed int) {
    now := s.clock.Now()
    candidates, err := s.store.NoticeCandidates(ctx, now, s.batch)
    if err != nil {
        log.Printf("sweeper: load notice candidates: %v", err)
        return 0, 1
    }
    for _, r := range candidates {
        ok, err := s.store.MarkNoticeSent(ctx, r.ID, r.Version, now)
        if err != nil {
            log.Printf("sweeper: mark notice for reservation %d: %v", r.ID, err)
            failed++
            continue
        }
        if !ok {
            continue
        }
        sent++
        if s.notifier != nil {
            s.notifier.ExpirationApproaching(ctx, r)
        }
    }
    return sent, failed
}
