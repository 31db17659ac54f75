// Package scheduler menjalankan job harian (auto-lock absensi & billing sweep) di atas robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	JobAttendanceLock = "attendance-lock"
	JobBillingSweep   = "billing-sweep"
)

// JobFunc: hasilnya hanya untuk dicatat di log
type JobFunc func(ctx context.Context) any

type Config struct {
	Location *time.Location
	// batas waktu satu kali run (cron, catch-up, maupun RunNow)
	Timeout time.Duration
	// job yang dijalankan sekali di background saat Start
	CatchUp []string
}

type job struct {
	name string
	spec string
	fn   JobFunc
	id   cron.EntryID
	// run manual dan run cron tidak tumpang tindih
	mu sync.Mutex
}

type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	catchUp []string

	mu   sync.RWMutex
	jobs map[string]*job
	bg   sync.WaitGroup
}

func New(cfg Config) *Scheduler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		timeout: timeout,
		catchUp: cfg.CatchUp,
		jobs:    map[string]*job{},
	}
}

// Register: spec 5 field standar cron, dievaluasi di Location
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("job %q sudah terdaftar", name)
	}
	j := &job{name: name, spec: spec, fn: fn}
	id, err := s.cron.AddFunc(spec, func() { s.execute(context.Background(), j, "cron") })
	if err != nil {
		return fmt.Errorf("job %q: spec %q tidak valid: %w", name, spec, err)
	}
	j.id = id
	s.jobs[name] = j
	log.Printf("[SCHEDULER] 🗓️ job %s terdaftar spec=%q", name, spec)
	return nil
}

// Start menyalakan cron dan catch-up (sekali, background)
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, name := range s.catchUp {
		j := s.lookup(name)
		if j == nil {
			log.Printf("[SCHEDULER] ⚠️ catch-up %s: job tidak terdaftar", name)
			continue
		}
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			s.execute(context.Background(), j, "catch-up")
		}()
	}
	log.Printf("[SCHEDULER] ✅ started jobs=%v", s.Names())
}

// RunNow: fungsi yang sama dengan trigger cron, sinkron
func (s *Scheduler) RunNow(ctx context.Context, name string) (any, error) {
	j := s.lookup(name)
	if j == nil {
		return nil, fmt.Errorf("job %q tidak terdaftar", name)
	}
	return s.execute(ctx, j, "manual"), nil
}

// Stop menunggu run cron yang sedang jalan dan catch-up selesai (atau ctx habis)
func (s *Scheduler) Stop(ctx context.Context) {
	cronDone := s.cron.Stop()
	bgDone := make(chan struct{})
	go func() {
		s.bg.Wait()
		close(bgDone)
	}()
	for _, done := range []<-chan struct{}{cronDone.Done(), bgDone} {
		select {
		case <-done:
		case <-ctx.Done():
			log.Printf("[SCHEDULER] ⚠️ stop timeout: %v", ctx.Err())
			return
		}
	}
	log.Println("[SCHEDULER] 🛑 stopped")
}

func (s *Scheduler) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Next: jadwal run berikutnya (zero kalau cron belum Start)
func (s *Scheduler) Next(name string) time.Time {
	j := s.lookup(name)
	if j == nil {
		return time.Time{}
	}
	return s.cron.Entry(j.id).Next
}

func (s *Scheduler) lookup(name string) *job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[name]
}

func (s *Scheduler) execute(parent context.Context, j *job, trigger string) any {
	j.mu.Lock()
	defer j.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	log.Printf("[SCHEDULER] ▶️ %s (%s)", j.name, trigger)
	res := j.fn(ctx)
	log.Printf("[SCHEDULER] ⏹️ %s (%s) selesai dalam %s: %+v", j.name, trigger, time.Since(start).Round(time.Millisecond), res)
	return res
}
