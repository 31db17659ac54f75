// Package sweep: fold atas daftar item batch terjadwal.
// Kegagalan satu item dicatat ke Result lalu lanjut ke item berikutnya.
package sweep

import (
	"context"
	"fmt"
	"log"
	"time"
)

type Outcome int

const (
	Unchanged Outcome = iota
	Changed
	Skipped
)

type ItemError struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

type Result struct {
	Job        string      `json:"job"`
	Total      int         `json:"total"`
	Changed    int         `json:"changed"`
	Unchanged  int         `json:"unchanged"`
	Skipped    int         `json:"skipped"`
	Failed     int         `json:"failed"`
	Errors     []ItemError `json:"errors,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Processed: item yang selesai tanpa error (berubah maupun tidak)
func (r Result) Processed() int { return r.Changed + r.Unchanged + r.Skipped }

func (r Result) String() string {
	return fmt.Sprintf("job=%s total=%d changed=%d unchanged=%d skipped=%d failed=%d dur=%s",
		r.Job, r.Total, r.Changed, r.Unchanged, r.Skipped, r.Failed, r.FinishedAt.Sub(r.StartedAt))
}

// Run menjalankan fn untuk setiap item. Error dan panic per item diisolasi.
// Context yang sudah dibatalkan menghentikan sisa item (dihitung failed).
func Run[T any](ctx context.Context, job string, items []T, key func(T) string, fn func(context.Context, T) (Outcome, error)) Result {
	res := Result{Job: job, Total: len(items), StartedAt: time.Now()}

	for _, it := range items {
		k := key(it)
		if err := ctx.Err(); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, ItemError{Key: k, Error: err.Error()})
			continue
		}

		out, err := runOne(ctx, it, fn)
		if err != nil {
			log.Printf("[SWEEP] %s item=%s gagal: %v", job, k, err)
			res.Failed++
			res.Errors = append(res.Errors, ItemError{Key: k, Error: err.Error()})
			continue
		}
		switch out {
		case Changed:
			res.Changed++
		case Skipped:
			res.Skipped++
		default:
			res.Unchanged++
		}
	}

	res.FinishedAt = time.Now()
	return res
}

func runOne[T any](ctx context.Context, it T, fn func(context.Context, T) (Outcome, error)) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, it)
}
