package schedule

import (
	"sort"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"evedemo/internal/config"
)

type recorder struct {
	mu     sync.Mutex
	duties []uint8
}

func (r *recorder) SetBacklight(duty uint8) {
	r.mu.Lock()
	r.duties = append(r.duties, duty)
	r.mu.Unlock()
}

func TestStartRegistersRules(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	cr, err := Start([]config.BacklightRule{
		{Cron: "0 22 * * *", Duty: 16},
		{Cron: "@every 1h", Duty: 128},
	}, rec)
	c.Assert(err, qt.IsNil)
	defer cr.Stop()

	entries := cr.Entries()
	c.Assert(entries, qt.HasLen, 2)

	// Entries are ordered by next activation, so compare sorted.
	for _, e := range entries {
		e.Job.Run()
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	sort.Slice(rec.duties, func(i, j int) bool { return rec.duties[i] < rec.duties[j] })
	c.Assert(rec.duties, qt.DeepEquals, []uint8{16, 128})
}

func TestStartRejectsBadCron(t *testing.T) {
	_, err := Start([]config.BacklightRule{{Cron: "every tuesday", Duty: 1}}, &recorder{})
	qt.Assert(t, err, qt.ErrorMatches, `schedule: invalid cron "every tuesday": .*`)
}

func TestEveryFires(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	cr, err := Start([]config.BacklightRule{{Cron: "@every 1s", Duty: 42}}, rec)
	c.Assert(err, qt.IsNil)
	defer cr.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec.mu.Lock()
		n := len(rec.duties)
		rec.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	c.Fatal("schedule never fired")
}
