// Package app owns the demo's single thread of control: a ticker that runs
// the touch step and the frame step back to back.
package app

import (
	"context"
	"sync"
	"time"

	appLog "evedemo/internal/log"
	"evedemo/internal/scene"
)

// Backlighter applies a PWM duty to the panel.
type Backlighter interface {
	SetBacklight(duty uint8) error
}

// Status is a point-in-time copy of the loop state for the status API.
type Status struct {
	Toggle    bool           `json:"toggle"`
	Angle     int32          `json:"angle"`
	Counters  scene.Counters `json:"counters"`
	Frames    uint64         `json:"frames"`
	Skipped   uint64         `json:"skipped"`
	Errors    uint64         `json:"errors"`
	Backlight int            `json:"backlight"`
}

// Runner drives a Scene at a fixed interval. All bus traffic happens on the
// goroutine that calls Run; other goroutines only queue requests.
type Runner struct {
	scene    *scene.Scene
	bl       Backlighter
	interval time.Duration

	backlight chan uint8

	mu     sync.Mutex
	status Status

	lastFrame time.Duration
}

func NewRunner(sc *scene.Scene, bl Backlighter, interval time.Duration) *Runner {
	return &Runner{
		scene:     sc,
		bl:        bl,
		interval:  interval,
		backlight: make(chan uint8, 1),
	}
}

// SetBacklight queues a duty change for the next cycle. Only the latest
// pending value is kept.
func (r *Runner) SetBacklight(duty uint8) {
	for {
		select {
		case r.backlight <- duty:
			return
		default:
		}
		select {
		case <-r.backlight:
		default:
		}
	}
}

// Status returns a copy of the current loop state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Run ticks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	appLog.Info("frame loop started", "interval", r.interval.String())
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			st := r.Status()
			appLog.Info("frame loop stopped", "frames", st.Frames, "skipped", st.Skipped, "errors", st.Errors)
			return nil
		case <-t.C:
			r.Step(ctx)
		}
	}
}

// Step runs one cycle: pending backlight change, touch step, frame step.
func (r *Runner) Step(ctx context.Context) {
	var (
		failed  bool
		applied = -1
	)

	select {
	case duty := <-r.backlight:
		if err := r.bl.SetBacklight(duty); err != nil {
			appLog.Error("set backlight failed", err, "duty", duty)
			failed = true
		} else {
			applied = int(duty)
		}
	default:
	}

	start := time.Now()
	if _, err := r.scene.Touch(ctx); err != nil {
		appLog.Error("touch step failed", err)
		failed = true
	}
	touch := time.Since(start)

	r.scene.Counters.TouchMicros = micros(touch)
	r.scene.Counters.FrameMicros = micros(r.lastFrame)

	start = time.Now()
	ran, err := r.scene.Frame(ctx)
	if err != nil {
		appLog.Error("frame step failed", err)
		failed = true
	}
	if ran {
		r.lastFrame = time.Since(start)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ran {
		r.status.Frames++
	} else if err == nil {
		r.status.Skipped++
		appLog.Debug("frame skipped, controller busy")
	}
	if failed {
		r.status.Errors++
	}
	if applied >= 0 {
		r.status.Backlight = applied
	}
	r.status.Toggle = r.scene.State.Toggle
	r.status.Angle = r.scene.State.Angle
	r.status.Counters = r.scene.Counters
}

// InitBacklight records the duty applied during start-up.
func (r *Runner) InitBacklight(duty int) {
	r.mu.Lock()
	r.status.Backlight = duty
	r.mu.Unlock()
}

func micros(d time.Duration) int32 {
	return int32(min(d.Microseconds(), 99999))
}
