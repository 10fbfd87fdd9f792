// Package schedule applies the configured backlight rules on their cron
// schedules.
package schedule

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"evedemo/internal/config"
	appLog "evedemo/internal/log"
)

// BacklightQueue accepts backlight changes; app.Runner implements it.
type BacklightQueue interface {
	SetBacklight(duty uint8)
}

// Start registers every rule with a new cron instance and starts it. The
// caller stops it with the returned *cron.Cron's Stop.
func Start(rules []config.BacklightRule, q BacklightQueue) (*cron.Cron, error) {
	c := cron.New()
	for _, rule := range rules {
		duty := uint8(max(0, min(rule.Duty, 0x80)))
		expr := rule.Cron
		_, err := c.AddFunc(expr, func() {
			appLog.Info("backlight schedule fired", "cron", expr, "duty", duty)
			q.SetBacklight(duty)
		})
		if err != nil {
			return nil, fmt.Errorf("schedule: invalid cron %q: %w", expr, err)
		}
	}
	c.Start()
	appLog.Info("backlight schedule started", "rules", len(rules))
	return c, nil
}
