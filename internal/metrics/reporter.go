package metrics

import (
	"context"
	"fmt"
	"strings"

	cronlib "github.com/robfig/cron/v3"

	. "github.com/KouCha61ue/MIndCore/internal/logging"
)

// ParseSchedule validates a summary schedule. Standard five-field
// expressions and descriptors such as "@hourly" or "@every 30m" are accepted.
func ParseSchedule(spec string) (cronlib.Schedule, error) {
	schedule, err := cronlib.ParseStandard(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("invalid summary schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// ScheduleOff disables the summary reporter.
const ScheduleOff = "off"

// Disabled reports whether spec turns the reporter off.
func Disabled(spec string) bool {
	spec = strings.TrimSpace(spec)
	return spec == "" || strings.EqualFold(spec, ScheduleOff)
}

// StartReporter logs the summary on schedule until ctx is done, running
// each of also after it. An empty spec or ScheduleOff disables the reporter.
func (m *Manager) StartReporter(ctx context.Context, spec string, also ...func()) error {
	if m == nil || Disabled(spec) {
		return nil
	}
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return err
	}

	c := cronlib.New()
	c.Schedule(schedule, m.report(also))
	c.Start()
	L_debug("metrics: summary reporter started", "schedule", spec)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		L_debug("metrics: summary reporter stopped")
	}()
	return nil
}

func (m *Manager) report(also []func()) cronlib.Job {
	return cronlib.FuncJob(func() {
		m.LogSummary()
		for _, fn := range also {
			fn()
		}
	})
}
