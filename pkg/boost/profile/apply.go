package profile

import (
	"context"
	"fmt"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
)

// ApplyReport summarizes one Apply call.
type ApplyReport struct {
	Profile Profile   `json:"profile"`
	Applied []Process `json:"applied"`
	Failed  []Process `json:"failed,omitempty"`
}

// OK reports whether every process was set.
func (r ApplyReport) OK() bool { return len(r.Failed) == 0 }

// Apply sets the priority of the profile's main process and then of each
// sub-process. A failed process is logged and skipped. The profile is
// marked Optimized afterwards, even when some processes failed.
func (s *Store) Apply(ctx context.Context, id int64) (ApplyReport, error) {
	p, err := s.Get(id)
	if err != nil {
		return ApplyReport{}, err
	}

	s.log.Appendf("Applying profile '%s'...", p.Name)
	s.logger.Info("applying profile", "id", p.ID, "name", p.Name)

	report := ApplyReport{}
	set := func(tag string, proc Process) {
		s.log.Appendf("> [%s] Setting %s priority to %s", tag, proc.Name, proc.Priority)
		msg, ok := gateway.Outcome(s.gw.SetProcessPriority(ctx, proc.Name, proc.Priority))
		if !ok {
			s.log.Warnf("> [%s] %s: %s", tag, proc.Name, msg)
			s.logger.Warn("set priority failed", "process", proc.Name, "err", msg)
			report.Failed = append(report.Failed, proc)
			return
		}
		report.Applied = append(report.Applied, proc)
	}

	set("MAIN", p.MainProcess)
	for _, sp := range p.SubProcesses {
		set("SUB", sp)
	}

	s.mu.Lock()
	i := s.index(id)
	if i >= 0 {
		next := cloneAll(s.profiles)
		next[i].Status = Optimized
		next[i].LastApplied = s.now()
		if err := s.commit(next); err != nil {
			s.mu.Unlock()
			return report, err
		}
		p = next[i].clone()
	}
	s.mu.Unlock()
	report.Profile = p

	s.log.Append(summary(p.Name, report))
	return report, nil
}

func summary(name string, r ApplyReport) string {
	if r.OK() {
		return fmt.Sprintf("Profile '%s' applied (%d processes)", name, len(r.Applied))
	}
	return fmt.Sprintf("Profile '%s' applied with %d of %d processes failed",
		name, len(r.Failed), len(r.Applied)+len(r.Failed))
}
