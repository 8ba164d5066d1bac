package telemetry

import (
	"log/slog"
	"sort"
	"time"
)

// Phase names for a driver sub-step.
const (
	PhaseIntents    = "intents"
	PhaseAutomation = "automation"
	PhasePrecompute = "precompute"
	PhaseSchedule   = "schedule"
	PhaseIntegrate  = "integrate"
	PhaseTelemetry  = "telemetry"
)

var driverPhases = []string{
	PhaseIntents, PhaseAutomation, PhasePrecompute,
	PhaseSchedule, PhaseIntegrate, PhaseTelemetry,
}

// PerfSample holds timing data for a single sub-step.
type PerfSample struct {
	StepDuration time.Duration
	Phases       map[string]time.Duration
	// Stages holds precompute stage timings reported via RecordPhase.
	Stages map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window of
// sub-steps.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	currentStages map[string]time.Duration
	stepStart     time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of sub-steps to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		currentStages: make(map[string]time.Duration),
	}
}

// StartStep begins timing a new sub-step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.currentStages = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// RecordPhase adds the duration of a precompute stage. It lets the
// collector serve as the precompute's stage recorder.
func (p *PerfCollector) RecordPhase(name string, d time.Duration) {
	p.currentStages[name] += d
}

// EndStep finishes timing the current sub-step and records the sample.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		StepDuration: now.Sub(p.stepStart),
		Phases:       p.currentPhases,
		Stages:       p.currentStages,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Sub-step timing
	AvgStepDuration time.Duration
	MinStepDuration time.Duration
	MaxStepDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total step time
	PhasePct map[string]float64

	// Average precompute stage durations
	StageAvg map[string]time.Duration

	// Throughput
	StepsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
			StageAvg: make(map[string]time.Duration),
		}
	}

	var totalStep time.Duration
	var minStep, maxStep time.Duration
	phaseSum := make(map[string]time.Duration)
	stageSum := make(map[string]time.Duration)

	// Iterate over valid samples
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalStep += s.StepDuration

		if i == 0 || s.StepDuration < minStep {
			minStep = s.StepDuration
		}
		if s.StepDuration > maxStep {
			maxStep = s.StepDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
		for stage, dur := range s.Stages {
			stageSum[stage] += dur
		}
	}

	n := time.Duration(p.sampleCount)
	avgStep := totalStep / n

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / n
		if avgStep > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgStep) * 100
		}
	}
	stageAvg := make(map[string]time.Duration)
	for stage, sum := range stageSum {
		stageAvg[stage] = sum / n
	}

	var stepsPerSec float64
	if avgStep > 0 {
		stepsPerSec = float64(time.Second) / float64(avgStep)
	}

	return PerfStats{
		AvgStepDuration: avgStep,
		MinStepDuration: minStep,
		MaxStepDuration: maxStep,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		StageAvg:        stageAvg,
		StepsPerSecond:  stepsPerSec,
	}
}

// SlowestStages returns precompute stage names by average duration,
// slowest first.
func (s PerfStats) SlowestStages() []string {
	names := make([]string, 0, len(s.StageAvg))
	for name := range s.StageAvg {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.StageAvg[names[i]] != s.StageAvg[names[j]] {
			return s.StageAvg[names[i]] > s.StageAvg[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_step_us", s.AvgStepDuration.Microseconds(),
		"min_step_us", s.MinStepDuration.Microseconds(),
		"max_step_us", s.MaxStepDuration.Microseconds(),
		"steps_per_sec", int(s.StepsPerSecond),
	}

	for _, phase := range driverPhases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}
	if slowest := s.SlowestStages(); len(slowest) > 0 {
		attrs = append(attrs, "slowest_stage", slowest[0])
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_step_us", s.AvgStepDuration.Microseconds()),
		slog.Int64("min_step_us", s.MinStepDuration.Microseconds()),
		slog.Int64("max_step_us", s.MaxStepDuration.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd     float64 `csv:"window_end"`
	AvgStepUS     int64   `csv:"avg_step_us"`
	MinStepUS     int64   `csv:"min_step_us"`
	MaxStepUS     int64   `csv:"max_step_us"`
	StepsPerSec   float64 `csv:"steps_per_sec"`
	IntentsPct    float64 `csv:"intents_pct"`
	AutomationPct float64 `csv:"automation_pct"`
	PrecomputePct float64 `csv:"precompute_pct"`
	SchedulePct   float64 `csv:"schedule_pct"`
	IntegratePct  float64 `csv:"integrate_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
	SlowestStage  string  `csv:"slowest_stage"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd float64) PerfStatsCSV {
	row := PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgStepUS:     s.AvgStepDuration.Microseconds(),
		MinStepUS:     s.MinStepDuration.Microseconds(),
		MaxStepUS:     s.MaxStepDuration.Microseconds(),
		StepsPerSec:   s.StepsPerSecond,
		IntentsPct:    s.PhasePct[PhaseIntents],
		AutomationPct: s.PhasePct[PhaseAutomation],
		PrecomputePct: s.PhasePct[PhasePrecompute],
		SchedulePct:   s.PhasePct[PhaseSchedule],
		IntegratePct:  s.PhasePct[PhaseIntegrate],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
	}
	if slowest := s.SlowestStages(); len(slowest) > 0 {
		row.SlowestStage = slowest[0]
	}
	return row
}
