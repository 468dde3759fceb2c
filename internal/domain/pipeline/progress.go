package pipeline

// Stage identifies where a pipeline run currently is. Each active stage owns
// a disjoint sub-range of the 0..100 progress scale; stage-local progress is
// rescaled into that sub-range so the caller always sees one non-decreasing
// sequence no matter how many internal steps a stage has.
type Stage string

const (
	StageCompressing Stage = "compressing"
	StageAnalyzing   Stage = "analyzing"
	StageUploading   Stage = "uploading"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// stageRange returns the [lo,hi] progress window owned by an active stage.
func stageRange(s Stage) (lo, hi int) {
	switch s {
	case StageCompressing:
		return 0, 20
	case StageAnalyzing:
		return 20, 80
	case StageUploading:
		return 80, 100
	default:
		return 100, 100
	}
}

// StageFor maps a global progress value back to the stage that owns it, so
// event publishers observing only the rescaled percentage can still label
// events with the active stage.
func StageFor(global int) Stage {
	switch {
	case global < 20:
		return StageCompressing
	case global < 80:
		return StageAnalyzing
	case global < 100:
		return StageUploading
	default:
		return StageDone
	}
}

// tracker converts stage-local progress into the global scale and enforces
// monotonicity, so a misbehaving stage can never walk the caller backwards.
type tracker struct {
	stage    Stage
	last     int
	callback func(int)
}

func newTracker(callback func(int)) *tracker {
	return &tracker{stage: StageCompressing, last: -1, callback: callback}
}

// enter switches to the next stage and reports its lower bound.
func (t *tracker) enter(stage Stage) {
	t.stage = stage
	lo, _ := stageRange(stage)
	t.report(lo)
}

// update reports stage-local progress in [0,100] rescaled into the stage's
// global window.
func (t *tracker) update(stagePct int) {
	if stagePct < 0 {
		stagePct = 0
	}
	if stagePct > 100 {
		stagePct = 100
	}
	lo, hi := stageRange(t.stage)
	t.report(lo + stagePct*(hi-lo)/100)
}

// finish reports the terminal 100.
func (t *tracker) finish() {
	t.stage = StageDone
	t.report(100)
}

func (t *tracker) report(global int) {
	if global <= t.last {
		return
	}
	t.last = global
	if t.callback != nil {
		t.callback(global)
	}
}
