package render

import (
	"time"
)

/*
Playback converts wall-clock time into a playback step so animation
speed stays independent of how often frames are drawn. The step is
elapsed time over the step duration, clamped to the final step,
never a frame count.
*/
type Playback struct {
	stepDuration time.Duration
	maxStep      float64
	start        time.Time
	now          func() time.Time
}

/*
NewPlayback returns a stepper that advances one step per
stepDuration up to maxStep. The clock starts on the first call to
Step (or an explicit Start).
*/
func NewPlayback(stepDuration time.Duration, maxStep float64) *Playback {
	if stepDuration <= 0 {
		stepDuration = time.Second
	}
	return &Playback{stepDuration: stepDuration, maxStep: maxStep, now: time.Now}
}

/*
SetClock replaces the playback's time source. Offline renderers
use it to advance the playback deterministically, one synthetic
tick per frame, instead of waiting on the wall clock.
*/
func (p *Playback) SetClock(now func() time.Time) {
	p.now = now
}

// Start resets the clock so the playback begins at step 0 again.
func (p *Playback) Start() {
	p.start = p.now()
}

/*
Step returns the current playback step. It never decreases between
calls and never exceeds the final step.
*/
func (p *Playback) Step() float64 {
	if p.start.IsZero() {
		p.Start()
	}
	step := p.now().Sub(p.start).Seconds() / p.stepDuration.Seconds()
	if step > p.maxStep {
		return p.maxStep
	}
	return step
}

// Done reports whether the playback has reached its final step.
func (p *Playback) Done() bool {
	return p.Step() >= p.maxStep
}
