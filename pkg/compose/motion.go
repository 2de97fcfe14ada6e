package compose

import (
	"fmt"

	"github.com/pawanm992002/nimantran-backend/pkg/card"
)

// slideOffset is how far, in render-space pixels, a moving transition starts
// from its resting position.
const slideOffset = 50

// orbitSpeed is the angular speed (revolutions per second) of the path_cover
// transition. The orbit lasts exactly one period, then snaps to rest.
const orbitSpeed = 0.4

// Expr is a motion expression: the value of one overlay coordinate as a
// function of stream time. Expressions are built as tagged variants carrying
// their numeric parameters and compiled to ffmpeg expression syntax in one
// place, keeping the transition math testable apart from graph serialization.
type Expr interface {
	Compile() string
}

// Constant is a fixed coordinate.
type Constant float64

// Compile implements Expr.
func (c Constant) Compile() string {
	return fmt.Sprintf("%d", int(c))
}

// LinearRamp interpolates from From to To over Duration seconds starting at
// Start, then holds Final.
type LinearRamp struct {
	Start    float64
	Duration float64
	From     float64
	To       float64
	Final    float64
}

// Compile implements Expr.
func (r LinearRamp) Compile() string {
	return fmt.Sprintf("if(lt(t,%g+%g), (%d + (t-%g)*(%d-%d)/%g), %d)",
		r.Start, r.Duration,
		int(r.From), r.Start, int(r.To), int(r.From), r.Duration,
		int(r.Final))
}

// Orbit circles the resting coordinate along a trigonometric path for one
// full period at Speed revolutions per second, then holds Center. Radius is
// an ffmpeg expression (the overlay's own dimensions are only known to the
// filter graph at evaluation time).
type Orbit struct {
	Start  float64
	Center float64
	Radius string
	Speed  float64
	Trig   string // "cos" for X, "sin" for Y
}

// Compile implements Expr.
func (o Orbit) Compile() string {
	return fmt.Sprintf("if(lt(t,%g),%d,if(lt(t,%g + 1/%g),%d + %s * %s(2*PI*%g*(t-%g)),%d))",
		o.Start, int(o.Center),
		o.Start, o.Speed,
		int(o.Center), o.Radius, o.Trig, o.Speed, o.Start,
		int(o.Center))
}

// OpacityRamp fades a layer in from transparent over Duration seconds
// starting at Start. Unlike the positional expressions it compiles to a
// dedicated fade filter placed before the overlay, not to a coordinate.
type OpacityRamp struct {
	Start    float64
	Duration float64
}

// regionMotion builds the coordinate expressions for one region, given its
// resting render-space position. The returned fade is non-nil only for fade
// transitions; frameEval is true when the expression must be re-evaluated
// per frame rather than per slice.
func regionMotion(r card.Region, xPos, yPos int) (x, y Expr, fade *OpacityRamp, frameEval bool) {
	x, y = Constant(xPos), Constant(yPos)
	if r.Transition == nil {
		return x, y, nil, false
	}

	d := r.Transition.Options.Duration
	fx, fy := float64(xPos), float64(yPos)

	switch r.Transition.Type {
	case card.TransitionMoveUp:
		y = LinearRamp{Start: r.StartTime, Duration: d, From: fy + slideOffset, To: fy, Final: fy}
	case card.TransitionMoveDown:
		y = LinearRamp{Start: r.StartTime, Duration: d, From: fy - slideOffset, To: fy, Final: fy}
	case card.TransitionMoveRight:
		x = LinearRamp{Start: r.StartTime, Duration: d, From: fx - slideOffset, To: fx, Final: fx}
	case card.TransitionMoveLeft:
		x = LinearRamp{Start: r.StartTime, Duration: d, From: fx + slideOffset, To: fx, Final: fx}
	case card.TransitionSlide:
		// The slide settles at the diagonally opposite offset, not at the
		// authored position.
		x = LinearRamp{Start: r.StartTime, Duration: d, From: fx - slideOffset, To: fx + slideOffset, Final: fx + slideOffset}
		y = LinearRamp{Start: r.StartTime, Duration: d, From: fy - slideOffset, To: fy + slideOffset, Final: fy + slideOffset}
	case card.TransitionPathCover:
		x = Orbit{Start: r.StartTime, Center: fx, Radius: "(overlay_w/5)", Speed: orbitSpeed, Trig: "cos"}
		y = Orbit{Start: r.StartTime, Center: fy, Radius: "(overlay_h/5)", Speed: orbitSpeed, Trig: "sin"}
		frameEval = true
	case card.TransitionFade:
		fade = &OpacityRamp{Start: r.StartTime, Duration: d}
	}
	return x, y, fade, frameEval
}
