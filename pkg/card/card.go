// Package card defines the shared vocabulary of the personalization
// pipeline: guests, text-overlay regions, scaling factors and media.
//
// A region is authored in design space (the coordinate system of the editor
// UI) and mapped to render space (actual pixels of the template asset) by a
// set of multiplicative scaling factors. Every other package in the pipeline
// consumes these types; none of them are persisted directly — only their
// effects (guest links, roster updates) are.
package card

import (
	"fmt"

	"github.com/pawanm992002/nimantran-backend/pkg/errors"
)

// Medium identifies the kind of template asset a batch personalizes.
type Medium string

// Supported media.
const (
	MediumImage Medium = "image"
	MediumPDF   Medium = "pdf"
	MediumVideo Medium = "video"
)

// UnitCost returns the credit cost of producing one artifact of this medium.
func (m Medium) UnitCost() float64 {
	switch m {
	case MediumImage:
		return 0.25
	case MediumPDF:
		return 0.5
	case MediumVideo:
		return 1.0
	}
	return 0
}

// Ext returns the file extension for artifacts of this medium.
func (m Medium) Ext() string {
	switch m {
	case MediumImage:
		return "png"
	case MediumPDF:
		return "pdf"
	case MediumVideo:
		return "mp4"
	}
	return "bin"
}

// Valid reports whether m is a supported medium.
func (m Medium) Valid() bool {
	switch m {
	case MediumImage, MediumPDF, MediumVideo:
		return true
	}
	return false
}

// Point is a design-space coordinate (top-left origin).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a design-space extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TransitionOptions carries the numeric parameters of a motion transition.
type TransitionOptions struct {
	Duration float64 `json:"duration"` // seconds
}

// Transition describes an optional entry animation for a video region.
type Transition struct {
	Type    string            `json:"type"`
	Options TransitionOptions `json:"options"`
}

// Transition kinds accepted on video regions.
const (
	TransitionMoveUp    = "move_up"
	TransitionMoveDown  = "move_down"
	TransitionMoveLeft  = "move_left"
	TransitionMoveRight = "move_right"
	TransitionSlide     = "slide"
	TransitionPathCover = "path_cover"
	TransitionFade      = "fade"
)

// Region is one placeholder text area defined over a template asset.
// Regions are immutable once submitted for a batch.
type Region struct {
	ID       int    `json:"id"`
	Page     int    `json:"page"` // target page (pdf) or 0 (image/video)
	Text     string `json:"text"` // template string with {field} tokens
	Position Point  `json:"position"`
	Size     Size   `json:"size"`

	FontFamily      string  `json:"fontFamily"`
	FontSize        float64 `json:"fontSize"`
	FontWeight      string  `json:"fontWeight"`
	FontStyle       string  `json:"fontStyle"`
	FontColor       string  `json:"fontColor"`
	BackgroundColor string  `json:"backgroundColor"` // "none" leaves the layer transparent
	Underline       bool    `json:"underline"`

	// Video only: visibility window in seconds and optional entry animation.
	StartTime  float64     `json:"startTime,omitempty"`
	Duration   float64     `json:"duration,omitempty"`
	Transition *Transition `json:"transition,omitempty"`
}

// EndTime returns the end of the region's visibility window.
func (r Region) EndTime() float64 {
	return r.StartTime + r.Duration
}

// Validate checks the invariants a region must satisfy for any medium.
// Page bounds are checked later by the compositor, which knows the template.
func (r Region) Validate() error {
	if r.Size.Width <= 0 || r.Size.Height <= 0 {
		return errors.New(errors.ErrCodeValidation, "region %d: size must be positive", r.ID)
	}
	if r.Page < 0 {
		return errors.New(errors.ErrCodeValidation, "region %d: page must not be negative", r.ID)
	}
	if r.Transition != nil {
		switch r.Transition.Type {
		case TransitionMoveUp, TransitionMoveDown, TransitionMoveLeft, TransitionMoveRight,
			TransitionSlide, TransitionPathCover, TransitionFade:
		default:
			return errors.New(errors.ErrCodeValidation, "region %d: unknown transition %q", r.ID, r.Transition.Type)
		}
		if r.Transition.Options.Duration <= 0 {
			return errors.New(errors.ErrCodeValidation, "region %d: transition duration must be positive", r.ID)
		}
	}
	return nil
}

// Scaling maps design-space units to render-space pixels of the actual
// template asset. Applied consistently to every region of a batch.
type Scaling struct {
	Font float64 `json:"scalingFont"`
	W    float64 `json:"scalingW"`
	H    float64 `json:"scalingH"`
}

// Validate checks that all factors are positive.
func (s Scaling) Validate() error {
	if s.Font <= 0 || s.W <= 0 || s.H <= 0 {
		return errors.New(errors.ErrCodeValidation, "scaling factors must be positive")
	}
	return nil
}

// Guest is one entry of an event roster. MobileNumber is the identity key,
// unique within an event. Link is set once the guest's artifact is uploaded
// and overwritten on reprocessing.
type Guest struct {
	Name         string `json:"name" bson:"name"`
	MobileNumber string `json:"mobileNumber" bson:"mobileNumber"`
	Link         string `json:"link,omitempty" bson:"link,omitempty"`
}

// Field returns the guest field with the given placeholder identifier.
func (g Guest) Field(name string) (string, bool) {
	switch name {
	case "name":
		return g.Name, true
	case "mobileNumber":
		return g.MobileNumber, true
	case "link":
		return g.Link, true
	}
	return "", false
}

// OutputName returns the artifact filename for this guest.
func (g Guest) OutputName(m Medium) string {
	return fmt.Sprintf("%s_%s.%s", g.Name, g.MobileNumber, m.Ext())
}

// SampleGuests returns the canned roster used in sample mode. The long names
// deliberately exercise the shrink-to-fit path.
func SampleGuests() []Guest {
	return []Guest{
		{Name: "pawan mishra", MobileNumber: "1111111111"},
		{Name: "Dr. Venkatanarasimha Raghavan Srinivasachariyar Iyer", MobileNumber: "2222222222"},
		{Name: "Raj", MobileNumber: "3333333333"},
		{Name: "Kushagra Nalwaya", MobileNumber: "4444444444"},
		{Name: "HARSHIL PAGARIA", MobileNumber: "5555555555"},
	}
}
