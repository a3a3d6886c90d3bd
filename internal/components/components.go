// Package components provides the renderable sub-units a panel composes:
// arc gauges, status icons and text readouts. A component's graphics objects
// are strictly nested inside its panel's screen; the panel tears the whole
// subtree down at destruction.
package components

import (
	"fmt"

	"cluster-service/internal/graphics"
	"cluster-service/internal/sensors"
	"cluster-service/internal/styles"
)

// Location positions a component inside its parent screen.
type Location struct {
	X, Y int
}

type Component interface {
	Render(screen *graphics.Object, loc Location, display graphics.Provider)
	Refresh(reading sensors.Reading)
	SetValue(value int32)
}

// ArcGauge renders a value as an arc sweep with a numeric readout.
type ArcGauge struct {
	style    *styles.Service
	label    string
	unit     string
	min, max int32

	arc     *graphics.Object
	readout *graphics.Object
	caption *graphics.Object
	value   int32
}

func NewArcGauge(style *styles.Service, label, unit string, min, max int32) *ArcGauge {
	return &ArcGauge{style: style, label: label, unit: unit, min: min, max: max}
}

func (g *ArcGauge) Render(screen *graphics.Object, loc Location, display graphics.Provider) {
	theme := g.style.Current()

	g.arc = display.CreateArc(screen)
	g.arc.X, g.arc.Y = loc.X, loc.Y
	g.arc.RangeMin, g.arc.RangeMax = g.min, g.max
	g.arc.Color = theme.Accent

	g.readout = display.CreateLabel(screen)
	g.readout.X, g.readout.Y = loc.X, loc.Y+8
	g.readout.Color = theme.Foreground

	g.caption = display.CreateLabel(screen)
	g.caption.X, g.caption.Y = loc.X, loc.Y+24
	g.caption.Text = g.label
	g.caption.Color = theme.Muted

	g.repaint()
}

func (g *ArcGauge) Refresh(reading sensors.Reading) {
	g.SetValue(reading.AsInt())
}

func (g *ArcGauge) SetValue(value int32) {
	if value < g.min {
		value = g.min
	}
	if value > g.max {
		value = g.max
	}
	g.value = value
	g.repaint()
}

func (g *ArcGauge) repaint() {
	if g.arc == nil {
		return
	}
	theme := g.style.Current()
	g.arc.Value = g.value
	g.arc.Color = theme.Accent
	g.readout.Text = fmt.Sprintf("%d %s", g.value, g.unit)
	g.readout.Color = theme.Foreground
	g.caption.Color = theme.Muted
}

// Icon renders a bitmap whose visibility tracks a boolean reading.
type Icon struct {
	style  *styles.Service
	source string

	img    *graphics.Object
	active bool
}

func NewIcon(style *styles.Service, source string) *Icon {
	return &Icon{style: style, source: source}
}

func (i *Icon) Render(screen *graphics.Object, loc Location, display graphics.Provider) {
	i.img = display.CreateImage(screen)
	i.img.X, i.img.Y = loc.X, loc.Y
	i.img.Source = i.source
	i.img.Hidden = !i.active
	i.img.Color = i.style.Current().Foreground
}

func (i *Icon) Refresh(reading sensors.Reading) {
	i.active = reading.Kind() == sensors.ReadingBool && reading.Bool()
	i.repaint()
}

func (i *Icon) SetValue(value int32) {
	i.active = value != 0
	i.repaint()
}

func (i *Icon) repaint() {
	if i.img == nil {
		return
	}
	i.img.Hidden = !i.active
	i.img.Color = i.style.Current().Foreground
}

// Readout renders a reading as plain text.
type Readout struct {
	style  *styles.Service
	prefix string

	label *graphics.Object
}

func NewReadout(style *styles.Service, prefix string) *Readout {
	return &Readout{style: style, prefix: prefix}
}

func (r *Readout) Render(screen *graphics.Object, loc Location, display graphics.Provider) {
	r.label = display.CreateLabel(screen)
	r.label.X, r.label.Y = loc.X, loc.Y
	r.label.Text = r.prefix
	r.label.Color = r.style.Current().Foreground
}

func (r *Readout) Refresh(reading sensors.Reading) {
	if r.label == nil {
		return
	}
	r.label.Text = r.prefix + reading.String()
	r.label.Color = r.style.Current().Foreground
}

func (r *Readout) SetValue(value int32) {
	r.Refresh(sensors.IntReading(value))
}
