package panels

import (
	"cluster-service/internal/graphics"
	"cluster-service/internal/hardware"
)

// ErrorPanel is the fallback surface shown when another panel fails to
// initialize.
type ErrorPanel struct {
	deps Deps

	screen  *graphics.Object
	message string
	label   *graphics.Object
}

func NewErrorPanel(deps Deps) *ErrorPanel {
	return &ErrorPanel{deps: deps, message: "SYSTEM ERROR"}
}

func (p *ErrorPanel) Name() string { return ErrorPanelName }

func (p *ErrorPanel) SetMessage(msg string) {
	p.message = msg
	if p.label != nil {
		p.label.Text = p.message
	}
}

func (p *ErrorPanel) Init(io hardware.IO, display graphics.Provider) error { return nil }

func (p *ErrorPanel) Load(onComplete CompletionFunc, io hardware.IO, display graphics.Provider) {
	theme := p.deps.Style.Current()

	p.screen = display.CreateScreen()
	p.screen.Color = theme.Background

	warn := display.CreateLabel(p.screen)
	warn.X, warn.Y = 120, 80
	warn.Text = "!"
	warn.Color = theme.Warning

	p.label = display.CreateLabel(p.screen)
	p.label.X, p.label.Y = 120, 140
	p.label.Text = p.message
	p.label.Color = theme.Foreground

	if onComplete != nil {
		onComplete()
	}
}

func (p *ErrorPanel) Update(onComplete CompletionFunc, io hardware.IO, display graphics.Provider) {
	if onComplete != nil {
		onComplete()
	}
}

func (p *ErrorPanel) Destroy(display graphics.Provider) {
	display.CancelOwned(p)
	if p.screen != nil {
		display.DeleteObject(p.screen)
		p.screen = nil
	}
}

func (p *ErrorPanel) Screen() *graphics.Object { return p.screen }
