package panels

import (
	"time"

	"cluster-service/internal/graphics"
	"cluster-service/internal/hardware"
)

const splashFadeDuration = 400 * time.Millisecond

// SplashPanel shows the boot logo. Its iteration tag comes from persisted
// preferences; the service downgrades "once" to "disabled" after the first
// showing.
type SplashPanel struct {
	deps Deps

	screen *graphics.Object
	logo   *graphics.Object
	tag    *graphics.Object
	iter   Iteration
}

func NewSplashPanel(deps Deps) *SplashPanel {
	return &SplashPanel{deps: deps}
}

func (p *SplashPanel) Name() string { return SplashPanelName }

func (p *SplashPanel) Iteration() Iteration { return p.iter }

func (p *SplashPanel) Init(io hardware.IO, display graphics.Provider) error {
	p.iter = IterationFromString(p.deps.Prefs.Get().SplashIteration)
	return nil
}

func (p *SplashPanel) Load(onComplete CompletionFunc, io hardware.IO, display graphics.Provider) {
	theme := p.deps.Style.Current()

	p.screen = display.CreateScreen()
	p.screen.Color = theme.Background

	p.logo = display.CreateImage(p.screen)
	p.logo.X, p.logo.Y = 120, 80
	p.logo.Source = "logo.png"
	p.logo.Color = theme.Foreground

	p.tag = display.CreateLabel(p.screen)
	p.tag.X, p.tag.Y = 120, 160
	p.tag.Text = "CLUSTER"
	p.tag.Color = theme.Muted

	// Fade the logo in; load completes when the fade does.
	p.logo.Value = 0
	display.Animate(p.logo, p, 0, 255, splashFadeDuration, func(v int32) {
		p.logo.Value = v
	}, func() {
		if onComplete != nil {
			onComplete()
		}
	})
}

func (p *SplashPanel) Update(onComplete CompletionFunc, io hardware.IO, display graphics.Provider) {
	if onComplete != nil {
		onComplete()
	}
}

func (p *SplashPanel) Destroy(display graphics.Provider) {
	display.CancelOwned(p)
	if p.screen != nil {
		display.DeleteObject(p.screen)
		p.screen = nil
	}
}

func (p *SplashPanel) Screen() *graphics.Object { return p.screen }
