package provider

import (
	"context"
	"strings"

	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/dictionary"
	"github.com/bastiangx/typr/pkg/suggest"
)

// latexCommands maps a command name to its replacement. "#" marks a snippet stop.
var latexCommands = []struct{ name, replacement string }{
	{"alpha", `\alpha`}, {"beta", `\beta`}, {"gamma", `\gamma`}, {"Gamma", `\Gamma`},
	{"delta", `\delta`}, {"Delta", `\Delta`}, {"epsilon", `\epsilon`}, {"varepsilon", `\varepsilon`},
	{"zeta", `\zeta`}, {"eta", `\eta`}, {"theta", `\theta`}, {"Theta", `\Theta`},
	{"iota", `\iota`}, {"kappa", `\kappa`}, {"lambda", `\lambda`}, {"Lambda", `\Lambda`},
	{"mu", `\mu`}, {"nu", `\nu`}, {"xi", `\xi`}, {"pi", `\pi`}, {"Pi", `\Pi`},
	{"rho", `\rho`}, {"sigma", `\sigma`}, {"Sigma", `\Sigma`}, {"tau", `\tau`},
	{"phi", `\phi`}, {"varphi", `\varphi`}, {"Phi", `\Phi`}, {"chi", `\chi`},
	{"psi", `\psi`}, {"Psi", `\Psi`}, {"omega", `\omega`}, {"Omega", `\Omega`},
	{"frac", `\frac{#}{#}`}, {"dfrac", `\dfrac{#}{#}`}, {"sqrt", `\sqrt{#}`},
	{"sum", `\sum_{#}^{#}`}, {"prod", `\prod_{#}^{#}`}, {"int", `\int_{#}^{#}`},
	{"iint", `\iint`}, {"oint", `\oint`}, {"lim", `\lim_{#}`}, {"limits", `\limits`},
	{"infty", `\infty`}, {"partial", `\partial`}, {"nabla", `\nabla`},
	{"cdot", `\cdot`}, {"cdots", `\cdots`}, {"ldots", `\ldots`}, {"times", `\times`},
	{"leq", `\leq`}, {"geq", `\geq`}, {"neq", `\neq`}, {"approx", `\approx`},
	{"equiv", `\equiv`}, {"sim", `\sim`}, {"pm", `\pm`}, {"mp", `\mp`},
	{"in", `\in`}, {"notin", `\notin`}, {"subset", `\subset`}, {"subseteq", `\subseteq`},
	{"cup", `\cup`}, {"cap", `\cap`}, {"emptyset", `\emptyset`}, {"forall", `\forall`},
	{"exists", `\exists`}, {"rightarrow", `\rightarrow`}, {"Rightarrow", `\Rightarrow`},
	{"leftarrow", `\leftarrow`}, {"Leftarrow", `\Leftarrow`}, {"leftrightarrow", `\leftrightarrow`},
	{"mapsto", `\mapsto`}, {"to", `\to`}, {"mathbb", `\mathbb{#}`}, {"mathcal", `\mathcal{#}`},
	{"mathrm", `\mathrm{#}`}, {"mathbf", `\mathbf{#}`}, {"text", `\text{#}`},
	{"hat", `\hat{#}`}, {"bar", `\bar{#}`}, {"vec", `\vec{#}`}, {"overline", `\overline{#}`},
	{"left", `\left(#\right)`}, {"binom", `\binom{#}{#}`},
	{"begin", `\begin{#}` + "\n#\n" + `\end{#}`},
}

// Latex completes \commands while the cursor is in a math block.
type Latex struct {
	engine       *dictionary.Engine
	replacements map[string]string
}

func NewLatex() *Latex {
	l := &Latex{
		engine:       dictionary.NewEngine(),
		replacements: make(map[string]string, len(latexCommands)),
	}
	for _, c := range latexCommands {
		l.engine.AddWord(c.name)
		l.replacements[c.name] = c.replacement
	}
	return l
}

func (l *Latex) Name() string                  { return "latex" }
func (l *Latex) BlocksAllOtherProviders() bool { return true }

func (l *Latex) Suggestions(_ context.Context, sc *suggest.Context, settings *config.Config) suggest.Result {
	if !settings.Providers.Latex || sc.Separator != `\` || sc.Query == "" {
		return suggest.Empty()
	}
	if settings.Providers.LatexRequireMathBlock && !insideMath(sc.TextBeforeCursor()) {
		return suggest.Empty()
	}

	matches := l.engine.Query(sc.Query, dictionary.Options{Mode: config.MatchCaseReplace, MinLength: 1})
	if len(matches) == 0 {
		return suggest.Empty()
	}
	start := suggest.Position{Line: sc.Start.Line, Ch: sc.Start.Ch - 1}
	out := make([]suggest.Suggestion, len(matches))
	for i, m := range matches {
		s := start
		out[i] = suggest.Suggestion{
			DisplayName:   `\` + m.DisplayName,
			Replacement:   l.replacements[m.DisplayName],
			OverrideStart: &s,
		}
	}
	return suggest.Ready(out)
}

// insideMath reports whether the end of text sits inside $...$ or $$...$$.
// Escaped dollars do not count.
func insideMath(text string) bool {
	display, inline := false, false
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '\n':
			// inline math never spans lines
			inline = false
		case '$':
			if strings.HasPrefix(text[i:], "$$") {
				display = !display
				inline = false
				i++
				continue
			}
			if !display {
				inline = !inline
			}
		}
	}
	return display || inline
}
