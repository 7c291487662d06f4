package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/maranzalife/internal/application"
	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

var esc = templ.EscapeString[string]

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!doctype html>
<html lang="it">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<script type="module" src="%s"></script>
<style>
body{font-family:system-ui,sans-serif;background:#111;color:#eee;margin:0;padding:1.5rem}
.card{background:#1c1c1c;border-radius:8px;padding:1rem;margin-bottom:1rem}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(220px,1fr));gap:.75rem}
.activity{border-left:4px solid var(--c);padding:.5rem .75rem;background:#222;border-radius:6px}
.flash-error{color:#e74c3c}.flash-info{color:#2ecc71}
button{cursor:pointer}
</style>
</head>
<body>
`, esc(title), datastarScript)
		if err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, "</body>\n</html>\n")
		return err
	})
}

func LoginPage(message string) templ.Component {
	return layout("Maranza Life - Login", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<main class="card"><h1>Maranza Life</h1>`); err != nil {
			return err
		}
		if message != "" {
			if err := Flash(message, "error").Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `<form method="post" action="/login">
<label>Email <input name="email" type="email" required></label>
<label>Password <input name="password" type="password" required></label>
<button type="submit">Entra</button>
</form></main>`)
		return err
	}))
}

// DashboardPage renders the whole game for one player.
func DashboardPage(email string, state domain.GameState) templ.Component {
	return layout("Maranza Life", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<header data-signals="{activityId: '', hours: 1}">
<h1>Maranza Life</h1>
<p>%s <form method="post" action="/logout" style="display:inline"><button type="submit">Esci</button></form></p>
</header>
<div id="flash"></div>
`, esc(email))
		if err != nil {
			return err
		}
		parts := []templ.Component{
			ClockBar(state.Clock),
			StatsPanel(state.Character),
			ActivityResultCard(nil),
			ActivityList(state.Activities, state.Character != nil),
			ContactsList(state.Contacts),
		}
		for _, part := range parts {
			if err := part.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	}))
}

func ClockBar(clock domain.GameClock) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section id="clock" class="card">
<strong>Giorno %d</strong> &middot; %s &middot; %d ore rimaste
<span>
<input type="number" min="1" max="12" data-bind:hours>
<button data-on:click="@post('/ui/advance')">Avanza</button>
</span>
</section>
`, clock.Day, esc(clock.Time), clock.HoursLeft)
		return err
	})
}

func StatsPanel(character *domain.Character) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if character == nil {
			_, err := io.WriteString(w, `<section id="stats" class="card"><p>Nessun personaggio. Creane uno con POST /game/character.</p></section>
`)
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, `<section id="stats" class="card"><h2>%s</h2><p>%s &middot; %s &middot; avatar %d</p><ul>`,
			esc(character.Name), esc(string(character.Personality)), esc(string(character.Look)), character.Avatar)
		for _, stat := range domain.AllStats {
			fmt.Fprintf(&b, `<li>%s: %d</li>`, esc(string(stat)), character.Stats.Get(stat))
		}
		b.WriteString("</ul></section>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func ActivityList(activities []domain.Activity, playable bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section id="activities" class="card"><h2>Attivita</h2><div class="grid">`)
		for _, a := range activities {
			fmt.Fprintf(&b, `<div class="activity" style="--c:%s"><strong>%s</strong> (%dh)<p>%s</p><small>%s</small>`,
				esc(a.Color), esc(a.Title), a.Duration, esc(a.Description), esc(effectSummary(a.Effects)))
			if playable {
				fmt.Fprintf(&b, `<button data-on:click="$activityId = '%d'; @post('/ui/activity')">Vai</button>`, a.ID)
			}
			b.WriteString(`</div>`)
		}
		b.WriteString("</div></section>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func ContactsList(contacts []domain.Contact) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section id="contacts" class="card"><h2>Contatti</h2>`)
		if len(contacts) == 0 {
			b.WriteString(`<p>Ancora nessuno.</p>`)
		}
		for _, c := range contacts {
			fmt.Fprintf(&b, `<p><span style="color:%s">[%s]</span> %s &middot; %s &middot; rispetto %s &middot; giorno %d</p>`,
				esc(c.Color), esc(c.Initials), esc(c.Name), esc(c.Type), esc(string(c.Respect)), c.DayMet)
		}
		b.WriteString("</section>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ActivityResultCard renders the outcome of the last activity; nil renders
// an empty placeholder.
func ActivityResultCard(result *application.ActivityResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if result == nil {
			_, err := io.WriteString(w, `<section id="result"></section>
`)
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, `<section id="result" class="card"><p>%s</p><p>%s</p>`, esc(result.Text), esc(effectSummary(result.Applied)))
		if result.NewContact != nil {
			fmt.Fprintf(&b, `<p>Nuovo contatto: %s (%s)</p>`, esc(result.NewContact.Name), esc(result.NewContact.Type))
		}
		if sp := result.SkillProgress; sp != nil {
			fmt.Fprintf(&b, `<p>%s +%d (livello %d, %d/%d)</p>`, esc(sp.SkillName), sp.Gained, sp.Level, sp.Progress, sp.MaxLevel)
		}
		if result.DayRolledOver {
			b.WriteString(`<p>Nuovo giorno! Energia ricaricata.</p>`)
		}
		b.WriteString("</section>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func Flash(message, level string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div id="flash" class="flash-%s">%s</div>
`, esc(level), esc(message))
		return err
	})
}

func effectSummary(e domain.Effects) string {
	parts := make([]string, 0, len(domain.AllStats))
	for _, stat := range domain.AllStats {
		if v := e.Get(stat); v != 0 {
			parts = append(parts, fmt.Sprintf("%s %+d", stat, v))
		}
	}
	return strings.Join(parts, ", ")
}
