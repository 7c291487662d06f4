package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/atvirokodosprendimai/maranzalife/internal/application"
	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	cAccent = lipgloss.Color("205")
	cGood   = lipgloss.Color("42")
	cBad    = lipgloss.Color("196")
	cMuted  = lipgloss.Color("244")
	cGold   = lipgloss.Color("220")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	keyStyle   = lipgloss.NewStyle().Bold(true)
	goodStyle  = lipgloss.NewStyle().Foreground(cGood)
	badStyle   = lipgloss.NewStyle().Foreground(cBad)
	mutedStyle = lipgloss.NewStyle().Foreground(cMuted)
	goldStyle  = lipgloss.NewStyle().Bold(true).Foreground(cGold)
	panelStyle = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

var printer = message.NewPrinter(language.Italian)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatMaybeUint(v *uint) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*v), 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// formatMoney renders euros with Italian grouping, e.g. "€ 1.250".
func formatMoney(v int) string {
	return printer.Sprintf("€ %d", v)
}

// formatDelta colours a signed change; money deltas get the euro format.
func formatDelta(stat domain.Stat, v int) string {
	text := fmt.Sprintf("%+d", v)
	if stat == domain.StatMoney {
		sign := "+"
		if v < 0 {
			sign = "-"
			v = -v
		}
		text = sign + formatMoney(v)
	}
	switch {
	case v == 0:
		return mutedStyle.Render(text)
	case strings.HasPrefix(text, "-"):
		return badStyle.Render(text)
	default:
		return goodStyle.Render(text)
	}
}

func printClock(clock domain.GameClock) {
	fmt.Println(keyStyle.Render(fmt.Sprintf("Giorno %d", clock.Day)) + "  " + clock.Time + "  " +
		mutedStyle.Render(fmt.Sprintf("%d ore rimaste", clock.HoursLeft)))
}

func printCharacter(c *domain.Character) {
	if c == nil {
		fmt.Println(mutedStyle.Render("nessun personaggio attivo"))
		return
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Name))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s / %s / avatar %d", c.Personality, c.Look, c.Avatar)))
	for _, stat := range domain.AllStats {
		value := strconv.Itoa(c.Stats.Get(stat))
		if stat == domain.StatMoney {
			value = formatMoney(c.Stats.Money)
		}
		b.WriteString("\n" + keyStyle.Render(fmt.Sprintf("%-11s", string(stat))) + value)
	}
	fmt.Println(panelStyle.Render(b.String()))
}

func printGameState(state domain.GameState) {
	printClock(state.Clock)
	printCharacter(state.Character)
	fmt.Println(titleStyle.Render("Attivita"))
	printActivities(state.Activities)
	if len(state.Inventory) > 0 {
		names := make([]string, 0, len(state.Inventory))
		for _, item := range state.Inventory {
			names = append(names, item.Name)
		}
		fmt.Println(keyStyle.Render("Inventario: ") + strings.Join(names, ", "))
	}
	if len(state.Skills) > 0 {
		rows := make([][]string, 0, len(state.Skills))
		for _, s := range state.Skills {
			rows = append(rows, []string{s.Name, strconv.Itoa(s.Level), fmt.Sprintf("%d/%d", s.Progress, s.MaxLevel)})
		}
		printTable([]string{"SKILL", "LEVEL", "PROGRESS"}, rows)
	}
	for _, c := range state.Contacts {
		fmt.Printf("%s %s (%s, rispetto %s, giorno %d)\n", goldStyle.Render("["+c.Initials+"]"), c.Name, c.Type, c.Respect, c.DayMet)
	}
}

func printActivities(items []domain.Activity) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		parts := make([]string, 0, len(domain.AllStats))
		for _, stat := range domain.AllStats {
			if v := item.Effects.Get(stat); v != 0 {
				parts = append(parts, fmt.Sprintf("%s %+d", stat, v))
			}
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Title,
			strconv.Itoa(item.Duration) + "h",
			strings.Join(parts, ", "),
		})
	}
	printTable([]string{"ID", "TITLE", "DURATION", "EFFECTS"}, rows)
}

func printActivityResult(res application.ActivityResult) {
	fmt.Println(titleStyle.Render(res.Text))
	for _, stat := range domain.AllStats {
		if v := res.Applied.Get(stat); v != 0 {
			fmt.Printf("  %-11s %s\n", stat, formatDelta(stat, v))
		}
	}
	if res.NewContact != nil {
		fmt.Println(goldStyle.Render("Nuovo contatto: ") + res.NewContact.Name + " (" + res.NewContact.Type + ")")
	}
	if sp := res.SkillProgress; sp != nil {
		line := fmt.Sprintf("%s +%d, livello %d (%d/%d)", sp.SkillName, sp.Gained, sp.Level, sp.Progress, sp.MaxLevel)
		if sp.LevelUp {
			line += " " + goldStyle.Render("LEVEL UP")
		}
		fmt.Println(line)
	}
	if res.DayRolledOver {
		fmt.Println(goodStyle.Render("Nuovo giorno, energia ricaricata"))
	}
	printClock(res.Clock)
}

func printShopItems(items []domain.ShopItem) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		status := "disponibile"
		switch {
		case item.Owned:
			status = "posseduto"
		case !item.Available:
			status = fmt.Sprintf("dal giorno %d", item.UnlockDay)
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Name,
			string(item.Category),
			formatMoney(item.Price),
			status,
		})
	}
	printTable([]string{"ID", "NAME", "CATEGORY", "PRICE", "STATUS"}, rows)
}

func printPurchase(res application.PurchaseResult) {
	if !res.Success {
		fmt.Println(badStyle.Render(res.Message))
		return
	}
	fmt.Println(goodStyle.Render(res.Message))
	if res.NewMoney != nil {
		fmt.Println(keyStyle.Render("Soldi: ") + formatMoney(*res.NewMoney))
	}
}

func printAuditRecords(items []domain.AuditRecord) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Action,
			item.TargetType,
			formatMaybeUint(item.TargetID),
			item.ActorUserEmail,
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "ACTION", "TARGET_TYPE", "TARGET_ID", "ACTOR", "AT"}, rows)
}
