package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/linechart"
	tslc "github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/shopspring/decimal"

	"github.com/jask/fintrack/internal/ledger"
	"github.com/jask/fintrack/internal/state"
)

var (
	colorMuted    lipgloss.Color = "#a6adc8"
	colorBorder   lipgloss.Color = "#585b70"
	colorAccent   lipgloss.Color = "#89b4fa"
	colorSuccess  lipgloss.Color = "#a6e3a1"
	colorError    lipgloss.Color = "#f38ba8"
	colorTabOff   lipgloss.Color = "#7f849c"
	colorSurface0 lipgloss.Color = "#313244"
)

// styles
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	headerAppStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	activeTabStyle = lipgloss.NewStyle().
			Background(colorSurface0).
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorTabOff).
				Padding(0, 1)
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
	cardLabelStyle = lipgloss.NewStyle().Foreground(colorMuted)
	incomeStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	expenseStyle   = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	keyStyle       = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	noticeStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	errStyle       = lipgloss.NewStyle().Foreground(colorError)
	modalStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
)

const (
	defaultWidth = 100
	chartHeight  = 10
	emptyTxText  = "No transactions found."
)

func (a *App) contentWidth() int {
	if a.width <= 0 {
		return defaultWidth
	}
	return a.width
}

func (a *App) money(d decimal.Decimal) string {
	return ledger.FormatMoney(a.currency, d)
}

func (a *App) renderLogin() string {
	out := headerAppStyle.Render("fintrack") + "\n\n"
	out += titleStyle.Render("Enter PIN") + "\n"
	out += a.pin.View() + "\n"
	switch {
	case a.loggingIn:
		out += mutedStyle.Render("checking...") + "\n"
	case a.loginErr != "":
		out += errStyle.Render(a.loginErr) + "\n"
	case a.snap.Retryable():
		out += errStyle.Render("Cannot reach the server.") + "\n"
	}
	help := "[enter] Login  [esc] Quit"
	if a.snap.Retryable() {
		help = "[enter] Login  [R] Retry  [esc] Quit"
	}
	return out + mutedStyle.Render(help)
}

func (a *App) renderHeader() string {
	tabs := []struct {
		key  string
		name string
		view state.View
	}{
		{"d", "Dashboard", state.ViewDashboard},
		{"t", "Transactions", state.ViewTransactions},
		{"m", "Manage", state.ViewManage},
	}
	parts := []string{headerAppStyle.Render("fintrack")}
	for _, t := range tabs {
		label := fmt.Sprintf("[%s] %s", t.key, t.name)
		if a.snap.View == t.view {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (a *App) renderFooter() string {
	var line string
	switch {
	case a.snap.Err != nil:
		line = errStyle.Render(a.loadErrText())
	case a.status != "":
		line = errStyle.Render(a.status)
	case a.notice != "":
		line = noticeStyle.Render(a.notice)
	case a.snap.Loading:
		line = mutedStyle.Render("loading...")
	}
	help := mutedStyle.Render(helpLine(a.keys.Quit))
	if a.snap.Err != nil {
		help = mutedStyle.Render(helpLine(a.keys.Retry, a.keys.Quit))
	}
	if line == "" {
		return help
	}
	return line + "\n" + help
}

func (a *App) loadErrText() string {
	if a.snap.Retryable() {
		return "Cannot reach the server. Press R to retry."
	}
	return "Failed to load data: " + a.snap.Err.Error() + " (R to retry)"
}

func (a *App) renderDashboard() string {
	if !a.snap.DashboardLoaded {
		if a.snap.Loading {
			return mutedStyle.Render("loading dashboard...")
		}
		return mutedStyle.Render("No dashboard data.")
	}
	d := a.snap.Dashboard
	width := a.contentWidth()

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		a.renderCard("Total Income", incomeStyle.Render(a.money(d.Summary.Income))),
		a.renderCard("Total Expenses", expenseStyle.Render(a.money(d.Summary.Expenses))),
		a.renderCard("Balance", a.money(d.Summary.Balance)),
	)

	out := cards + "\n" + a.renderPeriodPills() + "\n\n"
	out += titleStyle.Render("Income vs Expense") + "  " +
		incomeStyle.Render("━ income") + " " + expenseStyle.Render("━ expense") + "\n"
	out += renderLineChart(d.LineChart, width-2, chartHeight) + "\n\n"
	out += titleStyle.Render("Spending by Category") + "\n"
	out += renderCategoryBars(d.BarChart, width-2, chartHeight) + "\n"
	out += a.renderCategoryLegend(d.BarChart, width-2)
	return out
}

func (a *App) renderCard(label, value string) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + value)
}

func (a *App) renderPeriodPills() string {
	var parts []string
	for _, p := range ledger.Periods {
		label := strings.ToUpper(string(p)[:1]) + string(p)[1:]
		if p == a.snap.Period {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ") + "  " + mutedStyle.Render(helpLine(a.keys.Period))
}

// chartEpoch anchors the synthetic time axis: point i sits i days after it.
var chartEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func chartTime(i int) time.Time { return chartEpoch.AddDate(0, 0, i) }

func renderLineChart(lc ledger.LineChart, width, height int) string {
	n := len(lc.Labels)
	if n == 0 {
		return mutedStyle.Render("No data for this period.")
	}
	if width < 20 {
		width = 20
	}
	income := ledger.Floats(lc.Income)
	expense := ledger.Floats(lc.Expense)
	maxVal := 1.0
	for _, v := range append(append([]float64(nil), income...), expense...) {
		maxVal = math.Max(maxVal, v)
	}

	start, end := chartTime(0), chartTime(max(n-1, 1))
	chart := tslc.New(width, height)
	chart.SetTimeRange(start, end)
	chart.SetViewTimeRange(start, end)
	chart.SetYRange(0, maxVal)
	chart.SetViewYRange(0, maxVal)
	chart.AxisStyle = lipgloss.NewStyle().Foreground(colorBorder)
	chart.LabelStyle = lipgloss.NewStyle().Foreground(colorTabOff)
	chart.Model.XLabelFormatter = indexLabelFormatter(lc.Labels)
	chart.Model.YLabelFormatter = func(_ int, v float64) string { return compactAmount(v) }

	chart.SetStyle(expenseStyle)
	chart.SetDataSetStyle("income", incomeStyle)
	for i := 0; i < n; i++ {
		t := chartTime(i)
		if i < len(expense) {
			chart.Push(tslc.TimePoint{Time: t, Value: expense[i]})
		}
		if i < len(income) {
			chart.PushDataSet("income", tslc.TimePoint{Time: t, Value: income[i]})
		}
	}
	chart.DrawBrailleAll()
	return chart.View()
}

// indexLabelFormatter maps the synthetic x axis back to the backend labels.
func indexLabelFormatter(labels []string) linechart.LabelFormatter {
	return func(_ int, v float64) string {
		i := int(math.Round((v - float64(chartEpoch.Unix())) / 86400))
		if i < 0 || i >= len(labels) {
			return ""
		}
		return ansi.Truncate(labels[i], 9, "")
	}
}

func compactAmount(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

var barPalette = []lipgloss.Color{"#f38ba8", "#fab387", "#f9e2af", "#a6e3a1", "#89b4fa", "#cba6f7", "#94e2d5"}

func renderCategoryBars(bc ledger.BarChart, width, height int) string {
	if len(bc.Labels) == 0 {
		return mutedStyle.Render("No spending in this period.")
	}
	values := ledger.Floats(bc.Data)
	data := make([]barchart.BarData, 0, len(bc.Labels))
	for i, label := range bc.Labels {
		v := 0.0
		if i < len(values) {
			v = values[i]
		}
		style := lipgloss.NewStyle().Foreground(barPalette[i%len(barPalette)])
		data = append(data, barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: label, Value: v, Style: style}},
		})
	}
	chart := barchart.New(width, height)
	chart.PushAll(data)
	chart.Draw()
	return chart.View()
}

func (a *App) renderCategoryLegend(bc ledger.BarChart, width int) string {
	var b strings.Builder
	for i, label := range bc.Labels {
		amt := decimal.Zero
		if i < len(bc.Data) {
			amt = bc.Data[i]
		}
		swatch := lipgloss.NewStyle().Foreground(barPalette[i%len(barPalette)]).Render("■")
		line := fmt.Sprintf("%s %-20s %s", swatch, ansi.Truncate(label, 20, ""), a.money(amt))
		b.WriteString(ansi.Truncate(line, width, "") + "\n")
	}
	return b.String()
}

func (a *App) renderTransactions() string {
	sel := a.snap.Selection
	out := titleStyle.Render("Transactions") + "\n"
	out += fmt.Sprintf("%s %s   %s %s\n\n",
		keyStyle.Render("[r]"), sel.Date.Label(),
		keyStyle.Render("[f]"), sel.Type.Label())

	switch {
	case len(a.snap.Transactions) > 0:
		out += a.transactionTable().View() + "\n"
	case a.snap.Loading:
		out += mutedStyle.Render("loading...") + "\n"
	default:
		out += mutedStyle.Render(emptyTxText) + "\n"
	}
	k := a.keys
	out += "\n" + mutedStyle.Render(helpLine(k.Up, k.Down, k.Add, k.Delete))
	return out
}

// transactionTable lays the filtered list out with the cursor row selected.
func (a *App) transactionTable() table.Model {
	width := a.contentWidth()
	descW := width - 10 - 16 - 14 - 8
	if descW < 12 {
		descW = 12
	}
	cols := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Category", Width: 16},
		{Title: "Description", Width: descW},
		{Title: "Amount", Width: 14},
	}
	rows := make([]table.Row, 0, len(a.snap.Transactions))
	for _, t := range a.snap.Transactions {
		sign := "+"
		if t.Type == ledger.Expense {
			sign = "-"
		}
		desc := t.Description
		if desc == "" {
			desc = "-"
		}
		rows = append(rows, table.Row{
			ledger.FormatDate(t.Date, a.dateFormat, a.tz),
			t.CategoryName,
			desc,
			sign + a.money(t.Amount),
		})
	}
	height := a.height - 12
	if height < 5 {
		height = 5
	}
	tbl := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithFocused(true), table.WithHeight(min(height, len(rows)+1)))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(colorAccent)
	styles.Selected = styles.Selected.Bold(true).Foreground(colorAccent)
	tbl.SetStyles(styles)
	tbl.SetCursor(a.txCursor)
	return tbl
}

func (a *App) renderManage() string {
	out := titleStyle.Render("Manage & Settings") + "\n"
	idx := 0
	for _, typ := range []ledger.TxType{ledger.Income, ledger.Expense} {
		out += "\n" + keyStyle.Render(typ.Label()+" Categories") + "\n"
		cats := a.snap.CategoriesOf(typ)
		if len(cats) == 0 {
			out += mutedStyle.Render("  (none yet)") + "\n"
		}
		for _, c := range cats {
			marker := " "
			if idx == a.catCursor {
				marker = "▶"
			}
			out += fmt.Sprintf("%s %s\n", marker, c.Name)
			idx++
		}
	}
	k := a.keys
	out += "\n" + mutedStyle.Render(helpLine(k.Up, k.Down, k.NewCategory, k.Delete)) + "\n"
	out += "\n" + keyStyle.Render("Security") + "\n"
	out += mutedStyle.Render(helpLine(k.ChangePIN, k.Logout))
	return out
}

func (a *App) renderModal() string {
	var body string
	switch a.modal {
	case modalConfirmDelete:
		body = titleStyle.Render("Delete transaction?") + "\n"
		if tx, ok := a.snap.PendingTransaction(); ok && tx.Date != "" {
			body += fmt.Sprintf("%s  %s  %s\n", ledger.FormatDate(tx.Date, a.dateFormat, a.tz), tx.CategoryName, a.money(tx.Amount))
		}
		body += "[y] Yes  [n] No"
	case modalDeleteCategory:
		body = titleStyle.Render("Delete category?") + "\n" + a.pendingCat.Name + "\n[y] Yes  [n] No"
	case modalAddTransaction:
		body = a.renderTxForm()
	case modalNewCategory:
		f := a.catForm
		body = titleStyle.Render("New category") + "\n"
		body += "Name: " + f.name.View() + "\n"
		body += "Type: " + typeToggle(f.typ) + "  " + mutedStyle.Render("[tab] toggle") + "\n"
		if f.err != "" {
			body += errStyle.Render(f.err) + "\n"
		}
		body += "[enter] Save  [esc] Cancel"
	case modalChangePIN:
		f := a.pinForm
		body = titleStyle.Render("Change PIN") + "\n"
		body += "Current: " + f.current.View() + "\n"
		body += "New:     " + f.next.View() + "\n"
		if f.err != "" {
			body += errStyle.Render(f.err) + "\n"
		}
		body += "[enter] Save  [esc] Cancel"
	}
	return modalStyle.Render(body)
}

func typeToggle(t ledger.TxType) string {
	inc, exp := inactiveTabStyle.Render("Income"), inactiveTabStyle.Render("Expense")
	if t == ledger.Income {
		inc = activeTabStyle.Render("Income")
	} else {
		exp = activeTabStyle.Render("Expense")
	}
	return inc + exp
}

func (a *App) renderTxForm() string {
	f := a.txForm
	label := func(field int, name string) string {
		if f.focus == field {
			return keyStyle.Render("▶ " + name)
		}
		return "  " + name
	}
	out := titleStyle.Render("Add transaction") + "\n"
	out += label(txFieldType, "Type:        ") + typeToggle(f.typ) + "\n"
	out += label(txFieldAmount, "Amount:      ") + f.amount.View() + "\n"
	out += label(txFieldDate, "Date:        ") + f.date.View() + "\n"
	out += label(txFieldDescription, "Description: ") + f.description.View() + "\n"
	out += label(txFieldCategory, "Category:    ") + f.picker.input.View() + "\n"
	if len(f.picker.matches) == 0 {
		out += mutedStyle.Render(fmt.Sprintf("    no %s categories match", f.typ)) + "\n"
	}
	for i, c := range f.picker.matches {
		if i >= 6 {
			out += mutedStyle.Render(fmt.Sprintf("    +%d more", len(f.picker.matches)-i)) + "\n"
			break
		}
		marker := "  "
		if i == f.picker.cursor {
			marker = "▶ "
		}
		out += "    " + marker + c.Name + "\n"
	}
	if f.err != "" {
		out += errStyle.Render(f.err) + "\n"
	}
	return out + "[tab] Next field  [enter] Save  [esc] Cancel"
}
