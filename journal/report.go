package journal

import (
	"bytes"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/orb/orb"
)

// InstrumentReport is one row of a run's per-instrument table.
type InstrumentReport struct {
	Symbol  string
	Rules   string
	Trades  int
	Wins    int
	Losses  int
	WinRate float64
	NetPnL  string
	AvgPnL  string
}

// ReasonCount is one row of the exit reason table.
type ReasonCount struct {
	Reason orb.Reason
	Count  int
}

// BacktestRun describes one backtest for the Org report.
type BacktestRun struct {
	RunID    string
	Created  time.Time
	Dataset  string
	Interval string
	Start    time.Time
	End      time.Time

	Instruments []InstrumentReport
	Reasons     []ReasonCount
	Total       InstrumentReport
	Trades      []orb.TradeRecord

	OrgPath string

	Notes       []string
	NextActions []string
}

// NewBacktestRun fills the result tables from l. rules maps a symbol to a
// one-line description of its stop and targets.
func NewBacktestRun(runID string, l *Ledger, rules map[string]string) BacktestRun {
	run := BacktestRun{RunID: runID, Created: time.Now()}

	by := l.SummaryBy()
	for _, sym := range l.Instruments() {
		run.Instruments = append(run.Instruments, instrumentReport(sym, rules[sym], by[sym]))
	}
	run.Total = instrumentReport("ALL", "", l.Summary())

	counts := l.ReasonCounts()
	for _, r := range orb.Reasons {
		if n := counts[r]; n > 0 {
			run.Reasons = append(run.Reasons, ReasonCount{Reason: r, Count: n})
		}
	}

	run.Trades = l.Sorted()
	for _, t := range run.Trades {
		if run.Start.IsZero() || t.EntryTime.Before(run.Start) {
			run.Start = t.EntryTime
		}
		if t.ExitTime.After(run.End) {
			run.End = t.ExitTime
		}
	}
	return run
}

func instrumentReport(sym, rules string, s Summary) InstrumentReport {
	rate, _ := s.WinRate()
	avg, _ := s.AvgPnL()
	return InstrumentReport{
		Symbol:  sym,
		Rules:   rules,
		Trades:  s.Total,
		Wins:    s.Wins,
		Losses:  s.Losses,
		WinRate: rate,
		NetPnL:  s.TotalPnL.StringFixed(2),
		AvgPnL:  avg.StringFixed(2),
	}
}

var backtestOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"price":  price,
	"clock":  func(t time.Time) string { return t.Format("15:04") },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

// Org renders the run as an Org-mode entry.
func (v *BacktestRun) Org() (string, error) {
	t, err := template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate)
	if err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)
	if err := t.Execute(buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteBacktestOrg writes the Org entry to OrgPath.
func (v *BacktestRun) WriteBacktestOrg() error {
	s, err := v.Org()
	if err != nil {
		return err
	}
	return os.WriteFile(v.OrgPath, []byte(s), 0o644)
}

const BacktestOrgTemplate = `
* BACKTEST: ORB {{if .Interval}}{{.Interval}}{{else}}(interval?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    opening_range_breakout
:INTERVAL:    {{if .Interval}}{{.Interval}}{{else}}(interval?){{end}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{if .Start.IsZero}}(none){{else}}{{.Start.Format "2006-01-02"}}{{end}}
:END_DATE:    {{if .End.IsZero}}(none){{else}}{{.End.Format "2006-01-02"}}{{end}}
:TRADES:      {{.Total.Trades}}
:WINS:        {{.Total.Wins}}
:LOSSES:      {{.Total.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .Total.WinRate)}}
:NET_PNL:     {{.Total.NetPnL}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Results by Instrument
| Instrument | Rules | Trades | Wins | Losses | Win % | Net P/L | Avg P/L |
|------------+-------+--------+------+--------+-------+---------+---------|
{{- range .Instruments }}
| {{.Symbol}} | {{.Rules}} | {{.Trades}} | {{.Wins}} | {{.Losses}} | {{printf "%.2f" (mul100 .WinRate)}} | {{.NetPnL}} | {{.AvgPnL}} |
{{- end }}
| {{.Total.Symbol}} | | {{.Total.Trades}} | {{.Total.Wins}} | {{.Total.Losses}} | {{printf "%.2f" (mul100 .Total.WinRate)}} | {{.Total.NetPnL}} | {{.Total.AvgPnL}} |

** Exit Reasons
| Reason | Count |
|--------+-------|
{{- range .Reasons }}
| {{.Reason}} | {{.Count}} |
{{- end }}

{{- if .Trades }}

** Trades
| Date | Instrument | Side | Entry | In | Exit | Out | Reason | P/L |
|------+------------+------+-------+----+------+-----+--------+-----|
{{- range .Trades }}
| {{.Date}} | {{.Instrument}} | {{.Direction}} | {{price .EntryPrice}} | {{clock .EntryTime}} | {{price .ExitPrice}} | {{clock .ExitTime}} | {{.Reason}} | {{printf "%.2f" .PnL}} |
{{- end }}
{{- end }}

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}

{{- if .NextActions }}

** Notes / Next Actions
{{- range .NextActions }}
- [ ] {{.}}
{{- end }}
{{- end }}
`
