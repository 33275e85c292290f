package reporting

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quantfold/trading-engine/internal/portfolio"
	"github.com/quantfold/trading-engine/pkg/types"
)

// ConsoleReporter renders engine state as terminal tables
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a reporter writing to stdout
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterTo creates a reporter writing to the given writer
func NewConsoleReporterTo(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// PrintCycleSummary renders the ranked signals of one cycle
func (r *ConsoleReporter) PrintCycleSummary(signals []types.TradingSignal) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("SIGNAL CYCLE")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Symbol", "Strategy", "Type", "Conf", "EV", "Entry", "Stop", "Target"})
	for _, sig := range signals {
		t.AppendRow(table.Row{
			sig.Symbol,
			sig.Strategy,
			sig.Type,
			fmt.Sprintf("%.2f", sig.Confidence),
			fmt.Sprintf("%.4f", sig.Metadata[types.MetaExpectedValue]),
			fmt.Sprintf("%.2f", sig.EntryPrice),
			fmt.Sprintf("%.2f", sig.StopLoss),
			fmt.Sprintf("%.2f", sig.TakeProfit),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})

	t.Render()
	fmt.Fprintln(r.out)
}

// PrintPortfolioStatus renders the ledger state
func (r *ConsoleReporter) PrintPortfolioStatus(state portfolio.State) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("PORTFOLIO STATUS")
	t.SetStyle(table.StyleRounded)

	emergency := "inactive"
	if state.EmergencyActive {
		emergency = "ACTIVE"
	}

	t.AppendRows([]table.Row{
		{"Portfolio Value", fmt.Sprintf("$%.2f", state.PortfolioValue)},
		{"Peak Value", fmt.Sprintf("$%.2f", state.PeakValue)},
		{"Daily PnL", fmt.Sprintf("$%.2f", state.DailyPnL)},
		{"Total PnL", fmt.Sprintf("$%.2f", state.TotalPnL)},
		{"Drawdown", fmt.Sprintf("%.2f%%", state.Drawdown*100)},
		{"Open Positions", fmt.Sprintf("%d", state.PositionCount)},
		{"Emergency Stop", emergency},
	})

	if state.PositionCount > 0 {
		t.AppendSeparator()
		symbols := make([]string, 0, len(state.Positions))
		for symbol := range state.Positions {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)
		for _, symbol := range symbols {
			pos := state.Positions[symbol]
			t.AppendRow(table.Row{
				fmt.Sprintf("%s %s", pos.Side, symbol),
				fmt.Sprintf("size %.4f @ %.2f, PnL $%.2f", pos.Size, pos.EntryPrice, pos.UnrealizedPnL),
			})
		}
	}

	t.Render()
	fmt.Fprintln(r.out)
}
