package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/quantfold/trading-engine/pkg/types"
)

// ExcelReporter writes the audit workbook: the signal history and the
// risk event log, one sheet each.
type ExcelReporter struct{}

// NewExcelReporter creates an Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteAuditWorkbook writes signals and risk events to an xlsx file
func (r *ExcelReporter) WriteAuditWorkbook(signals []types.TradingSignal, events []types.RiskEvent, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const signalsSheet = "Signals"
	const eventsSheet = "Risk Events"

	fx.SetSheetName(fx.GetSheetName(0), signalsSheet)
	if _, err := fx.NewSheet(eventsSheet); err != nil {
		return err
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	if err := r.writeSignalsSheet(fx, signalsSheet, signals, headerStyle); err != nil {
		return err
	}
	if err := r.writeEventsSheet(fx, eventsSheet, events, headerStyle); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) writeSignalsSheet(fx *excelize.File, sheet string, signals []types.TradingSignal, headerStyle int) error {
	headers := []interface{}{
		"Timestamp", "Symbol", "Strategy", "Type", "Confidence", "Strength",
		"Entry", "Stop Loss", "Take Profit", "Position Size", "Expected Value",
	}
	if err := fx.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "K1", headerStyle); err != nil {
		return err
	}

	for i, sig := range signals {
		row := []interface{}{
			sig.Timestamp.Format("2006-01-02 15:04:05"),
			sig.Symbol,
			string(sig.Strategy),
			sig.Type.String(),
			sig.Confidence,
			sig.Strength,
			sig.EntryPrice,
			sig.StopLoss,
			sig.TakeProfit,
			sig.PositionSize,
			sig.Metadata[types.MetaExpectedValue],
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExcelReporter) writeEventsSheet(fx *excelize.File, sheet string, events []types.RiskEvent, headerStyle int) error {
	headers := []interface{}{
		"Timestamp", "Kind", "Symbol", "Portfolio Value", "Daily PnL", "Total PnL",
	}
	if err := fx.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "F1", headerStyle); err != nil {
		return err
	}

	for i, ev := range events {
		row := []interface{}{
			ev.Timestamp.Format("2006-01-02 15:04:05"),
			string(ev.Kind),
			ev.Symbol,
			ev.PortfolioValue,
			ev.DailyPnL,
			ev.TotalPnL,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
