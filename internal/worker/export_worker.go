// Package worker rebuilds calendar projections off the persisted snapshot
// and exports them as JSON reports. It runs out of process from the API
// server and reacts to entry-change messages.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bigbudget/internal/amqp"
	"bigbudget/internal/calendar"
	"bigbudget/internal/core"
	"bigbudget/internal/payroll"
	"bigbudget/internal/snapshot"
	"bigbudget/internal/store"
)

type ExportWorker struct {
	backend   snapshot.Store
	exportDir string
}

func NewExportWorker(backend snapshot.Store, exportDir string) *ExportWorker {
	return &ExportWorker{backend: backend, exportDir: exportDir}
}

// Report is one exported month: the overview plus the upcoming feed at the
// time of export.
type Report struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	Overview    calendar.MonthOverview `json:"overview"`
	Upcoming    []core.Entry           `json:"upcoming"`
}

// HandleEntryChange re-exports the current month after any entry change.
func (w *ExportWorker) HandleEntryChange(msg *amqp.EntryChangedMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slog.InfoContext(ctx, "Entry change received, exporting report",
		"entry_id", msg.ID, "op", msg.Op)

	return w.Export(ctx, time.Now())
}

// Export rebuilds the calendar projections from the persisted snapshot and
// writes the report for asOf's month.
func (w *ExportWorker) Export(ctx context.Context, asOf time.Time) error {
	snap, err := w.backend.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	users, err := w.backend.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("load paycheck users: %w", err)
	}

	entries := store.New(nil)
	entries.Load(snap)
	registry := payroll.NewUsers(nil)
	registry.Load(users)
	aggregator := calendar.New(entries, registry)

	year, month := asOf.Year(), asOf.Month()
	report := Report{
		GeneratedAt: time.Now(),
		Overview:    aggregator.Overview(year, month, asOf),
		Upcoming:    aggregator.Upcoming(asOf, 0),
	}

	if err := w.writeReport(report, year, month); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Report exported",
		"year", year,
		"month", int(month),
		"expenses", report.Overview.Expenses,
		"income", report.Overview.Income)
	return nil
}

func (w *ExportWorker) writeReport(report Report, year int, month time.Month) error {
	if err := os.MkdirAll(w.exportDir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	path := filepath.Join(w.exportDir, fmt.Sprintf("overview-%04d-%02d.json", year, int(month)))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}
