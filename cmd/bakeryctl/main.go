package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-bakeryops/components/dashboard"
	"github.com/goliatone/go-bakeryops/components/reference"
	"github.com/goliatone/go-bakeryops/components/synclog"
)

type cli struct {
	Driver string `default:"sqlite" env:"BAKERY_STORAGE_DRIVER" help:"Log store driver (sqlite, sqlite3, pgx, postgres, mysql)."`
	DSN    string `default:"file:bakeryops.db?_pragma=busy_timeout(5000)" env:"BAKERY_STORAGE_DSN" help:"Log store data source name."`
	JSON   bool   `help:"Print JSON instead of coloured text."`

	Logs      logsCmd      `cmd:"" help:"Read and write the persisted sync log."`
	Sync      syncCmd      `cmd:"" help:"Run the scripted sync pipeline against the log store."`
	Reference referenceCmd `cmd:"" help:"Inspect reference data documents."`
	Estimate  estimateCmd  `cmd:"" help:"Evaluate the financial estimators."`
}

type logsCmd struct {
	List   logsListCmd   `cmd:"" help:"List recent log rows, newest first."`
	Append logsAppendCmd `cmd:"" help:"Append a log row."`
}

type logsListCmd struct {
	Limit int `default:"50" help:"Maximum number of rows (capped at 50)."`
}

type logsAppendCmd struct {
	Message string `arg:"" help:"Message to store."`
}

type syncCmd struct {
	Delay time.Duration `default:"1s" help:"Pause before each scripted line."`
}

type referenceCmd struct {
	Validate referenceValidateCmd `cmd:"" help:"Validate a reference YAML file."`
	Export   referenceExportCmd   `cmd:"" help:"Write the built-in reference data as YAML."`
}

type referenceValidateCmd struct {
	File string `arg:"" type:"existingfile" help:"Reference YAML file."`
}

type referenceExportCmd struct {
	Out string `short:"o" type:"path" help:"Output file (defaults to stdout)."`
}

type estimateCmd struct {
	Payroll estimatePayrollCmd `cmd:"" help:"Sunk cost of a hire: training x months + 3000 x months."`
	Waste   estimateWasteCmd   `cmd:"" help:"Monthly impact of a waste level: 12000 x (5 - level)."`
}

type estimatePayrollCmd struct {
	Role   string `default:"CHEF" help:"Payroll role (e.g. chef, cashier)."`
	Months int    `default:"1" help:"Months of employment (1-3)."`
}

type estimateWasteCmd struct {
	Level int `default:"5" help:"Waste level (1-10)."`
}

// runtime carries shared state into every command's Run method.
type runtime struct {
	cli *cli
	out io.Writer
}

func options(ctx context.Context, rt *runtime) []kong.Option {
	return []kong.Option{
		kong.Name("bakeryctl"),
		kong.Description("Operations utility for the bakery dashboard log store and reference data."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(rt),
	}
}

func main() {
	var args cli
	rt := &runtime{cli: &args, out: os.Stdout}
	ctx := kong.Parse(&args, options(context.Background(), rt)...)
	ctx.FatalIfErrorf(ctx.Run())
}

func (rt *runtime) open(ctx context.Context) (*synclog.SQLStore, error) {
	store, err := synclog.Open(ctx, rt.cli.Driver, rt.cli.DSN)
	if err != nil {
		return nil, fmt.Errorf("bakeryctl: %w", err)
	}
	return store, nil
}

func (rt *runtime) printJSON(v any) error {
	enc := json.NewEncoder(rt.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (cmd *logsListCmd) Run(ctx context.Context, rt *runtime) error {
	store, err := rt.open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	records, err := store.Recent(ctx, cmd.Limit)
	if err != nil {
		return err
	}
	if rt.cli.JSON {
		return rt.printJSON(records)
	}
	for _, r := range records {
		fmt.Fprintf(rt.out, "%5d  %s  %s\n", r.ID, r.Timestamp.Local().Format(time.DateTime), colorize(r.Message))
	}
	return nil
}

func (cmd *logsAppendCmd) Run(ctx context.Context, rt *runtime) error {
	store, err := rt.open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	record, err := store.Append(ctx, cmd.Message)
	if err != nil {
		return err
	}
	if rt.cli.JSON {
		return rt.printJSON(record)
	}
	fmt.Fprintf(rt.out, "appended #%d\n", record.ID)
	return nil
}

func (cmd *syncCmd) Run(ctx context.Context, rt *runtime) error {
	store, err := rt.open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	fmt.Fprintln(rt.out, colorize(dashboard.SyncReadyLine))
	pipeline := dashboard.NewSyncPipeline(store, cmd.Delay)
	return pipeline.Run(ctx, func(line string) {
		fmt.Fprintln(rt.out, colorize(line))
	})
}

func (cmd *referenceValidateCmd) Run(rt *runtime) error {
	doc, err := reference.ReadFile(cmd.File)
	if err != nil {
		return err
	}
	if rt.cli.JSON {
		return rt.printJSON(map[string]any{
			"source":       doc.Source,
			"branches":     len(doc.Branches),
			"payroll":      len(doc.Payroll),
			"translations": len(doc.Translations),
		})
	}
	color.New(color.FgGreen).Fprintf(rt.out, "%s is valid: ", doc.Source)
	fmt.Fprintf(rt.out, "%d branches, %d payroll bands, %d strings\n",
		len(doc.Branches), len(doc.Payroll), len(doc.Translations))
	return nil
}

func (cmd *referenceExportCmd) Run(rt *runtime) error {
	data, err := yaml.Marshal(reference.Default())
	if err != nil {
		return fmt.Errorf("bakeryctl: encode reference: %w", err)
	}
	if cmd.Out == "" {
		_, err = rt.out.Write(data)
		return err
	}
	return os.WriteFile(cmd.Out, data, 0o644)
}

func (cmd *estimatePayrollCmd) Run(rt *runtime) error {
	if cmd.Months < dashboard.MinPayrollMonths || cmd.Months > dashboard.MaxPayrollMonths {
		return fmt.Errorf("bakeryctl: months must be within %d-%d", dashboard.MinPayrollMonths, dashboard.MaxPayrollMonths)
	}
	role := strcase.ToSNAKE(cmd.Role)
	band, ok := reference.Default().PayrollFor(role)
	if !ok {
		return fmt.Errorf("bakeryctl: unknown payroll role %q", cmd.Role)
	}
	impact := dashboard.PayrollImpact(decimal.NewFromInt(band.Training), cmd.Months)
	return rt.printEstimate(map[string]any{
		"role":   band.Role,
		"months": cmd.Months,
		"impact": impact.IntPart(),
	}, fmt.Sprintf("%s x %d months: %s", band.TitleEn, cmd.Months, dashboard.FormatEGP(impact)))
}

func (cmd *estimateWasteCmd) Run(rt *runtime) error {
	if cmd.Level < dashboard.MinWasteLevel || cmd.Level > dashboard.MaxWasteLevel {
		return fmt.Errorf("bakeryctl: level must be within %d-%d", dashboard.MinWasteLevel, dashboard.MaxWasteLevel)
	}
	delta := dashboard.WasteDelta(cmd.Level)
	line := fmt.Sprintf("waste level %d: %s / month", cmd.Level, dashboard.FormatEGP(delta))
	if delta.IsNegative() {
		line = color.RedString(line)
	} else {
		line = color.GreenString(line)
	}
	return rt.printEstimate(map[string]any{
		"level": cmd.Level,
		"delta": delta.IntPart(),
	}, line)
}

func (rt *runtime) printEstimate(payload map[string]any, text string) error {
	if rt.cli.JSON {
		return rt.printJSON(payload)
	}
	_, err := fmt.Fprintln(rt.out, text)
	return err
}

var tagColors = map[string]*color.Color{
	"[OK]":        color.New(color.FgGreen, color.Bold),
	"[SYSTEM]":    color.New(color.FgYellow),
	"[PIPELINE]":  color.New(color.FgMagenta),
	"[SYNC]":      color.New(color.FgCyan),
	"[TRANSFORM]": color.New(color.FgBlue),
	"[PUSH]":      color.New(color.FgBlue, color.Bold),
}

// colorize highlights the bracketed tag of a sync line.
func colorize(line string) string {
	for tag, c := range tagColors {
		if strings.Contains(line, tag) {
			return strings.Replace(line, tag, c.Sprint(tag), 1)
		}
	}
	return line
}
