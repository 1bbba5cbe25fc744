package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"sql-playground/internal/export"
	"sql-playground/internal/model"
	"sql-playground/internal/playground"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
)

func (c *cli) parseCmd() *cobra.Command {
	var asJSON bool
	var exportPath string

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse and validate a question without touching the warehouse",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.readInput(args)
			if err != nil {
				return err
			}
			svc := playground.NewService(nil, playground.OptionsFromConfig(c.cfg), playground.WithLogger(c.logger))
			parsed, err := svc.ParseOnly(text)
			if err != nil {
				return err
			}

			if exportPath != "" {
				n, err := export.ToFile(exportPath, export.InputTable(parsed))
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				c.logger.Info("input rows exported", "path", exportPath, "rows", n)
			}

			if asJSON {
				return writeJSON(c.stdout, parsed.Summarize())
			}
			printSummary(c.stdout, parsed.Summarize())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the parse summary as JSON")
	cmd.Flags().StringVar(&exportPath, "export", "", "Write input rows to this .csv or .json file")
	return cmd
}

func (c *cli) loadCmd() *cobra.Command {
	var dataset string

	cmd := &cobra.Command{
		Use:   "load [file|-]",
		Short: "Create a warehouse table from a question",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.readInput(args)
			if err != nil {
				return err
			}
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Service.CreateTable(cmd.Context(), text, dataset)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, okStyle.Render(res.Message))
			fmt.Fprintf(c.stdout, "%s %s\n", labelStyle.Render("load id:"), res.LoadID)
			for _, f := range res.Files {
				fmt.Fprintf(c.stdout, "%s %s (%s)\n", labelStyle.Render("file:"), f.Name, f.SizeHuman)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Target dataset (defaults to warehouse.default_dataset)")
	return cmd
}

func (c *cli) queryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run SQL against the warehouse and print the rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Service.ExecuteQuery(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(c.stdout, res)
			}
			printQueryResult(c.stdout, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		String()
}

func printSummary(w io.Writer, s model.Summary) {
	fmt.Fprintln(w, titleStyle.Render(s.FullTableName))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("table name:"), s.TableName)
	fmt.Fprintf(w, "%s %d rows, %d columns\n", labelStyle.Render("input:"), s.RowCount, s.ColumnCount)

	schema := make([][]string, 0, len(s.Schema))
	for _, col := range s.Schema {
		schema = append(schema, []string{col.Name, string(col.Type)})
	}
	fmt.Fprintln(w, renderTable([]string{"column", "type"}, schema))

	if s.ExpectedOutput == nil {
		fmt.Fprintln(w, labelStyle.Render("no expected output"))
		return
	}
	fmt.Fprintln(w, labelStyle.Render("expected output:"))
	fmt.Fprintln(w, renderTable(s.ExpectedOutput.Columns, formatRows(s.ExpectedOutput.Rows)))
}

func formatRows(rows []model.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = export.FormatValue(v)
		}
		out = append(out, cells)
	}
	return out
}

func printQueryResult(w io.Writer, res *model.QueryResult) {
	rows := make([][]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		cells := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			cells[i] = export.FormatValue(r[col])
		}
		rows = append(rows, cells)
	}
	fmt.Fprintln(w, renderTable(res.Columns, rows))

	summary := strconv.Itoa(res.RowCount) + " rows"
	if res.Truncated {
		summary += " (truncated)"
	}
	fmt.Fprintf(w, "%s %s in %dms\n", labelStyle.Render(summary), labelStyle.Render("job "+res.JobID), res.ExecutionTime)
}
