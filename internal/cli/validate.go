package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"memory_console/internal/definition"
	"memory_console/internal/expr"
	"memory_console/internal/livestore"
	"memory_console/internal/logger"
	"memory_console/internal/service"

	"github.com/spf13/cobra"
)

// MemoryReport is the validation outcome of one memory in a file.
type MemoryReport struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	service.ValidationReport
}

// FileReport is the validation outcome of a whole definition file.
type FileReport struct {
	Valid    bool           `json:"valid"`
	Memories []MemoryReport `json:"memories"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.yaml>",
		Short: "Validate a definition file without starting the engine",
		Long: `Validate the memories of a YAML definition file against the points and
global variables declared in the same file. Errors fail the command;
warnings are printed but do not.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := definition.ReadFile(args[0])
			if err != nil {
				return err
			}
			rep := ValidateFile(cmd.Context(), f)
			if err := writeFileReport(cmd.OutOrStdout(), rootOpts.Format, args[0], rep); err != nil {
				return err
			}
			if !rep.Valid {
				return fmt.Errorf("%s: invalid definitions", args[0])
			}
			return nil
		},
	}
}

// ValidateFile checks every memory of f against the catalog of f.
func ValidateFile(ctx context.Context, f definition.File) FileReport {
	if ctx == nil {
		ctx = context.Background()
	}
	store := livestore.New()
	for _, p := range f.Points {
		store.DeclarePoint(p)
	}
	for _, v := range f.Variables {
		store.DeclareVariable(v)
	}
	checker := service.NewMemoryService(nil, nil, nil, store, expr.NewEvaluator(), logger.Nop())

	out := FileReport{Valid: true, Memories: make([]MemoryReport, 0, len(f.Memories))}
	for i, m := range f.Memories {
		rep := checker.Check(ctx, m)
		out.Valid = out.Valid && rep.Valid
		out.Memories = append(out.Memories, MemoryReport{Index: i, ID: m.ID, Name: m.Name, ValidationReport: rep})
	}
	return out
}

func writeFileReport(w io.Writer, format, path string, rep FileReport) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	for _, m := range rep.Memories {
		mark := "ok"
		if !m.Valid {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "%-4s memories[%d] %s\n", mark, m.Index, m.Name)
		for _, e := range m.Errors {
			fmt.Fprintf(w, "     error   %s\n", e.Error())
		}
		for _, warn := range m.Warnings {
			fmt.Fprintf(w, "     warning %s\n", warn)
		}
	}
	if rep.Valid {
		fmt.Fprintf(w, "%s: %d memories valid\n", path, len(rep.Memories))
	}
	return nil
}
