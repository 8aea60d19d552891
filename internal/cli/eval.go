package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"memory_console/internal/expr"
	"memory_console/internal/models"

	"github.com/spf13/cobra"
)

// EvalOptions holds flags of the eval command.
type EvalOptions struct {
	Condition string
	Vars      []string // alias=value
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{}
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate one condition against literal values",
		Example: `  memory_console eval --cond "[temp] < [sp] && ![alarm]" \
    --var temp=18.5 --var sp=21 --var alarm=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := parseVars(opts.Vars)
			if err != nil {
				return err
			}
			result, err := expr.NewEvaluator().Evaluate(opts.Condition, snap)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"result": result,
					"values": nativeValues(snap),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Condition, "cond", "", "condition text, aliases in square brackets")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "alias=value (number or true/false), repeatable")
	_ = cmd.MarkFlagRequired("cond")
	return cmd
}

func parseVars(vars []string) (models.Snapshot, error) {
	values := make(map[string]models.Scalar, len(vars))
	for _, kv := range vars {
		alias, raw, ok := strings.Cut(kv, "=")
		alias = strings.TrimSpace(alias)
		if !ok || !models.ValidAlias(alias) {
			return models.Snapshot{}, fmt.Errorf("invalid --var %q: want alias=value", kv)
		}
		if _, dup := values[alias]; dup {
			return models.Snapshot{}, fmt.Errorf("duplicate --var %q", alias)
		}
		v, err := models.ParseScalar(raw)
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("--var %s: %w", alias, err)
		}
		values[alias] = v
	}
	return models.NewSnapshot(values), nil
}

func nativeValues(snap models.Snapshot) map[string]any {
	out := make(map[string]any, snap.Len())
	for alias, v := range snap.Values() {
		out[alias] = v.Native()
	}
	return out
}
