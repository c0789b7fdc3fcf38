// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/internal/dsl"
	"github.com/specforge/specforge/internal/openapi"
	"github.com/specforge/specforge/internal/scanner"
	"github.com/specforge/specforge/internal/schema"
	"github.com/specforge/specforge/pkg/types"
)

var parsePropertyRequired bool

var parseCmd = &cobra.Command{
	Use:   "parse <files...>",
	Short: "Print the component schema of each model definition",
	Long: `Parse model definition files and print the component schema each model
maps to. Skipped lines are reported as diagnostics.

Example:
  specforge parse prisma/schema.prisma          # Print as JSON
  specforge parse -f yaml models/*.prisma       # Print as YAML
  specforge parse -o models.yaml ./prisma       # Write to a file
  specforge parse --property-required user.prisma`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parsePropertyRequired, "property-required", false, "also mark required properties individually")
}

// parsedModel is the printed form of one model definition.
type parsedModel struct {
	Name        string             `json:"name"`
	Source      string             `json:"source"`
	Fields      []types.ModelField `json:"fields"`
	Schema      *types.Schema      `json:"schema"`
	Diagnostics []string           `json:"diagnostics,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	files, err := scanner.New(scanner.Config{}).ScanPaths(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no model files in %s", strings.Join(args, ", "))
	}

	opts := schema.MapOptions{PropertyRequired: parsePropertyRequired}

	var models []parsedModel
	for _, f := range files {
		for _, text := range f.Definitions() {
			res := dsl.Parse(text)

			m := parsedModel{Name: res.Model.Name, Source: f.Rel, Fields: res.Model.Fields}
			for _, d := range res.Diagnostics {
				m.Diagnostics = append(m.Diagnostics, d.String())
			}
			if err := res.Validate(); err != nil {
				m.Diagnostics = append(m.Diagnostics, err.Error())
			} else {
				m.Schema = schema.Map(res.Model, opts).Definition
			}
			models = append(models, m)
		}
	}

	printVerbose("Parsed %d model(s) from %d file(s)", len(models), len(files))

	w := openapi.NewWriter()
	if output != "" {
		if err := w.WriteFile(models, output, format); err != nil {
			return err
		}
		printInfo("Wrote %d model(s) to %s", len(models), output)
		return nil
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return w.WriteYAML(models, out)
	case "", "json":
		return w.WriteJSON(models, out)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
