package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/valentin-maty/arriendo/internal/app"
	"github.com/valentin-maty/arriendo/internal/interfaces"
	"github.com/valentin-maty/arriendo/internal/models"
	"github.com/valentin-maty/arriendo/internal/services/analysis"
)

// cli carries the initialized application across cobra commands.
type cli struct {
	configPath string
	app        *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "arriendo",
		Short:         "Rental-profitability analysis tool for real-estate brokers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.NewApp(c.configPath)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.app != nil {
				c.app.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to arriendo.toml")

	root.AddCommand(
		c.listCmd(),
		c.getCmd(),
		c.createCmd(),
		c.updateCmd(),
		c.patchCmd(),
		c.calcCmd(),
		c.updateStatusCmd(),
		c.deleteCmd(),
		c.statsCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.purgeCmd(),
	)
	return root
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func (c *cli) listCmd() *cobra.Command {
	var (
		search    string
		status    string
		tags      []string
		sortBy    string
		asc       bool
		page      int
		pageSize  int
		minValue  float64
		maxValue  float64
		bedrooms  int
		bathrooms int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved analyses with optional filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := interfaces.ListOptions{
				Search:   search,
				Status:   status,
				SortBy:   sortBy,
				SortAsc:  asc,
				Page:     page,
				PageSize: pageSize,
			}
			if cmd.Flags().Changed("tag") {
				opts.Tags = tags
			}
			if cmd.Flags().Changed("min-value") {
				opts.MinValue = &minValue
			}
			if cmd.Flags().Changed("max-value") {
				opts.MaxValue = &maxValue
			}
			if cmd.Flags().Changed("bedrooms") {
				opts.Bedrooms = &bedrooms
			}
			if cmd.Flags().Changed("bathrooms") {
				opts.Bathrooms = &bathrooms
			}

			result, err := c.app.Analysis.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "substring match on title or address")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "filter by tag (repeatable)")
	cmd.Flags().StringVar(&sortBy, "sort", interfaces.SortByUpdatedAt, "sort key: created_at, updated_at, property_value, title")
	cmd.Flags().BoolVar(&asc, "asc", false, "sort ascending")
	cmd.Flags().IntVar(&page, "page", 1, "page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 10, "page size")
	cmd.Flags().Float64Var(&minValue, "min-value", 0, "minimum property value (CLP)")
	cmd.Flags().Float64Var(&maxValue, "max-value", 0, "maximum property value (CLP)")
	cmd.Flags().IntVar(&bedrooms, "bedrooms", 0, "exact bedroom count")
	cmd.Flags().IntVar(&bathrooms, "bathrooms", 0, "exact bathroom count")
	return cmd
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := c.app.Analysis.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(found)
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create --file payload.json",
		Short: "Create an analysis from a JSON payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}
			var input interfaces.CreateAnalysisInput
			if err := json.Unmarshal(data, &input); err != nil {
				return fmt.Errorf("failed to parse payload: %w", err)
			}
			if input.BrokerID == "" {
				input.BrokerID = c.app.Config.Defaults.BrokerID
			}

			saved, err := c.app.Analysis.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(saved)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the JSON payload")
	cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update <id> --file payload.json",
		Short: "Replace the property and analysis fields of an analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}
			var input interfaces.UpdateAnalysisInput
			if err := json.Unmarshal(data, &input); err != nil {
				return fmt.Errorf("failed to parse payload: %w", err)
			}

			updated, err := c.app.Analysis.Update(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			return printJSON(updated)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the JSON payload")
	cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) patchCmd() *cobra.Command {
	var (
		title  string
		status string
		notes  string
		tags   []string
	)

	cmd := &cobra.Command{
		Use:   "patch <id>",
		Short: "Partially update title, status, tags or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch interfaces.AnalysisPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("status") {
				patch.Status = &status
			}
			if cmd.Flags().Changed("notes") {
				patch.Notes = &notes
			}
			if cmd.Flags().Changed("tag") {
				patch.Tags = &tags
			}

			patched, err := c.app.Analysis.Patch(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(patched)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "replacement tag set (repeatable)")
	return cmd
}

func (c *cli) calcCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "calc --file payload.json",
		Short: "Compute profitability metrics from a payload without saving",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}
			var input struct {
				Property models.PropertyDetails `json:"property"`
				Analysis models.AnalysisInputs  `json:"analysis"`
			}
			if err := json.Unmarshal(data, &input); err != nil {
				return fmt.Errorf("failed to parse payload: %w", err)
			}

			out := struct {
				Calculations      models.CalculationResults `json:"calculations"`
				ComparableRentCLP float64                   `json:"comparable_rent_clp,omitempty"`
			}{
				Calculations: analysis.Compute(input.Property, input.Analysis),
			}
			if len(input.Analysis.Comparables) > 0 {
				out.ComparableRentCLP = analysis.SuggestRentFromComparables(input.Property.AreaM2, input.Analysis.Comparables)
			}
			return printJSON(out)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the JSON payload")
	cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) updateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-status <id> <status>",
		Short: "Change the status of an analysis",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Analysis.UpdateStatus(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Status of %s set to %s\n", args[0], args[1])
			return nil
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an analysis (published analyses cannot be deleted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := c.app.Analysis.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := c.app.Analysis.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all analyses and the dashboard as a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := c.app.Analysis.Export(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("arriendo-export-%s.json", time.Now().Format("20060102-150405"))
			}
			if err := os.WriteFile(out, blob, 0644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Printf("Exported to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output file (default arriendo-export-<timestamp>.json)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all analyses with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}
			if err := c.app.Analysis.Import(cmd.Context(), blob); err != nil {
				return err
			}
			fmt.Println("Import complete")
			return nil
		},
	}
}

func (c *cli) purgeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all analyses and the dashboard summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge without --yes")
			}
			if !c.app.Store.ClearAll(cmd.Context()) {
				return fmt.Errorf("purge failed")
			}
			c.app.Cache.InvalidateAllLists()
			fmt.Println("All analyses purged")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	return cmd
}
