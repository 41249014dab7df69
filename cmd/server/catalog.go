package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-advancement/internal/clients/external"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/rulebook"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and extend rulebook content",
}

var (
	tableSubclass string
	importClasses []string
	importOut     string
	spellClass    string
)

var classTableCmd = &cobra.Command{
	Use:   "class-table <class-id>",
	Short: "Print a class progression table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog, err := rulebook.New(&rulebook.Config{ExtraFiles: spellFiles(cfg.SpellsPath)})
		if err != nil {
			return err
		}
		table, err := rulebook.BuildClassTable(cmd.Context(), catalog, args[0], tableSubclass)
		if err != nil {
			return err
		}
		return writeClassTable(os.Stdout, table)
	},
}

var spellsCmd = &cobra.Command{
	Use:   "spells",
	Short: "List rulebook spells, including imported ones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog, err := rulebook.New(&rulebook.Config{ExtraFiles: spellFiles(cfg.SpellsPath)})
		if err != nil {
			return err
		}
		spells, err := catalog.ListSpells(cmd.Context(), spellClass)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, s := range spells {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Level, s.ID, s.Name, strings.Join(s.Classes, ","))
		}
		return w.Flush()
	},
}

var importSpellsCmd = &cobra.Command{
	Use:     "import-spells",
	Short:   "Write rulebook spell JSON from the SRD API",
	Example: `  rpg-advancement catalog import-spells --classes bard,wizard --out spells.json`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return importSpells(cmd.Context(), cfg.DnD5eAPIURL, cfg.ImportWorkers)
	},
}

func init() {
	classTableCmd.Flags().StringVar(&tableSubclass, "subclass", "", "Merge this subclass's features into the table")
	spellsCmd.Flags().StringVar(&spellClass, "class", "", "Only spells on this class's list")
	importSpellsCmd.Flags().StringSliceVar(&importClasses, "classes", nil, "Class spell lists to import (default: every caster)")
	importSpellsCmd.Flags().StringVar(&importOut, "out", "spells.json", "Output file; - writes to stdout")

	catalogCmd.AddCommand(classTableCmd, spellsCmd, importSpellsCmd)
}

func importSpells(ctx context.Context, baseURL string, workers int) error {
	source, err := external.NewDND5eSource(&external.SourceConfig{BaseURL: baseURL})
	if err != nil {
		return err
	}
	importer, err := external.NewImporter(&external.Config{Source: source, Workers: workers})
	if err != nil {
		return err
	}

	out, err := importer.ImportSpells(ctx, &external.ImportSpellsInput{Classes: importClasses})
	if err != nil {
		return err
	}

	if importOut == "-" {
		return external.WriteDocument(os.Stdout, out.Spells)
	}

	f, err := os.Create(importOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", importOut, err)
	}
	if err := external.WriteDocument(f, out.Spells); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("spell document written", "path", importOut, "count", len(out.Spells))
	return nil
}

func spellFiles(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}

func writeClassTable(out io.Writer, table *rulebook.ClassTable) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	header := []string{"Level", "Proficiency"}
	header = append(header, table.Columns...)
	header = append(header, "Features")
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, row := range table.Rows {
		cells := []string{fmt.Sprint(row.Level), fmt.Sprintf("+%d", row.ProficiencyBonus)}
		for _, v := range row.Columns {
			if v == "" {
				v = "-"
			}
			cells = append(cells, v)
		}
		features := strings.Join(row.Features, ", ")
		if features == "" {
			features = "-"
		}
		cells = append(cells, features)
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}
