package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var migrateSubmit bool

var dictionariesCmd = &cobra.Command{
	Use:     "dictionaries",
	Aliases: []string{"dicts"},
	Short:   "Inspect dictionaries and migrate their relations",
}

var listDictionariesCmd = &cobra.Command{
	Use:   "list",
	Short: "List dictionaries and the boxes using them",
	Args:  cobra.NoArgs,
	RunE:  runListDictionaries,
}

var migrateDictionariesCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert legacy dictionary relations to the multi-dictionary form",
	Long: `Rewrite every single-dictionary relation of a schema as a
multi-dictionary relation held by the editor link document.

Without --submit the staged requests are printed and nothing is sent.

Examples:
  schemaeditor dictionaries migrate -s demo
  schemaeditor dictionaries migrate -s demo --submit`,
	Args: cobra.NoArgs,
	RunE: runMigrateDictionaries,
}

func init() {
	dictionariesCmd.AddCommand(listDictionariesCmd)
	dictionariesCmd.AddCommand(migrateDictionariesCmd)

	migrateDictionariesCmd.Flags().BoolVar(&migrateSubmit, "submit", false, "submit the migration to the backend")
}

func runListDictionaries(cmd *cobra.Command, args []string) error {
	st, _, err := openSchema(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBOXES")
	dicts := st.Dictionaries()
	for _, d := range dicts {
		boxes := st.BoxesForDictionary(d.Name)
		list := "-"
		if len(boxes) > 0 {
			list = strings.Join(boxes, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\n", d.Name, list)
	}
	w.Flush()
	fmt.Fprintf(out, "\nTotal: %d dictionaries\n", len(dicts))
	return nil
}

func runMigrateDictionaries(cmd *cobra.Command, args []string) error {
	st, _, err := openSchema(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	created, err := st.MigrateDictionaryRelations()
	if err != nil {
		return err
	}
	if len(created) == 0 {
		fmt.Fprintln(out, "✓ No legacy dictionary relations")
		return nil
	}

	for _, rel := range created {
		names := make([]string, 0, len(rel.Dictionaries))
		for _, d := range rel.Dictionaries {
			names = append(names, d.Name)
		}
		fmt.Fprintf(out, "  %s: %s\n", rel.Box, strings.Join(names, ", "))
	}
	fmt.Fprintf(out, "Migrated %d relations, %d requests staged\n", len(created), st.PendingCount())

	if !migrateSubmit {
		for _, req := range st.Requests() {
			fmt.Fprintf(out, "  %s %s\n", req.Operation, req.Payload.EntityName())
		}
		fmt.Fprintln(out, "Run with --submit to apply.")
		return nil
	}

	if err := st.Submit(cmd.Context()); err != nil {
		return err
	}
	if notes := st.Notifications().List(); len(notes) > 0 {
		for _, n := range notes {
			fmt.Fprintf(out, "  %s: %s\n", n.Type, n.Message)
		}
		return fmt.Errorf("backend reported %d validation errors", len(notes))
	}
	fmt.Fprintln(out, "✓ Migration submitted")
	return nil
}
