package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/schemaeditor/internal/registry"
	"evalgo.org/schemaeditor/models"
)

var (
	boxesMatch  string
	boxesGroup  bool
	boxesFormat string
)

var boxesCmd = &cobra.Command{
	Use:   "boxes",
	Short: "Inspect the boxes of a schema",
}

var listBoxesCmd = &cobra.Command{
	Use:   "list",
	Short: "List boxes",
	Long: `List the boxes of a schema, optionally filtered by name or grouped by type.

Examples:
  schemaeditor boxes list -s demo
  schemaeditor boxes list -s demo --match 'codec-*'
  schemaeditor boxes list -s demo --group
  schemaeditor boxes list -s demo --format json`,
	Args: cobra.NoArgs,
	RunE: runListBoxes,
}

func init() {
	boxesCmd.AddCommand(listBoxesCmd)

	listBoxesCmd.Flags().StringVar(&boxesMatch, "match", "", "glob or substring filter on box names")
	listBoxesCmd.Flags().BoolVar(&boxesGroup, "group", false, "group boxes by type")
	listBoxesCmd.Flags().StringVar(&boxesFormat, "format", "table", "output format (table, json)")
}

func runListBoxes(cmd *cobra.Command, args []string) error {
	st, _, err := openSchema(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	boxes := st.Boxes()
	if boxesMatch != "" {
		boxes = registry.Filter(boxes, boxesMatch)
	}

	out := cmd.OutOrStdout()
	if boxesGroup {
		groups := registry.GroupBoxes(boxes)
		if boxesFormat == "json" {
			return printJSON(out, groups)
		}
		for _, g := range groups {
			fmt.Fprintf(out, "%s (%d)\n", g.Type, len(g.Boxes))
			for _, b := range g.Boxes {
				fmt.Fprintf(out, "  %s\n", b.Name)
			}
		}
		return nil
	}

	if boxesFormat == "json" {
		return printJSON(out, boxes)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tTYPE\tPINS\tIMAGE")
	for _, b := range boxes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", b.Name, b.Kind, b.Spec.Type, len(b.Spec.Pins), image(b))
	}
	w.Flush()
	fmt.Fprintf(out, "\nTotal: %d boxes\n", len(boxes))
	return nil
}

func image(b *models.Box) string {
	if b.Spec.ImageName == "" {
		return "-"
	}
	if b.Spec.ImageVersion == "" {
		return b.Spec.ImageName
	}
	return b.Spec.ImageName + ":" + b.Spec.ImageVersion
}
