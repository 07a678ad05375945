package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/schemaeditor/internal/links"
	"evalgo.org/schemaeditor/models"
)

var (
	linksDirection string
	linksDepth     int
	linksFormat    string
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Inspect link topology",
}

var resolveLinksCmd = &cobra.Command{
	Use:   "resolve [box]",
	Short: "Show the boxes connected to a box",
	Long: `Follow the links of a box pin by pin, up to a bounded depth.

With --direction to (the default) the tree shows where messages sent by the
box go; with --direction from it shows where messages received by the box
come from.

Examples:
  schemaeditor links resolve act -s demo
  schemaeditor links resolve codec-fix -s demo --direction from --depth 3
  schemaeditor links resolve act -s demo --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolveLinks,
}

var invalidLinksCmd = &cobra.Command{
	Use:   "invalid",
	Short: "List links whose box or pin no longer exists",
	Args:  cobra.NoArgs,
	RunE:  runInvalidLinks,
}

func init() {
	linksCmd.AddCommand(resolveLinksCmd)
	linksCmd.AddCommand(invalidLinksCmd)

	resolveLinksCmd.Flags().StringVar(&linksDirection, "direction", "to", "direction to follow (to, from)")
	resolveLinksCmd.Flags().IntVar(&linksDepth, "depth", 0, "maximum depth (default: editor.max_depth)")
	resolveLinksCmd.Flags().StringVar(&linksFormat, "format", "tree", "output format (tree, json)")

	invalidLinksCmd.Flags().StringVar(&linksFormat, "format", "table", "output format (table, json)")
}

func runResolveLinks(cmd *cobra.Command, args []string) error {
	direction := models.Direction(linksDirection)
	if !direction.Valid() {
		return fmt.Errorf("invalid direction: %s (use 'to' or 'from')", linksDirection)
	}

	st, _, err := openSchema(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	tree, ok := st.Resolve(args[0], direction, linksDepth)
	if !ok {
		return fmt.Errorf("box not found: %s", args[0])
	}

	if linksFormat == "json" {
		return printJSON(cmd.OutOrStdout(), tree)
	}
	printTree(cmd.OutOrStdout(), tree)
	return nil
}

func printTree(w io.Writer, tree links.Tree) {
	fmt.Fprintf(w, "%s (%s)\n", tree.Root, tree.Direction)
	printPins(w, tree.Pins, 1)
}

func printPins(w io.Writer, pins []links.PinConnections, level int) {
	indent := strings.Repeat("  ", level)
	for _, p := range pins {
		fmt.Fprintf(w, "%s%s [%s]\n", indent, p.Pin, p.ConnectionType)
		for _, b := range p.Boxes {
			fmt.Fprintf(w, "%s  -> %s", indent, b.Box)
			if b.Type != "" {
				fmt.Fprintf(w, " (%s)", b.Type)
			}
			fmt.Fprintln(w)
			printPins(w, b.Pins, level+2)
		}
	}
}

func runInvalidLinks(cmd *cobra.Command, args []string) error {
	st, _, err := openSchema(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	invalid := st.InvalidLinks()
	out := cmd.OutOrStdout()
	if linksFormat == "json" {
		return printJSON(out, invalid)
	}

	if len(invalid) == 0 {
		fmt.Fprintln(out, "✓ All links are valid")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LINK\tTYPE\tPROBLEM")
	for _, inv := range invalid {
		for _, lb := range inv.LostBoxes {
			fmt.Fprintf(w, "%s\t%s\t%s box %s is missing\n", inv.Link.Name, inv.Link.ConnectionType(), lb.Direction, lb.Box)
		}
		for _, lp := range inv.LostPins {
			fmt.Fprintf(w, "%s\t%s\t%s pin %s.%s is missing\n", inv.Link.Name, inv.Link.ConnectionType(), lp.Direction, lp.Box, lp.Pin)
		}
	}
	w.Flush()
	fmt.Fprintf(out, "\nTotal: %d invalid links\n", len(invalid))
	return nil
}
