package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evalgo.org/schemaeditor/internal/notify"
	"evalgo.org/schemaeditor/internal/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a schema and print changes as they arrive",
	Long: `Load a schema, subscribe to its push channel and print a line for every
status update, repository update and notification until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	name, err := targetSchema()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	st := newStore(client, true, logger)
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	unsubscribe := st.OnChange(func(ev store.Event) {
		switch ev {
		case store.EventStatus:
			fmt.Fprintf(out, "%s status %s\n", time.Now().Format(time.RFC3339), st.Status())
		case store.EventRefreshed:
			fmt.Fprintf(out, "%s refreshed: %d boxes, %d links, %d invalid\n",
				time.Now().Format(time.RFC3339), len(st.Boxes()), len(st.Links()), len(st.InvalidLinks()))
		case store.EventConnection:
			fmt.Fprintf(out, "%s reconnected\n", time.Now().Format(time.RFC3339))
		}
	})
	defer unsubscribe()
	defer st.Notifications().Subscribe(func(n notify.Notification) {
		fmt.Fprintf(out, "%s %s: %s\n", n.Time.Format(time.RFC3339), n.Type, n.Message)
	})()

	if err := st.SelectSchema(ctx, name); err != nil {
		return fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	fmt.Fprintf(out, "Watching %s (%d boxes, %d links). Press Ctrl+C to stop.\n", name, len(st.Boxes()), len(st.Links()))
	logger.Debug("watching schema", zap.String("schema", name))

	<-ctx.Done()
	fmt.Fprintln(out, "\n⚠️  Stopped")
	return nil
}
