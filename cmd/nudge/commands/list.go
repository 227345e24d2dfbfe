package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nudgebot/nudge/internal/config"
	"github.com/nudgebot/nudge/internal/notify"
	"github.com/nudgebot/nudge/internal/timespec"
	"github.com/nudgebot/nudge/pkg/remindstore"
)

var (
	listConfigPath string
	listJSON       bool
	listLimit      int
	listAuthor     string
	listDueAfter   string
	listDueBefore  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List upcoming reminders",
	Long: `List upcoming reminders straight from the store, due-soonest first.

For each reminder, displays:
  • Friendly ID
  • Author
  • Due instant (in the configured timezone)
  • Time left until delivery
  • Reminder text

Use --due-after / --due-before to narrow the window, --author to show a
single user, and --json for machine-readable output.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listConfigPath, "config", "c", "nudge.yml", "Path to the configuration file")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Show at most N reminders (0 = all)")
	listCmd.Flags().StringVar(&listAuthor, "author", "", "Only show reminders created by this user ID")
	listCmd.Flags().StringVar(&listDueAfter, "due-after", "", "Only show reminders due after this instant (duration, RFC3339 or 'DD.MM.YY HH:MM')")
	listCmd.Flags().StringVar(&listDueBefore, "due-before", "", "Only show reminders due before this instant (duration, RFC3339 or 'DD.MM.YY HH:MM')")
	rootCmd.AddCommand(listCmd)
}

// listRow is the JSON shape for a single reminder.
type listRow struct {
	FriendlyID string `json:"friendly_id"`
	Author     string `json:"author"`
	AuthorID   string `json:"author_id"`
	DueAt      string `json:"due_at"`
	Left       string `json:"left"`
	Text       string `json:"text"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(listConfigPath)
	if err != nil {
		return err
	}
	loc := cfg.Location()

	after, before, err := timespec.ParseRange(listDueAfter, listDueBefore, loc)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("redis not accessible: %w", err)
	}

	// The schedule index already orders by due instant.
	reminders, err := store.ScanFuture(ctx)
	if err != nil {
		return fmt.Errorf("failed to list reminders: %w", err)
	}

	var rows []listRow
	now := time.Now()
	for _, r := range reminders {
		if listAuthor != "" && r.AuthorID != listAuthor {
			continue
		}
		if !after.IsZero() && !r.DueAt.After(after) {
			continue
		}
		if !before.IsZero() && !r.DueAt.Before(before) {
			continue
		}
		rows = append(rows, listRow{
			FriendlyID: r.FriendlyID,
			Author:     displayAuthor(r),
			AuthorID:   r.AuthorID,
			DueAt:      notify.FormatStamp(r.DueAt, loc),
			Left:       notify.Countdown(r.DueAt, now),
			Text:       r.NameShort,
		})
		if listLimit > 0 && len(rows) >= listLimit {
			break
		}
	}

	if len(rows) == 0 {
		if listJSON {
			fmt.Println("[]")
		} else {
			fmt.Println("No upcoming reminders.")
		}
		return nil
	}

	if listJSON {
		outputJSON(rows)
	} else {
		outputTable(rows)
	}

	return nil
}

func displayAuthor(r *remindstore.Reminder) string {
	if r.AuthorNick != "" {
		return r.AuthorNick
	}
	return r.AuthorName
}

func outputJSON(rows []listRow) {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func outputTable(rows []listRow) {
	// Print header
	fmt.Printf("%-20s %-15s %-20s %-16s %s\n", "ID", "AUTHOR", "DUE", "LEFT", "TEXT")

	// Print rows
	for _, row := range rows {
		text := row.Text
		if len(text) > 40 {
			text = text[:37] + "..."
		}
		fmt.Printf("%-20s %-15s %-20s %-16s %s\n", row.FriendlyID, row.Author, row.DueAt, row.Left, text)
	}
}
