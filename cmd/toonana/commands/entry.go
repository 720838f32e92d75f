package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/toonana/toonana/editor"
	"github.com/toonana/toonana/journal"
)

// EntryCmd groups journal entry operations.
var EntryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage journal entries",
	Long: `Manage journal entries from the command line.

Examples:
  toonana entry add "Walked to the harbor today."
  toonana entry ls --limit 10
  toonana entry show <id>
  toonana entry rm <id>`,
}

var entryAddCmd = &cobra.Command{
	Use:   "add <body>",
	Short: "Create a new entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryAdd,
}

var entryLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List entries, newest first",
	RunE:  runEntryLs,
}

var entryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a full entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryShow,
}

var entryRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an entry and its comic artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryRm,
}

var (
	entryMoodFlag   string
	entryTagsFlag   []string
	entryLimitFlag  int
	entryOffsetFlag int
)

func init() {
	EntryCmd.AddCommand(entryAddCmd)
	EntryCmd.AddCommand(entryLsCmd)
	EntryCmd.AddCommand(entryShowCmd)
	EntryCmd.AddCommand(entryRmCmd)

	entryAddCmd.Flags().StringVar(&entryMoodFlag, "mood", "", "Mood label for the entry")
	entryAddCmd.Flags().StringSliceVar(&entryTagsFlag, "tag", nil, "Tags (repeatable)")
	entryLsCmd.Flags().IntVar(&entryLimitFlag, "limit", 20, "Number of entries to show")
	entryLsCmd.Flags().IntVar(&entryOffsetFlag, "offset", 0, "Listing offset")
}

func runEntryAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.store.Upsert(cmd.Context(), journal.Draft{
		Body: args[0],
		Mood: entryMoodFlag,
		Tags: entryTagsFlag,
	})
	if err != nil {
		return err
	}

	pterm.Success.Printf("Created entry %s", entry.ID)
	return nil
}

func runEntryLs(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	summaries, err := a.store.List(cmd.Context(), entryLimitFlag, entryOffsetFlag)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		pterm.Info.Println("No entries yet")
		return nil
	}

	rows := pterm.TableData{{"ID", "Created", "Mood", "Preview"}}
	for _, s := range summaries {
		rows = append(rows, []string{
			s.ID[:8],
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.Mood,
			s.Preview,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runEntryShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	pterm.DefaultSection.Printf("Entry %s", entry.ID)
	fmt.Printf("Created: %s\n", entry.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated: %s\n", entry.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	if entry.Mood != "" {
		fmt.Printf("Mood:    %s\n", entry.Mood)
	}
	if len(entry.Tags) > 0 {
		fmt.Printf("Tags:    %s\n", strings.Join(entry.Tags, ", "))
	}
	fmt.Println()
	fmt.Println(entry.Body)

	panels, err := a.store.Panels(cmd.Context(), entry.ID)
	if err == nil && len(panels) > 0 {
		pterm.DefaultSection.Println("Panels")
		for _, p := range panels {
			fmt.Printf("  %d. %s (%s)\n", p.Index+1, p.Prompt, p.ImagePath)
		}
	}
	return nil
}

func runEntryRm(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Delete through the workspace so the removal and its rollback path
	// match what the UI does.
	ws := editor.NewWorkspace(a.store, 0, nil)
	defer ws.Close()
	if err := ws.RefreshList(cmd.Context(), 0, 0); err != nil {
		return err
	}
	if err := ws.DeleteEntry(cmd.Context(), args[0]); err != nil {
		return err
	}
	pterm.Success.Printf("Deleted entry %s", args[0])
	return nil
}
