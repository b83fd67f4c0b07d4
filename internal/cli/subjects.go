package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/model"
	"github.com/existflow/prayerlist/internal/store"
)

var subjectCmd = &cobra.Command{
	Use:     "subject",
	Aliases: []string{"subjects", "people"},
	Short:   "Manage the people and groups you pray for",
}

var subjectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List prayer subjects with their prayers",
	RunE:    runSubjectList,
}

var subjectAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a prayer subject",
	Long: `Add someone to pray for.

Examples:
  prayerlist subject add "Mom" --type family
  prayerlist subject add "Youth group" --type group --notes "Wednesdays"`,
	Args: cobra.ExactArgs(1),
	RunE: runSubjectAdd,
}

var subjectRenameCmd = &cobra.Command{
	Use:   "rename [subject-id] [name]",
	Short: "Rename a prayer subject",
	Args:  cobra.ExactArgs(2),
	RunE:  runSubjectRename,
}

var subjectDeleteCmd = &cobra.Command{
	Use:     "delete [subject-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a prayer subject",
	Args:    cobra.ExactArgs(1),
	RunE:    runSubjectDelete,
}

var subjectMoveCmd = &cobra.Command{
	Use:   "move [subject-id] [position]",
	Short: "Move a prayer subject to a position (1-based)",
	Args:  cobra.ExactArgs(2),
	RunE:  runSubjectMove,
}

var subjectMovePrayerCmd = &cobra.Command{
	Use:   "move-prayer [subject-id] [prayer-id] [position]",
	Short: "Move a prayer within its subject (1-based)",
	Args:  cobra.ExactArgs(3),
	RunE:  runSubjectMovePrayer,
}

var (
	subjectSearch   string
	subjectFilter   string
	subjectType     string
	subjectNotes    string
	subjectReassign bool
)

func init() {
	subjectListCmd.Flags().StringVarP(&subjectSearch, "search", "s", "", "Search names and notes")
	subjectListCmd.Flags().StringVar(&subjectFilter, "type", "all", "Filter by type: all, individual, family, group")
	subjectAddCmd.Flags().StringVar(&subjectType, "type", model.SubjectIndividual, "Type: individual, family, group")
	subjectAddCmd.Flags().StringVar(&subjectNotes, "notes", "", "Notes")
	subjectDeleteCmd.Flags().BoolVar(&subjectReassign, "keep-prayers", false, "Move the subject's prayers to yourself instead of deleting them")

	subjectCmd.AddCommand(subjectListCmd)
	subjectCmd.AddCommand(subjectAddCmd)
	subjectCmd.AddCommand(subjectRenameCmd)
	subjectCmd.AddCommand(subjectDeleteCmd)
	subjectCmd.AddCommand(subjectMoveCmd)
	subjectCmd.AddCommand(subjectMovePrayerCmd)
}

func runSubjectList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchPrayerSubjects(cmd.Context()); err != nil {
			return failure("load prayer subjects", err)
		}
		a.store.SetSubjectSearch(subjectSearch)
		a.store.SetSubjectType(subjectFilter)

		snap := a.store.Snapshot()
		list := store.NewSubjectView().Select(snap.PrayerSubjects, snap.SubjectQuery)
		if len(list) == 0 {
			fmt.Println("No prayer subjects match.")
			return nil
		}
		me := a.store.Session().UserID()
		for _, ps := range list {
			fmt.Printf("\n👤 %s [%d] · %s\n", ps.PrayerSubjectDisplayName, ps.PrayerSubjectID, ps.PrayerSubjectType)
			fmt.Println(strings.Repeat("─", 60))
			if ps.Notes != "" {
				fmt.Printf("   %s\n", ps.Notes)
			}
			for i, p := range ps.Prayers {
				printPrayer(i+1, p, me)
			}
		}
		fmt.Println()
		return nil
	})
}

func runSubjectAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		id, err := a.store.CreatePrayerSubject(cmd.Context(), api.SubjectInput{
			PrayerSubjectType:        subjectType,
			PrayerSubjectDisplayName: args[0],
			Notes:                    subjectNotes,
		})
		if err != nil {
			return failure("add prayer subject", err)
		}
		fmt.Printf("✅ Prayer subject added: %s [%d]\n", args[0], id)
		return nil
	})
}

func runSubjectRename(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	name := args[1]
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.UpdatePrayerSubject(cmd.Context(), id, api.SubjectUpdate{PrayerSubjectDisplayName: &name}); err != nil {
			return failure("rename prayer subject", err)
		}
		fmt.Printf("✅ Prayer subject [%d] renamed to %s\n", id, name)
		return nil
	})
}

func runSubjectDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.DeletePrayerSubject(cmd.Context(), id, subjectReassign); err != nil {
			return failure("delete prayer subject", err)
		}
		fmt.Printf("🗑️  Prayer subject [%d] deleted\n", id)
		return nil
	})
}

func parsePosition(arg string) (int, error) {
	pos, err := strconv.Atoi(arg)
	if err != nil || pos < 1 {
		return 0, fmt.Errorf("invalid position %q", arg)
	}
	return pos - 1, nil
}

func runSubjectMove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	to, err := parsePosition(args[1])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchPrayerSubjects(cmd.Context()); err != nil {
			return failure("load prayer subjects", err)
		}
		list := a.store.Snapshot().PrayerSubjects.Data
		from := slices.IndexFunc(list, func(ps model.PrayerSubject) bool { return ps.PrayerSubjectID == id })
		if from < 0 {
			return fmt.Errorf("prayer subject %d not found", id)
		}
		if err := a.store.ReorderPrayerSubjects(cmd.Context(), moveTo(list, from, to)); err != nil {
			return failure("reorder prayer subjects", err)
		}
		fmt.Printf("✅ Prayer subject [%d] moved to position %d\n", id, to+1)
		return nil
	})
}

func runSubjectMovePrayer(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	prayerID, err := parseID(args[1])
	if err != nil {
		return err
	}
	to, err := parsePosition(args[2])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchPrayerSubjects(cmd.Context()); err != nil {
			return failure("load prayer subjects", err)
		}
		subjects := a.store.Snapshot().PrayerSubjects.Data
		at := slices.IndexFunc(subjects, func(ps model.PrayerSubject) bool { return ps.PrayerSubjectID == id })
		if at < 0 {
			return fmt.Errorf("prayer subject %d not found", id)
		}
		prayers := subjects[at].Prayers
		from := slices.IndexFunc(prayers, func(p model.Prayer) bool { return p.PrayerID == prayerID })
		if from < 0 {
			return fmt.Errorf("prayer %d is not under subject %d", prayerID, id)
		}
		if err := a.store.ReorderSubjectPrayers(cmd.Context(), id, moveTo(prayers, from, to)); err != nil {
			return failure("reorder prayers", err)
		}
		fmt.Printf("✅ Prayer [%d] moved to position %d\n", prayerID, to+1)
		return nil
	})
}
