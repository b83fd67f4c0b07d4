package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/model"
	"github.com/existflow/prayerlist/internal/store"
)

var prayerCmd = &cobra.Command{
	Use:     "prayer",
	Aliases: []string{"prayers", "p"},
	Short:   "Manage your prayers",
}

var prayerListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your prayers and the ones shared with you",
	Long: `List prayers, optionally filtered.

Examples:
  prayerlist prayer list
  prayerlist prayer list --search healing --range month
  prayerlist prayer list --answered --mine`,
	RunE: runPrayerList,
}

var prayerAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a prayer",
	Long: `Add a prayer.

Examples:
  prayerlist prayer add "Job interview on Friday"
  prayerlist prayer add "Surgery recovery" --subject 12 --private`,
	Args: cobra.ExactArgs(1),
	RunE: runPrayerAdd,
}

var prayerEditCmd = &cobra.Command{
	Use:   "edit [prayer-id]",
	Short: "Edit a prayer",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrayerEdit,
}

var prayerAnswerCmd = &cobra.Command{
	Use:   "answer [prayer-id]",
	Short: "Mark a prayer answered",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrayerAnswer,
}

var prayerDeleteCmd = &cobra.Command{
	Use:     "delete [prayer-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a prayer",
	Args:    cobra.ExactArgs(1),
	RunE:    runPrayerDelete,
}

var prayerMoveCmd = &cobra.Command{
	Use:   "move [prayer-id] [position]",
	Short: "Move a prayer to a position in your list (1 is the top)",
	Args:  cobra.ExactArgs(2),
	RunE:  runPrayerMove,
}

var prayerShareCmd = &cobra.Command{
	Use:   "share [prayer-id]",
	Short: "Share a prayer with a user or a group",
	Long: `Share a prayer.

Examples:
  prayerlist prayer share 42 --user 7
  prayerlist prayer share 42 --group 3`,
	Args: cobra.ExactArgs(1),
	RunE: runPrayerShare,
}

var prayerUnshareCmd = &cobra.Command{
	Use:   "unshare [prayer-id] [access-id]",
	Short: "Remove a share from a prayer",
	Args:  cobra.ExactArgs(2),
	RunE:  runPrayerUnshare,
}

var (
	prayerSearch   string
	prayerRange    string
	prayerAnswered bool
	prayerOpen     bool
	prayerMine     bool

	prayerTitle    string
	prayerDesc     string
	prayerPrivate  bool
	prayerSubject  int64
	prayerPriority int
	prayerType     string

	shareUser  int64
	shareGroup int64
)

func init() {
	prayerListCmd.Flags().StringVarP(&prayerSearch, "search", "s", "", "Search title and description")
	prayerListCmd.Flags().StringVar(&prayerRange, "range", "all", "Created within: all, today, week, month, year")
	prayerListCmd.Flags().BoolVar(&prayerAnswered, "answered", false, "Only answered prayers")
	prayerListCmd.Flags().BoolVar(&prayerOpen, "open", false, "Only unanswered prayers")
	prayerListCmd.Flags().BoolVar(&prayerMine, "mine", false, "Only prayers you created")

	for _, c := range []*cobra.Command{prayerAddCmd, prayerEditCmd} {
		c.Flags().StringVarP(&prayerDesc, "desc", "d", "", "Description")
		c.Flags().BoolVar(&prayerPrivate, "private", false, "Keep the prayer private")
		c.Flags().Int64Var(&prayerSubject, "subject", 0, "Prayer subject id (defaults to yourself)")
		c.Flags().IntVar(&prayerPriority, "priority", 0, "Priority")
		c.Flags().StringVar(&prayerType, "type", "", "Prayer type")
	}
	prayerEditCmd.Flags().StringVarP(&prayerTitle, "title", "t", "", "New title")

	prayerShareCmd.Flags().Int64Var(&shareUser, "user", 0, "Share with this user id")
	prayerShareCmd.Flags().Int64Var(&shareGroup, "group", 0, "Share with this group id")

	prayerCmd.AddCommand(prayerListCmd)
	prayerCmd.AddCommand(prayerAddCmd)
	prayerCmd.AddCommand(prayerEditCmd)
	prayerCmd.AddCommand(prayerAnswerCmd)
	prayerCmd.AddCommand(prayerDeleteCmd)
	prayerCmd.AddCommand(prayerMoveCmd)
	prayerCmd.AddCommand(prayerShareCmd)
	prayerCmd.AddCommand(prayerUnshareCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func runPrayerList(cmd *cobra.Command, args []string) error {
	r, err := store.ParseDateRange(prayerRange)
	if err != nil {
		return err
	}
	if prayerAnswered && prayerOpen {
		return fmt.Errorf("--answered and --open are mutually exclusive")
	}

	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchUserPrayers(cmd.Context()); err != nil {
			return failure("load prayers", err)
		}
		f := store.PrayerFilter{Search: prayerSearch, DateRange: r}
		if prayerAnswered || prayerOpen {
			answered := prayerAnswered
			f.IsAnswered = &answered
		}
		if prayerMine {
			me := a.store.Session().UserID()
			f.CreatedBy = &me
		}

		list := store.NewPrayerView().Select(a.store.Snapshot().UserPrayers, f)
		if len(list) == 0 {
			fmt.Println("No prayers found. Add one with: prayerlist prayer add \"Your prayer\"")
			return nil
		}
		printPrayers("Prayers", list, a.store.Session().UserID())
		return nil
	})
}

func printPrayers(title string, list []model.Prayer, me int64) {
	open := 0
	for _, p := range list {
		if !p.IsAnswered {
			open++
		}
	}
	fmt.Printf("\n🙏 %s (%d open)\n", title, open)
	fmt.Println(strings.Repeat("─", 60))
	for i, p := range list {
		printPrayer(i+1, p, me)
	}
	fmt.Println()
}

func printPrayer(n int, p model.Prayer, me int64) {
	mark := "○"
	if p.IsAnswered {
		mark = "✓"
	}
	flags := ""
	if p.IsPrivate {
		flags += " 🔒"
	}
	if p.UserProfileID != me {
		flags += " (shared)"
	}
	fmt.Printf("%2d. %s [%d] %s%s\n", n, mark, p.PrayerID, p.Title, flags)
	if p.PrayerDescription != "" {
		fmt.Printf("      %s\n", p.PrayerDescription)
	}
	if p.IsAnswered && p.DatetimeAnswered != nil {
		fmt.Printf("      answered %s\n", p.DatetimeAnswered.Local().Format("Jan 2, 2006"))
	}
}

func prayerInput(cmd *cobra.Command, title string) api.PrayerInput {
	in := api.PrayerInput{
		Title:             title,
		PrayerDescription: prayerDesc,
		IsPrivate:         prayerPrivate,
		PrayerType:        prayerType,
	}
	if cmd.Flags().Changed("priority") {
		in.PrayerPriority = &prayerPriority
	}
	if prayerSubject > 0 {
		in.PrayerSubjectID = &prayerSubject
	}
	return in
}

func runPrayerAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		res, err := a.store.CreateUserPrayer(cmd.Context(), prayerInput(cmd, args[0]))
		if err != nil {
			return failure("add prayer", err)
		}
		fmt.Printf("✅ Prayer added [%d]\n", res.PrayerID)
		return nil
	})
}

// findPrayer loads the user's prayers and returns the one with id.
func findPrayer(ctx context.Context, a *app, id int64) (model.Prayer, error) {
	if err := a.store.FetchUserPrayers(ctx); err != nil {
		return model.Prayer{}, failure("load prayers", err)
	}
	for _, p := range a.store.Snapshot().UserPrayers.Data {
		if p.PrayerID == id {
			return p, nil
		}
	}
	return model.Prayer{}, fmt.Errorf("prayer %d not found", id)
}

func runPrayerEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		p, err := findPrayer(cmd.Context(), a, id)
		if err != nil {
			return err
		}
		in := api.EditInput(p)
		flags := cmd.Flags()
		if flags.Changed("title") {
			in.Title = prayerTitle
		}
		if flags.Changed("desc") {
			in.PrayerDescription = prayerDesc
		}
		if flags.Changed("private") {
			in.IsPrivate = prayerPrivate
		}
		if flags.Changed("type") {
			in.PrayerType = prayerType
		}
		if flags.Changed("priority") {
			in.PrayerPriority = &prayerPriority
		}
		if flags.Changed("subject") {
			in.PrayerSubjectID = &prayerSubject
		}
		if err := a.store.UpdatePrayer(cmd.Context(), id, in); err != nil {
			return failure("edit prayer", err)
		}
		fmt.Printf("✅ Prayer [%d] updated\n", id)
		return nil
	})
}

func runPrayerAnswer(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		p, err := findPrayer(cmd.Context(), a, id)
		if err != nil {
			return err
		}
		if p.IsAnswered {
			fmt.Printf("Prayer [%d] is already answered.\n", id)
			return nil
		}
		in := api.EditInput(p)
		answered := true
		in.IsAnswered = &answered
		if err := a.store.UpdatePrayer(cmd.Context(), id, in); err != nil {
			return failure("answer prayer", err)
		}
		fmt.Printf("🎉 Prayer [%d] marked answered: %s\n", id, p.Title)
		return nil
	})
}

func runPrayerDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.DeletePrayer(cmd.Context(), id); err != nil {
			return failure("delete prayer", err)
		}
		fmt.Printf("🗑️  Prayer [%d] deleted\n", id)
		return nil
	})
}

// moveTo returns list with the element at from moved to index to.
func moveTo[E any](list []E, from, to int) []E {
	out := make([]E, 0, len(list))
	out = append(out, list[:from]...)
	out = append(out, list[from+1:]...)
	if to > len(out) {
		to = len(out)
	}
	out = append(out[:to], append([]E{list[from]}, out[to:]...)...)
	return out
}

func runPrayerMove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	pos, err := strconv.Atoi(args[1])
	if err != nil || pos < 1 {
		return fmt.Errorf("invalid position %q", args[1])
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchUserPrayers(cmd.Context()); err != nil {
			return failure("load prayers", err)
		}
		list := a.store.Snapshot().UserPrayers.Data
		from := -1
		for i, p := range list {
			if p.PrayerID == id {
				from = i
			}
		}
		if from < 0 {
			return fmt.Errorf("prayer %d not found", id)
		}
		if err := a.store.ReorderUserPrayers(cmd.Context(), moveTo(list, from, pos-1)); err != nil {
			return failure("reorder prayers", err)
		}
		printPrayers("Prayers", a.store.Snapshot().UserPrayers.Data, a.store.Session().UserID())
		return nil
	})
}

func runPrayerShare(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	accessType, target := model.AccessTypeUser, shareUser
	switch {
	case shareUser > 0 && shareGroup > 0:
		return fmt.Errorf("pass either --user or --group")
	case shareGroup > 0:
		accessType, target = model.AccessTypeGroup, shareGroup
	case shareUser <= 0:
		return fmt.Errorf("pass --user or --group")
	}
	return withApp(cmd.Context(), func(a *app) error {
		accessID, err := a.store.SharePrayer(cmd.Context(), id, accessType, target)
		if err != nil {
			return failure("share prayer", err)
		}
		fmt.Printf("✅ Prayer [%d] shared with %s %d (access %d)\n", id, accessType, target, accessID)
		return nil
	})
}

func runPrayerUnshare(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	accessID, err := parseID(args[1])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.UnsharePrayer(cmd.Context(), id, accessID); err != nil {
			return failure("unshare prayer", err)
		}
		fmt.Printf("✅ Share %d removed from prayer [%d]\n", accessID, id)
		return nil
	})
}
