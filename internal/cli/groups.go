package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/store"
)

var groupCmd = &cobra.Command{
	Use:     "group",
	Aliases: []string{"groups", "g"},
	Short:   "Manage prayer groups",
}

var groupListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your groups",
	RunE:    runGroupList,
}

var groupNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a group",
	Long: `Create a prayer group. You become its first member.

Examples:
  prayerlist group new "Tuesday circle"
  prayerlist group new "Family" --desc "Everyone at home"`,
	Args: cobra.ExactArgs(1),
	RunE: runGroupNew,
}

var groupRenameCmd = &cobra.Command{
	Use:   "rename [group-id] [name]",
	Short: "Rename a group you created",
	Args:  cobra.ExactArgs(2),
	RunE:  runGroupRename,
}

var groupDeleteCmd = &cobra.Command{
	Use:     "delete [group-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a group you created",
	Args:    cobra.ExactArgs(1),
	RunE:    runGroupDelete,
}

var groupInviteCmd = &cobra.Command{
	Use:   "invite [group-id]",
	Short: "Create an invite code for a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupInvite,
}

var groupJoinCmd = &cobra.Command{
	Use:   "join [group-id] [invite-code]",
	Short: "Join a group with an invite code",
	Args:  cobra.ExactArgs(2),
	RunE:  runGroupJoin,
}

var groupLeaveCmd = &cobra.Command{
	Use:   "leave [group-id]",
	Short: "Leave a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupLeave,
}

var groupMembersCmd = &cobra.Command{
	Use:   "members [group-id]",
	Short: "List a group's members",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupMembers,
}

var groupPrayersCmd = &cobra.Command{
	Use:   "prayers [group-id]",
	Short: "List a group's prayers",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupPrayers,
}

var groupPrayCmd = &cobra.Command{
	Use:   "pray [group-id] [title]",
	Short: "Add a prayer to a group",
	Args:  cobra.ExactArgs(2),
	RunE:  runGroupPray,
}

var groupMoveCmd = &cobra.Command{
	Use:   "move [group-id] [position]",
	Short: "Move a group to a position in your list (1 is the top)",
	Args:  cobra.ExactArgs(2),
	RunE:  runGroupMove,
}

var (
	groupDesc     string
	groupSearch   string
	groupByName   bool
	groupInactive bool
)

func init() {
	groupNewCmd.Flags().StringVarP(&groupDesc, "desc", "d", "", "Description")
	groupListCmd.Flags().StringVarP(&groupSearch, "search", "s", "", "Search name and description")
	groupListCmd.Flags().BoolVar(&groupByName, "by-name", false, "Sort by name instead of your order")
	groupListCmd.Flags().BoolVar(&groupInactive, "inactive", false, "Include inactive groups")

	groupCmd.AddCommand(groupListCmd)
	groupCmd.AddCommand(groupNewCmd)
	groupCmd.AddCommand(groupRenameCmd)
	groupCmd.AddCommand(groupDeleteCmd)
	groupCmd.AddCommand(groupInviteCmd)
	groupCmd.AddCommand(groupJoinCmd)
	groupCmd.AddCommand(groupLeaveCmd)
	groupCmd.AddCommand(groupMembersCmd)
	groupCmd.AddCommand(groupPrayersCmd)
	groupCmd.AddCommand(groupPrayCmd)
	groupCmd.AddCommand(groupMoveCmd)
}

func runGroupList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchGroups(cmd.Context()); err != nil {
			return failure("load groups", err)
		}
		f := store.GroupFilter{Search: groupSearch, SortByName: groupByName}
		if !groupInactive {
			active := true
			f.IsActive = &active
		}
		list := store.NewGroupView().Select(a.store.Snapshot().Groups, f)
		if len(list) == 0 {
			fmt.Println("No groups yet. Create one with: prayerlist group new \"Name\"")
			return nil
		}

		fmt.Printf("\n👥 Groups (%d)\n", len(list))
		fmt.Println(strings.Repeat("─", 60))
		for _, g := range list {
			fmt.Printf("  [%d] %s\n", g.GroupID, g.GroupName)
			if g.GroupDescription != "" {
				fmt.Printf("      %s\n", g.GroupDescription)
			}
		}
		fmt.Println()
		return nil
	})
}

func runGroupNew(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		g, err := a.store.CreateGroup(cmd.Context(), api.GroupInput{GroupName: args[0], GroupDescription: groupDesc})
		if err != nil {
			return failure("create group", err)
		}
		fmt.Printf("✅ Group created: %s [%d]\n", g.GroupName, g.GroupID)
		return nil
	})
}

func runGroupRename(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchGroups(cmd.Context()); err != nil {
			return failure("load groups", err)
		}
		in := api.GroupInput{GroupName: args[1]}
		for _, g := range a.store.Snapshot().Groups.Data {
			if g.GroupID == id {
				active := g.IsActive
				in.GroupDescription, in.IsActive = g.GroupDescription, &active
			}
		}
		if err := a.store.UpdateGroup(cmd.Context(), id, in); err != nil {
			return failure("rename group", err)
		}
		fmt.Printf("✅ Group [%d] renamed to %s\n", id, args[1])
		return nil
	})
}

func runGroupDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.DeleteGroup(cmd.Context(), id); err != nil {
			return failure("delete group", err)
		}
		fmt.Printf("🗑️  Group [%d] deleted\n", id)
		return nil
	})
}

func runGroupInvite(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		code, err := a.store.CreateGroupInvite(cmd.Context(), id)
		if err != nil {
			return failure("create invite", err)
		}
		fmt.Printf("📨 Invite code: %s\n", code)
		fmt.Printf("   Join with: prayerlist group join %d %s\n", id, code)
		return nil
	})
}

func runGroupJoin(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.JoinGroup(cmd.Context(), id, args[1]); err != nil {
			return failure("join group", err)
		}
		fmt.Printf("✅ Joined group [%d]\n", id)
		return nil
	})
}

func runGroupLeave(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.LeaveGroup(cmd.Context(), id); err != nil {
			return failure("leave group", err)
		}
		fmt.Printf("👋 Left group [%d]\n", id)
		return nil
	})
}

func runGroupMembers(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchGroupUsers(cmd.Context(), id); err != nil {
			return failure("load members", err)
		}
		users := a.store.Snapshot().GroupUsers.Data
		fmt.Printf("\n👥 Members of group [%d] (%d)\n", id, len(users))
		fmt.Println(strings.Repeat("─", 60))
		for _, u := range users {
			fmt.Printf("  [%d] %s (%s)\n", u.UserProfileID, u.DisplayName(), u.Username)
		}
		fmt.Println()
		return nil
	})
}

func runGroupPrayers(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchGroupPrayers(cmd.Context(), id); err != nil {
			return failure("load group prayers", err)
		}
		list := a.store.Snapshot().GroupPrayers.Data
		if len(list) == 0 {
			fmt.Printf("No prayers in group [%d] yet.\n", id)
			return nil
		}
		printPrayers("Group "+strconv.FormatInt(id, 10), list, a.store.Session().UserID())
		return nil
	})
}

func runGroupPray(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		res, err := a.store.CreateGroupPrayer(cmd.Context(), id, api.PrayerInput{Title: args[1]})
		if err != nil {
			return failure("add group prayer", err)
		}
		fmt.Printf("✅ Prayer [%d] added to group [%d]\n", res.PrayerID, id)
		return nil
	})
}

func runGroupMove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	pos, err := strconv.Atoi(args[1])
	if err != nil || pos < 1 {
		return fmt.Errorf("invalid position %q", args[1])
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchGroups(cmd.Context()); err != nil {
			return failure("load groups", err)
		}
		list := a.store.Snapshot().Groups.Data
		from := -1
		for i, g := range list {
			if g.GroupID == id {
				from = i
			}
		}
		if from < 0 {
			return fmt.Errorf("group %d not found", id)
		}
		if err := a.store.ReorderGroups(cmd.Context(), moveTo(list, from, pos-1)); err != nil {
			return failure("reorder groups", err)
		}
		fmt.Printf("✅ Group [%d] moved to position %d\n", id, pos)
		return nil
	})
}
