package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/prayerlist/internal/store"
)

var notificationCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"inbox", "n"},
	Short:   "Read your notifications",
	RunE:    runNotificationList,
}

var notificationToggleCmd = &cobra.Command{
	Use:   "toggle [notification-id]",
	Short: "Flip a notification between read and unread",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationToggle,
}

var notificationReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification read",
	RunE:  runNotificationReadAll,
}

var notificationDeleteCmd = &cobra.Command{
	Use:     "delete [notification-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a notification",
	Args:    cobra.ExactArgs(1),
	RunE:    runNotificationDelete,
}

var (
	notificationUnread bool
	notificationSearch string
)

func init() {
	notificationCmd.Flags().BoolVarP(&notificationUnread, "unread", "u", false, "Only unread notifications")
	notificationCmd.Flags().StringVarP(&notificationSearch, "search", "s", "", "Search message text")

	notificationCmd.AddCommand(notificationToggleCmd)
	notificationCmd.AddCommand(notificationReadAllCmd)
	notificationCmd.AddCommand(notificationDeleteCmd)
}

func runNotificationList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchNotifications(cmd.Context()); err != nil {
			return failure("load notifications", err)
		}
		list := store.NewNotificationView().Select(a.store.Snapshot().Notifications, store.NotificationFilter{
			Search:     notificationSearch,
			UnreadOnly: notificationUnread,
		})

		fmt.Printf("\n🔔 Notifications (%d unread)\n", a.store.UnreadCount())
		fmt.Println(strings.Repeat("─", 60))
		if len(list) == 0 {
			fmt.Println("  Nothing here.")
		}
		for _, n := range list {
			mark := " "
			if n.IsUnread() {
				mark = "●"
			}
			fmt.Printf("%s [%d] %s\n", mark, n.NotificationID, n.NotificationMessage)
			fmt.Printf("      %s\n", n.DatetimeCreate.Local().Format("Jan 2 15:04"))
		}
		fmt.Println()
		return nil
	})
}

func runNotificationToggle(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.FetchNotifications(cmd.Context()); err != nil {
			return failure("load notifications", err)
		}
		if err := a.store.ToggleNotification(cmd.Context(), id); err != nil {
			return failure("update notification", err)
		}
		fmt.Printf("✅ Notification [%d] updated, %d unread\n", id, a.store.UnreadCount())
		return nil
	})
}

func runNotificationReadAll(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		n, err := a.store.MarkAllNotificationsRead(cmd.Context())
		if err != nil {
			return failure("mark notifications read", err)
		}
		fmt.Printf("✅ %d notifications marked read\n", n)
		return nil
	})
}

func runNotificationDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.DeleteNotification(cmd.Context(), id); err != nil {
			return failure("delete notification", err)
		}
		fmt.Printf("🗑️  Notification [%d] deleted\n", id)
		return nil
	})
}
