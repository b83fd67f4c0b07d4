package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/internal/model"
	"github.com/existflow/prayerlist/internal/reminder"
)

var reminderCmd = &cobra.Command{
	Use:     "reminders",
	Aliases: []string{"reminder", "r"},
	Short:   "Show and schedule prayer reminders",
	RunE:    runReminderList,
}

var reminderNextCmd = &cobra.Command{
	Use:   "next [count]",
	Short: "Show the next reminder times",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReminderNext,
}

var reminderSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change your reminder",
	Long: `Change the first reminder. Only the flags you pass are changed.

Examples:
  prayerlist reminders set --on --time 07:30
  prayerlist reminders set --frequency specific --days 1,3,5 --time 06:45
  prayerlist reminders set --off`,
	RunE: runReminderSet,
}

var reminderWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay running and announce reminders as they come due",
	RunE:  runReminderWatch,
}

var (
	reminderOn        bool
	reminderOff       bool
	reminderTime      string
	reminderFrequency string
	reminderDays      string
	reminderMessage   string
)

func init() {
	reminderSetCmd.Flags().BoolVar(&reminderOn, "on", false, "Enable the reminder")
	reminderSetCmd.Flags().BoolVar(&reminderOff, "off", false, "Disable the reminder")
	reminderSetCmd.Flags().StringVar(&reminderTime, "time", "", "Time of day, HH:MM")
	reminderSetCmd.Flags().StringVar(&reminderFrequency, "frequency", "", "daily, weekly, monthly or specific")
	reminderSetCmd.Flags().StringVar(&reminderDays, "days", "", "Weekdays for specific, 0-6 from Sunday, comma separated")
	reminderSetCmd.Flags().StringVar(&reminderMessage, "message", "", "Reminder text")

	reminderCmd.AddCommand(reminderNextCmd)
	reminderCmd.AddCommand(reminderSetCmd)
	reminderCmd.AddCommand(reminderWatchCmd)
}

// loadReminders fetches preferences and decodes the reminders one. The
// preference record is returned for updates; ok is false when it is missing.
func loadReminders(ctx context.Context, a *app) ([]reminder.Reminder, model.UserPreference, bool, error) {
	if err := a.store.FetchPreferences(ctx); err != nil {
		return nil, model.UserPreference{}, false, failure("load preferences", err)
	}
	pref, ok := a.store.Preference(model.PrefPrayerReminders)
	if !ok {
		return nil, pref, false, nil
	}
	list, err := reminder.Parse(pref.PreferenceValue)
	if err != nil {
		logger.Warn("Ignoring unreadable reminders preference", logger.Err(err))
		return nil, pref, true, nil
	}
	return list, pref, true, nil
}

func describe(r reminder.Reminder) string {
	state := "off"
	if r.IsEnabled {
		state = "on"
	}
	when := r.Frequency + " at " + r.Time
	if r.Frequency == reminder.Specific {
		days := make([]string, 0, len(r.SpecificDays))
		for _, d := range r.SpecificDays {
			at := r.Time
			if t, ok := r.SpecificDayTimes[d]; ok {
				at = t
			}
			days = append(days, time.Weekday(d).String()[:3]+" "+at)
		}
		when = strings.Join(days, ", ")
	}
	return fmt.Sprintf("[%s] %s: %s", state, when, r.Message)
}

func runReminderList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		list, _, _, err := loadReminders(cmd.Context(), a)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No reminders. Turn one on with: prayerlist reminders set --on")
			return nil
		}
		fmt.Printf("\n⏰ Reminders\n")
		fmt.Println(strings.Repeat("─", 60))
		for _, r := range list {
			fmt.Printf("  %s\n", describe(r))
		}
		fmt.Println()
		return nil
	})
}

func runReminderNext(cmd *cobra.Command, args []string) error {
	n := 5
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		n = v
	}
	return withApp(cmd.Context(), func(a *app) error {
		list, _, _, err := loadReminders(cmd.Context(), a)
		if err != nil {
			return err
		}
		entries, err := reminder.Compile(list)
		if err != nil {
			return err
		}
		upcoming := reminder.Upcoming(entries, time.Now(), n)
		if len(upcoming) == 0 {
			fmt.Println("No reminders are on.")
			return nil
		}
		for _, f := range upcoming {
			fmt.Printf("  %s  %s\n", f.At.Format("Mon Jan 2 15:04"), f.Message)
		}
		return nil
	})
}

func parseDays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %q (want 0-6)", part)
		}
		days = append(days, d)
	}
	return days, nil
}

func runReminderSet(cmd *cobra.Command, args []string) error {
	if reminderOn && reminderOff {
		return fmt.Errorf("--on and --off are mutually exclusive")
	}
	return withApp(cmd.Context(), func(a *app) error {
		list, pref, ok, err := loadReminders(cmd.Context(), a)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("your account has no reminder preference")
		}
		if len(list) == 0 {
			list = []reminder.Reminder{reminder.Default()}
		}

		r := &list[0]
		flags := cmd.Flags()
		if reminderOn {
			r.IsEnabled = true
		}
		if reminderOff {
			r.IsEnabled = false
		}
		if flags.Changed("time") {
			r.Time = reminderTime
		}
		if flags.Changed("frequency") {
			r.Frequency = reminderFrequency
		}
		if flags.Changed("days") {
			days, err := parseDays(reminderDays)
			if err != nil {
				return err
			}
			r.SpecificDays = days
		}
		if flags.Changed("message") {
			r.Message = reminderMessage
		}
		if _, err := r.Specs(); err != nil {
			return err
		}

		value, err := reminder.Encode(list)
		if err != nil {
			return err
		}
		if _, err := a.store.UpdatePreference(cmd.Context(), pref.UserPreferenceID, api.PreferenceUpdate{
			PreferenceKey:   pref.PreferenceKey,
			PreferenceValue: value,
			IsActive:        true,
		}); err != nil {
			return failure("save reminder", err)
		}
		fmt.Printf("✅ %s\n", describe(*r))
		return nil
	})
}

func runReminderWatch(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		list, _, _, err := loadReminders(cmd.Context(), a)
		if err != nil {
			return err
		}
		entries, err := reminder.Compile(list)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No reminders are on.")
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sched := reminder.NewScheduler(logger.Default())
		sched.Start(entries, func(f reminder.Firing) {
			fmt.Printf("\a🔔 %s  %s\n", f.At.Format("15:04"), f.Message)
		})
		if next := reminder.Upcoming(entries, time.Now(), 1); len(next) == 1 {
			fmt.Printf("⏰ Watching %d schedule(s). Next: %s. Ctrl+C to stop.\n", len(entries), next[0].At.Format("Mon 15:04"))
		}

		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sched.Stop(stopCtx)
		fmt.Println("Stopped.")
		return nil
	})
}
