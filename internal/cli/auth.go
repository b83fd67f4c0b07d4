package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/prayerlist/internal/api"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your account and session",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the prayer service",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget saved credentials",
	RunE:  runLogout,
}

var signupCmd = &cobra.Command{
	Use:     "signup",
	Aliases: []string{"register"},
	Short:   "Create a new account",
	RunE:    runSignup,
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"whoami"},
	Short:   "Show the current session",
	RunE:    runStatus,
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	RunE:  runPassword,
}

var forgotCmd = &cobra.Command{
	Use:   "forgot [email]",
	Short: "Reset a forgotten password with an emailed code",
	Args:  cobra.ExactArgs(1),
	RunE:  runForgot,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Update your profile",
	Long: `Update profile fields. Only the flags you pass are changed.

Examples:
  prayerlist auth profile --first "Ann" --last "Lee"
  prayerlist auth profile --email ann@example.com`,
	RunE: runProfile,
}

var deleteAccountCmd = &cobra.Command{
	Use:   "delete-account",
	Short: "Permanently delete your account",
	RunE:  runDeleteAccount,
}

var (
	loginRemember bool
	deleteConfirm bool
)

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(signupCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(passwordCmd)
	authCmd.AddCommand(forgotCmd)
	authCmd.AddCommand(profileCmd)
	authCmd.AddCommand(deleteAccountCmd)

	loginCmd.Flags().BoolVarP(&loginRemember, "remember", "r", false, "Save credentials so an expired session is renewed silently")
	profileCmd.Flags().String("username", "", "New username")
	profileCmd.Flags().String("first", "", "New first name")
	profileCmd.Flags().String("last", "", "New last name")
	profileCmd.Flags().String("email", "", "New email address")
	profileCmd.Flags().String("phone", "", "New phone number")
	deleteAccountCmd.Flags().BoolVar(&deleteConfirm, "yes", false, "Confirm deletion")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	username := prompt("Username or email: ")
	password := promptPassword("Password: ")
	remember := loginRemember || (cfg.Remember && !cmd.Flags().Changed("remember"))

	fmt.Println("🔄 Logging in...")
	if err := a.store.Login(cmd.Context(), username, password, remember); err != nil {
		return failure("login", err)
	}

	sess := a.store.Session()
	fmt.Printf("✅ Logged in as %s\n", sess.User.DisplayName())

	if cfg.PushToken != "" {
		if _, err := a.store.RegisterPushToken(cmd.Context(), cfg.PushToken, "cli"); err != nil {
			fmt.Printf("⚠️  Push token not registered: %s\n", api.MessageOf(err))
		}
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.store.Session().IsAuthenticated {
		fmt.Println("Not logged in.")
		return nil
	}
	if err := a.store.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("✅ Logged out successfully.")
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var req api.SignupRequest
	req.Username = prompt("Username: ")
	if req.Username != "" {
		available, err := a.client.CheckUsername(cmd.Context(), req.Username)
		if err != nil {
			return failure("check username", err)
		}
		if !available {
			return fmt.Errorf("username %q is taken", req.Username)
		}
	}
	req.Email = prompt("Email: ")
	req.FirstName = prompt("First name: ")
	req.LastName = prompt("Last name: ")
	req.PhoneNumber = prompt("Phone (optional): ")
	req.Password = promptPassword("Password: ")
	if confirm := promptPassword("Confirm Password: "); confirm != req.Password {
		return fmt.Errorf("passwords do not match")
	}
	if err := api.ValidateSignup(req); err != nil {
		return failure("signup", err)
	}

	fmt.Println("🔄 Creating account...")
	if _, err := a.store.Signup(cmd.Context(), req); err != nil {
		return failure("signup", err)
	}
	fmt.Println("✅ Account created. Log in with: prayerlist auth login")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sess := a.store.Session()
	fmt.Printf("API:      %s\n", a.client.BaseURL())
	if !sess.IsAuthenticated {
		fmt.Println("Session:  logged out")
		return nil
	}
	u := sess.User
	fmt.Printf("User:     %s (%s, id %d)\n", u.DisplayName(), u.Username, u.UserProfileID)
	fmt.Printf("Email:    %s\n", u.Email)
	if _, saved := a.store.Credentials(cmd.Context()); saved {
		fmt.Println("Renewal:  saved credentials")
	} else {
		fmt.Println("Renewal:  none, log in again when the session expires")
	}
	return nil
}

func runPassword(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		current := promptPassword("Current password: ")
		next := promptPassword("New password: ")
		if confirm := promptPassword("Confirm new password: "); confirm != next {
			return fmt.Errorf("passwords do not match")
		}
		if err := a.store.ChangePassword(cmd.Context(), current, next); err != nil {
			return failure("change password", err)
		}
		fmt.Println("✅ Password changed.")
		return nil
	})
}

func runForgot(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()
	email := args[0]

	msg, err := a.client.ForgotPassword(ctx, email)
	if err != nil {
		return failure("request reset", err)
	}
	fmt.Printf("📬 %s\n", msg)

	code := prompt("Verification code: ")
	token, err := a.client.VerifyResetCode(ctx, email, code)
	if err != nil {
		return failure("verify code", err)
	}
	password := promptPassword("New password: ")
	if err := a.client.ResetPassword(ctx, token, password); err != nil {
		return failure("reset password", err)
	}
	fmt.Println("✅ Password reset. Log in with: prayerlist auth login")
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	var update api.ProfileUpdate
	set := func(flag string, dst **string) {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			*dst = &v
		}
	}
	set("username", &update.Username)
	set("first", &update.FirstName)
	set("last", &update.LastName)
	set("email", &update.Email)
	set("phone", &update.PhoneNumber)
	if update == (api.ProfileUpdate{}) {
		return fmt.Errorf("nothing to update, pass at least one flag")
	}

	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.UpdateProfile(cmd.Context(), update); err != nil {
			return failure("update profile", err)
		}
		fmt.Printf("✅ Profile updated for %s\n", a.store.Session().User.DisplayName())
		return nil
	})
}

func runDeleteAccount(cmd *cobra.Command, args []string) error {
	if !deleteConfirm {
		if answer := prompt("Type DELETE to remove your account and all your prayers: "); strings.TrimSpace(answer) != "DELETE" {
			fmt.Println("Cancelled.")
			return nil
		}
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.store.DeleteAccount(cmd.Context()); err != nil {
			return failure("delete account", err)
		}
		fmt.Println("✅ Account deleted.")
		return nil
	})
}
