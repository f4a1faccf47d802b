package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/healthsync/hms-client/internal/platform/apiclient"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("HMS_PASSWORD")
			}

			a, err := newApp(os.Stderr)
			if err != nil {
				return err
			}
			s, err := a.accounts.Login(cmd.Context(), apiclient.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", s.User.DisplayName(), s.User.UserType)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (or HMS_PASSWORD)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func registerCmd() *cobra.Command {
	var reg apiclient.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a patient account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reg.Password == "" {
				reg.Password = os.Getenv("HMS_PASSWORD")
			}
			a, err := newApp(os.Stderr)
			if err != nil {
				return err
			}
			s, err := a.accounts.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s, patient id %s\n", s.User.DisplayName(), s.User.UserID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.FirstName, "first-name", "", "First name")
	f.StringVar(&reg.LastName, "last-name", "", "Last name")
	f.StringVar(&reg.Email, "email", "", "Email")
	f.StringVar(&reg.Password, "password", "", "Password (or HMS_PASSWORD)")
	f.StringVar(&reg.DateOfBirth, "dob", "", "Date of birth, YYYY-MM-DD")
	f.StringVar(&reg.Gender, "gender", "", "Gender")
	f.StringVar(&reg.BloodGroup, "blood-group", "", "Blood group")
	f.StringVar(&reg.ContactNumber, "phone", "", "Contact number")
	f.StringVar(&reg.City, "city", "", "City")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(os.Stderr)
			if err != nil {
				return err
			}
			if err := a.accounts.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(os.Stderr)
			if err != nil {
				return err
			}
			s, err := a.requireSession()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", s.User.DisplayName(), s.User.Email)
			fmt.Fprintf(out, "type: %s  id: %s\n", s.User.UserType, s.User.UserID)
			if exp, ok := s.ExpiresAt(); ok {
				fmt.Fprintf(out, "expires: %s\n", exp.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
