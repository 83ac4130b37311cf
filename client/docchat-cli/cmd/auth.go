package cmd

import (
	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authUsername string
	authPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().register(cmd.Context(), authEmail, authUsername, authPassword); err != nil {
			return err
		}
		cmd.Println("Account created. Run `docchat login` to get a token.")
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print a bearer token",
	Long: `Logs in and prints a bearer token. Export it as DOCCHAT_TOKEN or pass it with
--token to the document commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := newClient().login(cmd.Context(), authEmail, authPassword)
		if err != nil {
			return err
		}
		cmd.Println(token)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&authUsername, "username", "", "display name")
	registerCmd.Flags().StringVar(&authPassword, "password", "", "password, at least 8 characters")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("password")

	loginCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&authPassword, "password", "", "password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(registerCmd, loginCmd)
}
