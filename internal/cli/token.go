package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"apeBeacon/pkg/utils"

	"github.com/spf13/cobra"
)

func init() {
	token := &cobra.Command{
		Use:   "token",
		Short: "Log in with the admin credentials and print a bearer token",
		Run:   runToken,
	}
	token.Flags().String("username", "", "Admin username (default: $ADMIN_USERNAME)")
	token.Flags().String("password", "", "Admin password (read from stdin when empty)")

	hash := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.MaximumNArgs(1),
		Run:   runHashPassword,
	}

	RootCmd.AddCommand(token, hash)
}

func readSecret(cmd *cobra.Command, given string) string {
	if given != "" {
		return given
	}
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func runToken(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if username == "" {
		username = cfg.Admin.Username
	}

	svc, closeFn, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeFn()

	tok, err := svc.Login(cmd.Context(), username, readSecret(cmd, password))
	if err != nil {
		exitErr("login", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), tok)
}

func runHashPassword(cmd *cobra.Command, args []string) {
	password := ""
	if len(args) == 1 {
		password = args[0]
	}
	password = readSecret(cmd, password)
	if password == "" {
		exitErr("hash password", errors.New("empty password"))
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		exitErr("hash password", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
}
