package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/snipe/internal/api"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the linked Resy account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			acct, err := a.client.GetResyAccount(cmd.Context())
			if err != nil {
				return err
			}
			printAccount(cmd.OutOrStdout(), acct)
			return nil
		},
	}
	cmd.AddCommand(newAccountLinkCmd(), newAccountUnlinkCmd(), newAccountPaymentCmd())
	return cmd
}

func printAccount(w io.Writer, acct api.ResyAccount) {
	if !acct.Linked {
		fmt.Fprintln(w, "no Resy account linked (run `snipe account link`)")
		return
	}
	fmt.Fprintf(w, "linked: %s %s <%s>\n", acct.FirstName, acct.LastName, acct.Email)
	for _, pm := range acct.PaymentMethods {
		mark := " "
		if pm.Selected {
			mark = "*"
		}
		fmt.Fprintf(w, " %s %d  %s\n", mark, pm.ID, pm.Display)
	}
}

func newAccountLinkCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link (or reconnect) a Resy account; the password is read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.ErrOrStderr(), "Resy password: ")
			password, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			acct, err := a.client.LinkResyAccount(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			printAccount(cmd.OutOrStdout(), acct)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Resy account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newAccountUnlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink",
		Short: "Remove the stored Resy credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if err := a.client.UnlinkResyAccount(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Resy account unlinked")
			return nil
		},
	}
}

func newAccountPaymentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payment <payment-method-id>",
		Short: "Choose the card used when a snipe books",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid payment method id %q", args[0])
			}
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			acct, err := a.client.SelectPaymentMethod(cmd.Context(), id)
			if err != nil {
				return err
			}
			printAccount(cmd.OutOrStdout(), acct)
			return nil
		},
	}
}
