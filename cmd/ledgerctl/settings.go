package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ledgerline/ledgerline/internal/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "List and change system settings",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known setting with its effective value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		e, err := loadEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		settings, _ := e.services()
		list, err := settings.List(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tTYPE\tVALUE\tDEFAULT")
		for _, s := range list {
			marker := ""
			if !s.IsDefault {
				marker = " *"
			}
			fmt.Fprintf(w, "%s\t%s\t%s%s\t%s\n", s.Key, s.Type, s.Value, marker, s.Default)
		}
		return w.Flush()
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		e, err := loadEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		settings, _ := e.services()
		actor := domain.Actor{Email: "ledgerctl", UserAgent: "ledgerctl/" + Version}
		updated, err := settings.Update(ctx, actor, args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", updated.Key, updated.Value)
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsListCmd, settingsSetCmd)
}
