package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/Protoscribe/internal/draft"
	perrors "github.com/turtacn/Protoscribe/pkg/errors"
	"github.com/turtacn/Protoscribe/pkg/logger"
	"github.com/turtacn/Protoscribe/pkg/protocol"
)

const defaultDraftFile = "protocol.yaml"

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a draft scaffold with one empty type and one default structure node",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultDraftFile
			if len(args) == 1 {
				path = args[0]
			}
			format, err := draft.FormatFromPath(path)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return perrors.New(perrors.ErrCodeDraftRead, "Init",
					fmt.Sprintf("%s already exists, pass --force to overwrite", path), nil)
			}
			data, err := draft.Encode(draft.Scaffold(), format)
			if err != nil {
				return perrors.New(perrors.ErrCodeDraftDecode, "Init", "cannot encode scaffold", err)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return perrors.New(perrors.ErrCodeUnknown, "Init", "cannot write "+path, err)
			}
			logger.Log.Info("Draft scaffold written", "path", path, "format", format)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newVerbsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verbs",
		Short: "List the roles and verbs an action rule may use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "roles:")
			for _, who := range protocol.Roles() {
				fmt.Fprintf(out, "  %s\n", who)
			}
			fmt.Fprintln(out, "verbs:")
			for _, verb := range protocol.Verbs() {
				fmt.Fprintf(out, "  %s\n", verb)
			}
			return nil
		},
	}
}

// Personal.AI order the ending
