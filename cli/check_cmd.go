package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aclgate/aclgate"
	"github.com/aclgate/aclgate/conf"
)

// ErrDenied is returned by the check-command when the decision is a deny, so
// the process exits non-zero.
var ErrDenied = errors.New("access denied")

func NewCheckCmd(log *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] policy-file subject resource action",
		Short: "Evaluate a single access decision against a policy file",
		Args:  cobra.ExactArgs(4),
	}

	var format string

	flags := cmd.Flags()
	flags.StringVar(&format, "format", "", "policy file format (toml, yaml, json or jsonc), inferred from the extension if empty")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		path, subject, resource, action := args[0], args[1], args[2], args[3]

		tree, err := parsePolicyFile(path, format)
		if err != nil {
			return err
		}
		policy, err := aclgate.NewPolicy(tree)
		if err != nil {
			return err
		}

		allowed, reason := policy.Check(subject, resource, action)
		log.Info("decision",
			slog.Bool("allowed", allowed),
			slog.String("subject", subject),
			slog.String("resource", resource),
			slog.String("action", action))
		fmt.Fprintln(cmd.OutOrStdout(), reason)

		if !allowed {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return ErrDenied
		}
		return nil
	}

	return cmd
}

func parsePolicyFile(path, format string) (*conf.Map, error) {
	if format == "" {
		return conf.ParseFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return conf.Parse(data, conf.Format(format))
}
