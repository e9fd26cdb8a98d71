package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"studiod/internal/auth"
	"studiod/internal/config"
	"studiod/internal/scripts"
	"studiod/internal/status"
	"studiod/pkg/types"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newItemsCommand(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:       "items nodes|models",
		Short:     "Parse an install script and print its items",
		Example:   "  studiod items models\n  studiod items nodes --file install_nodes.sh",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"nodes", "models"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var parse func(string) []types.Item
			switch args[0] {
			case "nodes":
				parse = scripts.ParseNodes
			case "models":
				parse = scripts.ParseModels
			default:
				return fmt.Errorf("unknown item kind: %s", args[0])
			}
			text, err := readScript(cmd, opts, args[0], file)
			if err != nil {
				return err
			}
			items := parse(text)
			if items == nil {
				items = []types.Item{}
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read the script from a local file instead of the remote repository")
	return cmd
}

func readScript(cmd *cobra.Command, opts *options, kind, file string) (string, error) {
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return "", err
	}
	path := cfg.NodesScript
	if kind == "models" {
		path = cfg.ModelsScript
	}
	return scripts.NewFetcher(cfg.RawBaseURL, config.Seconds(cfg.FetchTimeoutSec)).Fetch(cmd.Context(), path)
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the recorded install status of each component",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status.NewStore(cfg.StatusDir).All())
		},
	}
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for admin_password_hash",
		Long:  "Print a bcrypt hash for admin_password_hash. Without an argument the password is read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pw string
			if len(args) == 1 {
				pw = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return err
				}
				pw = strings.TrimRight(line, "\r\n")
			}
			if pw == "" {
				return fmt.Errorf("empty password")
			}
			hash, err := auth.HashPassword(pw)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}
