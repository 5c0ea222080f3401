// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pkcs8.
//
// go-pkcs8 is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


package cli

import (
	"fmt"

	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
	"github.com/spf13/cobra"
)

// newKeysCmd groups the keystore commands
func newKeysCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage containers in the keystore",
		Long: `Import, export, list and delete containers held in the configured
keystore. Containers are validated on import and again on every read.`,
	}

	cmd.AddCommand(newKeysImportCmd(cfg))
	cmd.AddCommand(newKeysExportCmd(cfg))
	cmd.AddCommand(newKeysListCmd(cfg))
	cmd.AddCommand(newKeysDeleteCmd(cfg))
	cmd.AddCommand(newKeysShowCmd(cfg))
	cmd.AddCommand(newKeysCompareCmd(cfg))
	return cmd
}

func newKeysImportCmd(cfg *Config) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			der, err := readDER(args[0])
			if err != nil {
				return err
			}
			defer secure.Zero(der)

			store, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stored, err := store.Import(id, der)
			if err != nil {
				return err
			}
			return cfg.printer(cmd).PrintSuccess(fmt.Sprintf("Imported %s", stored))
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "key ID (default: random UUID)")
	return cmd
}

func newKeysExportCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id> <out>",
		Short: "Export a container in canonical form",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer store.Close()

			der, err := store.Export(args[0])
			if err != nil {
				return err
			}
			defer secure.Zero(der)

			if err := writeDER(args[1], der); err != nil {
				return err
			}
			return cfg.printer(cmd).PrintSuccess(fmt.Sprintf("Exported %s to %s", args[0], args[1]))
		},
	}
}

func newKeysListCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored key IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ids, err := store.List()
			if err != nil {
				return err
			}
			return cfg.printer(cmd).PrintKeyList(ids)
		},
	}
}

func newKeysDeleteCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(args[0]); err != nil {
				return err
			}
			return cfg.printer(cmd).PrintSuccess(fmt.Sprintf("Deleted %s", args[0]))
		},
	}
}

func newKeysShowCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a summary of a stored container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer store.Close()

			c, err := store.Get(args[0])
			if err != nil {
				return err
			}
			info := describeContainer(args[0], c)
			cfg.wipe(c)
			return cfg.printer(cmd).PrintContainer(info)
		},
	}
}

func newKeysCompareCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <id> <id>",
		Short: "Compare two stored containers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer store.Close()

			equal, err := store.Equal(args[0], args[1])
			if err != nil {
				return err
			}
			return cfg.printer(cmd).PrintComparison(args[0], args[1], equal)
		},
	}
}

func newConfigCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging the config file, PKCS8_*
environment variables and command line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.printer(cmd).PrintConfig(cfg.Settings)
		},
	}
}
