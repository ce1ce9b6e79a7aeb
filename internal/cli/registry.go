package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"snow-search/pkg/registry"
)

func newRegistryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and validate record type registries",
	}

	validateCmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a registry file (default: search.registry_path, or the built-in registry)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				reg    *registry.RecordTypeRegistry
				source string
				err    error
			)
			if len(args) == 1 {
				source = args[0]
				reg, err = registry.LoadRegistry(source)
			} else {
				source = a.cfg.Search.RegistryPath
				if source == "" {
					source = "built-in"
				}
				reg, err = a.loadRegistry()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: ok (version %s)\n", source, reg.Version)
			for _, rt := range reg.RecordTypes {
				fmt.Fprintf(out, "  %-16s synonyms=%v prefixes=%v\n", rt.Table, rt.Synonyms, rt.IdentifierPrefixes)
			}
			return nil
		},
	}

	var output string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the active registry as JSON, to stdout or --output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			if output == "" {
				return printJSON(cmd.OutOrStdout(), reg)
			}
			if err := reg.Save(output); err != nil {
				return fmt.Errorf("save registry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registry written to %s\n", output)
			return nil
		},
	}
	dumpCmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")

	cmd.AddCommand(validateCmd, dumpCmd)
	return cmd
}
