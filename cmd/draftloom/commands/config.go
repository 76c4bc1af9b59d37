package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/draftloom/draftloom/pkg/cli"
)

var (
	ctxAPIKey      string
	ctxBaseURL     string
	ctxModels      []string
	ctxConsolidate bool
	ctxCacheDir    string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration contexts",
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ctxAPIKey == "" {
			return fmt.Errorf("--api-key is required")
		}
		return globalConfig.AddContext(args[0], &cli.Context{
			APIKey:      ctxAPIKey,
			BaseURL:     ctxBaseURL,
			Models:      ctxModels,
			Consolidate: ctxConsolidate,
			CacheDir:    ctxCacheDir,
		})
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return globalConfig.UseContext(args[0])
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return globalConfig.DeleteContext(args[0])
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range globalConfig.ListContexts() {
			ctx, err := globalConfig.GetContext(name)
			if err != nil {
				continue
			}
			marker := " "
			if name == globalConfig.CurrentContext {
				marker = "*"
			}
			fmt.Printf("%s %-20s %s\n", marker, name, cli.MaskAPIKey(ctx.APIKey))
		}
		return nil
	},
}

func init() {
	configAddContextCmd.Flags().StringVar(&ctxAPIKey, "api-key", "", "backend API key")
	configAddContextCmd.Flags().StringVar(&ctxBaseURL, "base-url", "", "backend base URL")
	configAddContextCmd.Flags().StringSliceVar(&ctxModels, "models", nil, "default model set")
	configAddContextCmd.Flags().BoolVar(&ctxConsolidate, "consolidate", false, "consolidate multi-model turns")
	configAddContextCmd.Flags().StringVar(&ctxCacheDir, "cache-dir", "", "draft metadata cache directory")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configListCmd)
}
