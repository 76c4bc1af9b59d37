package commands

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/draftloom/draftloom/pkg/draftcache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the local draft metadata cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <chat-id>",
	Short: "Print the cached draft metadata for a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}
		cache, kvStore, err := openCache(cliCtx)
		if err != nil {
			return err
		}
		defer kvStore.Close()

		meta, err := cache.Get(cmd.Context(), args[0])
		if err != nil {
			if err == draftcache.ErrNotFound {
				return fmt.Errorf("no cached metadata for chat %s", args[0])
			}
			return err
		}
		data, err := yaml.Marshal(meta)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <chat-id>",
	Short: "Remove the cached draft metadata for a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}
		cache, kvStore, err := openCache(cliCtx)
		if err != nil {
			return err
		}
		defer kvStore.Close()

		return cache.Delete(cmd.Context(), args[0])
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
