// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"log"

	store "github.com/mdhender/phylotree/stores/sqlite"
	"github.com/spf13/cobra"
)

func cmdInitDb() *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "init-db <path>",
		Short:        "create a new tree database",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.InitDatabase(args[0]); err != nil {
				return err
			}
			log.Printf("%s: created database\n", args[0])
			return nil
		},
	}
	return cmd
}

func cmdCompactDb() *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "compact-db <path>",
		Short:        "checkpoint and vacuum a tree database",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.CompactDatabase(args[0]); err != nil {
				return err
			}
			log.Printf("%s: compacted database\n", args[0])
			return nil
		},
	}
	return cmd
}
