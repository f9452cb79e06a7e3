/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package console

import (
	"fmt"
	"os"

	"github.com/taomind007/storage-subnet/configs"
	"github.com/taomind007/storage-subnet/pkg/out"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   configs.Name,
	Short: configs.Description,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	err := rootCmd.Execute()
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", configs.DefaultConfigFile, "custom profile")
	rootCmd.AddCommand(
		runCmd,
		configCmd,
		statCmd,
		versionCmd,
	)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version number and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(configs.Name + " " + configs.Version)
	},
}
