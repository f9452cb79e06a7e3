/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package console

import (
	"os"
	"path/filepath"

	"github.com/taomind007/storage-subnet/configs"
	"github.com/taomind007/storage-subnet/pkg/confile"
	"github.com/taomind007/storage-subnet/pkg/out"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:                   "config",
	Short:                 "Generate a template profile in the current directory",
	DisableFlagsInUseLine: true,
	Run:                   cmd_config_func,
}

func cmd_config_func(cmd *cobra.Command, args []string) {
	pwd, err := os.Getwd()
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}
	fpath := filepath.Join(pwd, confile.DefaultProfile)
	_, err = os.Stat(fpath)
	if err == nil {
		out.Warn(fpath + " already exists")
		os.Exit(1)
	}
	err = os.WriteFile(fpath, []byte(confile.TempleteProfile), configs.FileMode)
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}
	out.Ok(fpath)
}
