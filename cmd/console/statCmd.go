/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package console

import (
	"fmt"
	"os"

	"github.com/taomind007/storage-subnet/pkg/out"
	"github.com/taomind007/storage-subnet/pkg/reputation"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:                   "stat",
	Short:                 "Print the effective tier table",
	DisableFlagsInUseLine: true,
	Run:                   cmd_stat_func,
}

func cmd_stat_func(cmd *cobra.Command, args []string) {
	cfg, err := buildConfigFile(configFile)
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}

	tiers := tierTable(cfg)
	err = reputation.CheckTiers(tiers)
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"tier", "min success rate", "min total successes", "storage limit", "reward factor"})
	for _, t := range tiers {
		tw.AppendRow(table.Row{
			t.Name,
			fmt.Sprintf("%.3f", t.MinSuccessRate),
			t.MinTotalSuccesses,
			fmtBytes(t.StorageLimit),
			fmt.Sprintf("%.3f", t.RewardFactor),
		})
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

func fmtBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
