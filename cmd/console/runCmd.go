/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package console

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/taomind007/storage-subnet/configs"
	"github.com/taomind007/storage-subnet/node"
	"github.com/taomind007/storage-subnet/pkg/cache"
	"github.com/taomind007/storage-subnet/pkg/confile"
	"github.com/taomind007/storage-subnet/pkg/logger"
	"github.com/taomind007/storage-subnet/pkg/out"
	"github.com/taomind007/storage-subnet/pkg/reputation"
	"github.com/taomind007/storage-subnet/pkg/utils"

	"github.com/spf13/cobra"
)

var roundInterval time.Duration

var runCmd = &cobra.Command{
	Use:                   "run",
	Short:                 "Run the verification engine",
	DisableFlagsInUseLine: true,
	Run:                   cmd_run_func,
}

func init() {
	runCmd.Flags().DurationVar(&roundInterval, "interval", time.Minute, "time between verification rounds")
}

func cmd_run_func(cmd *cobra.Command, args []string) {
	n, err := buildNode()
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}
	defer n.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out.Tip(fmt.Sprintf("%s %s listening on port %d", configs.Name, configs.Version, n.ReadServicePort()))
	err = n.Run(ctx)
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}
	out.Ok("stopped")
}

func buildNode() (*node.Node, error) {
	cfg, err := buildConfigFile(configFile)
	if err != nil {
		return nil, err
	}

	n := node.New()
	n.Confiler = cfg

	baseDir := filepath.Join(cfg.ReadWorkspace(), configs.Name)
	err = utils.CreatDirIfNotExist(baseDir)
	if err != nil {
		return nil, err
	}

	logDir := filepath.Join(baseDir, configs.LogDir)
	logfiles := make(map[string]string, len(logger.LogFiles))
	for _, name := range logger.LogFiles {
		logfiles[name] = filepath.Join(logDir, name+".log")
	}
	n.Logger, err = logger.NewLogs(logfiles)
	if err != nil {
		return nil, err
	}

	dbDir := filepath.Join(baseDir, configs.DbDir)
	n.Cache, err = cache.NewCache(dbDir, 64, 0, configs.NameSpaces)
	if err != nil {
		return nil, err
	}

	n.Rep, err = reputation.NewEngine(tierTable(cfg), reputation.Config{
		Penalty:      cfg.ReadPenalty(),
		LatencyFloor: cfg.ReadLatencyFloor(),
		Steepness:    cfg.ReadLatencySteepness(),
		Timeouts: map[reputation.Category]time.Duration{
			reputation.CategoryStore:     cfg.ReadStoreTimeout(),
			reputation.CategoryChallenge: cfg.ReadChallengeTimeout(),
			reputation.CategoryRetrieve:  cfg.ReadRetrieveTimeout(),
		},
	})
	if err != nil {
		return nil, err
	}

	err = n.LoadReputation()
	if err != nil {
		return nil, err
	}
	loaded, err := n.Registry.Load(n.Cache)
	if err != nil {
		return nil, err
	}
	if loaded > 0 {
		out.Tip(fmt.Sprintf("restored %d tracked payloads", loaded))
	}

	n.Seeds = &node.EntropySeeds{Interval: roundInterval}
	return n, nil
}

func buildConfigFile(fpath string) (*confile.Confile, error) {
	cfg := confile.NewConfigFile()
	err := cfg.Parse(fpath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// tierTable converts the profile rows into the engine's table, falling
// back to the built-in table when the profile leaves it empty.
func tierTable(cfg confile.Confiler) []reputation.Tier {
	profiles := cfg.ReadTiers()
	if len(profiles) == 0 {
		return reputation.DefaultTiers()
	}
	tiers := make([]reputation.Tier, len(profiles))
	for i, p := range profiles {
		tiers[i] = reputation.Tier{
			Name:              p.Name,
			MinSuccessRate:    p.Minsuccessrate,
			MinTotalSuccesses: p.Mintotalsuccess,
			StorageLimit:      p.Storagelimit,
			RewardFactor:      p.Rewardfactor,
		}
	}
	return tiers
}
