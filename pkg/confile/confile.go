/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package confile

import (
	"os"
	"path"
	"time"

	"github.com/taomind007/storage-subnet/configs"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const DefaultProfile = "conf.yaml"
const TempleteProfile = `app:
  # workspace
  workspace: "/"
  # status api port
  port: 15301

protocol:
  # provers challenged per round
  samplesize: 5
  # provers each payload is stored on
  redundancy: 3
  # rounds per epoch
  epochlength: 360
  # rounds without a successful verification before chain state may be collected
  retentionrounds: 1024
  # recent seeds remembered per payload
  seedwindow: 64
  # chunking parameters
  minchunksize: 24
  chunkfactor: 4
  overridechunksize: 0
  # per-category timeouts in seconds
  storetimeout: 10
  challengetimeout: 20
  retrievetimeout: 50

reward:
  # base value applied to a failed round before tier scaling
  penalty: -0.05
  # lower bound of the latency scaling curve
  latencyfloor: 0.25
  # steepness of the latency scaling curve, 1/seconds
  latencysteepness: 0.5

# tier table, ordered lowest to highest; built-in table used when empty
tiers:`

type Confiler interface {
	Parse(fpath string) error
	ReadWorkspace() string
	ReadServicePort() uint16
	ReadSampleSize() int
	ReadRedundancy() int
	ReadEpochLength() uint32
	ReadRetentionRounds() uint32
	ReadSeedWindow() int
	ReadMinChunkSize() int
	ReadChunkFactor() int
	ReadOverrideChunkSize() int
	ReadStoreTimeout() time.Duration
	ReadChallengeTimeout() time.Duration
	ReadRetrieveTimeout() time.Duration
	ReadPenalty() float64
	ReadLatencyFloor() float64
	ReadLatencySteepness() float64
	ReadTiers() []TierProfile
}

type App struct {
	Workspace string `name:"workspace" toml:"workspace" yaml:"workspace"`
	Port      uint16 `name:"port" toml:"port" yaml:"port"`
}

type Protocol struct {
	Samplesize        int    `name:"samplesize" toml:"samplesize" yaml:"samplesize"`
	Redundancy        int    `name:"redundancy" toml:"redundancy" yaml:"redundancy"`
	Epochlength       uint32 `name:"epochlength" toml:"epochlength" yaml:"epochlength"`
	Retentionrounds   uint32 `name:"retentionrounds" toml:"retentionrounds" yaml:"retentionrounds"`
	Seedwindow        int    `name:"seedwindow" toml:"seedwindow" yaml:"seedwindow"`
	Minchunksize      int    `name:"minchunksize" toml:"minchunksize" yaml:"minchunksize"`
	Chunkfactor       int    `name:"chunkfactor" toml:"chunkfactor" yaml:"chunkfactor"`
	Overridechunksize int    `name:"overridechunksize" toml:"overridechunksize" yaml:"overridechunksize"`
	Storetimeout      uint32 `name:"storetimeout" toml:"storetimeout" yaml:"storetimeout"`
	Challengetimeout  uint32 `name:"challengetimeout" toml:"challengetimeout" yaml:"challengetimeout"`
	Retrievetimeout   uint32 `name:"retrievetimeout" toml:"retrievetimeout" yaml:"retrievetimeout"`
}

type Reward struct {
	Penalty          float64 `name:"penalty" toml:"penalty" yaml:"penalty"`
	Latencyfloor     float64 `name:"latencyfloor" toml:"latencyfloor" yaml:"latencyfloor"`
	Latencysteepness float64 `name:"latencysteepness" toml:"latencysteepness" yaml:"latencysteepness"`
}

// TierProfile is one row of the tier table. The table must be ordered
// lowest to highest and each row must strictly dominate the previous
// one in all four fields.
type TierProfile struct {
	Name             string  `name:"name" toml:"name" yaml:"name"`
	Minsuccessrate   float64 `name:"minsuccessrate" toml:"minsuccessrate" yaml:"minsuccessrate"`
	Mintotalsuccess  uint64  `name:"mintotalsuccess" toml:"mintotalsuccess" yaml:"mintotalsuccess"`
	Storagelimit     uint64  `name:"storagelimit" toml:"storagelimit" yaml:"storagelimit"`
	Rewardfactor     float64 `name:"rewardfactor" toml:"rewardfactor" yaml:"rewardfactor"`
}

type Confile struct {
	App      `yaml:"app"`
	Protocol `yaml:"protocol"`
	Reward   `yaml:"reward"`
	Tiers    []TierProfile `yaml:"tiers"`
}

var _ Confiler = (*Confile)(nil)

func NewConfigFile() *Confile {
	return &Confile{}
}

func (c *Confile) Parse(fpath string) error {
	fstat, err := os.Stat(fpath)
	if err != nil {
		return err
	}
	if fstat.IsDir() {
		return errors.Errorf("The '%v' is not a file", fpath)
	}
	viper.SetConfigFile(fpath)
	viper.SetConfigType(path.Ext(fpath)[1:])

	err = viper.ReadInConfig()
	if err != nil {
		return errors.Errorf("[ReadInConfig] %v", err)
	}
	err = viper.Unmarshal(c)
	if err != nil {
		return errors.Errorf("[Unmarshal] %v", err)
	}

	if c.Port != 0 && c.Port < 1024 {
		return errors.Errorf("prohibit the use of system reserved port: %v", c.Port)
	}
	if c.Port == 0 {
		c.Port = configs.DefaultServicePort
	}

	if c.Samplesize <= 0 {
		c.Samplesize = configs.DefaultSampleSize
	}
	if c.Redundancy <= 0 {
		c.Redundancy = configs.DefaultStoreRedundancy
	}
	if c.Epochlength == 0 {
		c.Epochlength = configs.DefaultEpochLength
	}
	if c.Retentionrounds == 0 {
		c.Retentionrounds = configs.DefaultRetentionRounds
	}
	if c.Seedwindow <= 0 {
		c.Seedwindow = configs.DefaultSeedWindow
	}
	if c.Minchunksize <= 0 {
		c.Minchunksize = configs.DefaultMinChunkSize
	}
	if c.Chunkfactor <= 0 {
		c.Chunkfactor = configs.DefaultChunkFactor
	}
	if c.Overridechunksize < 0 {
		return errors.New("'overridechunksize' can not be negative")
	}
	if c.Penalty >= 0 {
		c.Penalty = -0.05
	}
	if c.Latencyfloor <= 0 || c.Latencyfloor >= 1 {
		c.Latencyfloor = 0.25
	}
	if c.Latencysteepness <= 0 {
		c.Latencysteepness = 0.5
	}

	err = checkTiers(c.Tiers)
	if err != nil {
		return err
	}

	fstat, err = os.Stat(c.Workspace)
	if err != nil {
		err = os.MkdirAll(c.Workspace, configs.DirMode)
		if err != nil {
			return err
		}
	} else {
		if !fstat.IsDir() {
			return errors.Errorf("the '%v' is not a directory", c.Workspace)
		}
	}

	return nil
}

// checkTiers enforces the table ordering invariant: every row strictly
// dominates the previous one in rate, total-success gate, storage
// limit and reward factor.
func checkTiers(tiers []TierProfile) error {
	for i := 1; i < len(tiers); i++ {
		prev, curr := tiers[i-1], tiers[i]
		if curr.Minsuccessrate <= prev.Minsuccessrate ||
			curr.Mintotalsuccess <= prev.Mintotalsuccess ||
			curr.Storagelimit <= prev.Storagelimit ||
			curr.Rewardfactor <= prev.Rewardfactor {
			return errors.Errorf("tier '%s' does not dominate tier '%s'", curr.Name, prev.Name)
		}
	}
	return nil
}

func (c *Confile) SetWorkspace(workspace string) error {
	fstat, err := os.Stat(workspace)
	if err != nil {
		err = os.MkdirAll(workspace, configs.DirMode)
		if err != nil {
			return err
		}
	} else {
		if !fstat.IsDir() {
			return errors.Errorf("%s is not a directory", workspace)
		}
	}
	c.Workspace = workspace
	return nil
}

func (c *Confile) SetServicePort(port uint16) error {
	if port < 1024 {
		return errors.Errorf("Prohibit the use of system reserved port: %v", port)
	}
	c.Port = port
	return nil
}

/////////////////////////////////////////////

func (c *Confile) ReadWorkspace() string {
	return c.Workspace
}

func (c *Confile) ReadServicePort() uint16 {
	return c.Port
}

func (c *Confile) ReadSampleSize() int {
	return c.Samplesize
}

func (c *Confile) ReadRedundancy() int {
	return c.Redundancy
}

func (c *Confile) ReadEpochLength() uint32 {
	return c.Epochlength
}

func (c *Confile) ReadRetentionRounds() uint32 {
	return c.Retentionrounds
}

func (c *Confile) ReadSeedWindow() int {
	return c.Seedwindow
}

func (c *Confile) ReadMinChunkSize() int {
	return c.Minchunksize
}

func (c *Confile) ReadChunkFactor() int {
	return c.Chunkfactor
}

func (c *Confile) ReadOverrideChunkSize() int {
	return c.Overridechunksize
}

func (c *Confile) ReadStoreTimeout() time.Duration {
	if c.Storetimeout == 0 {
		return configs.DefaultStoreTimeout
	}
	return time.Duration(c.Storetimeout) * time.Second
}

func (c *Confile) ReadChallengeTimeout() time.Duration {
	if c.Challengetimeout == 0 {
		return configs.DefaultChallengeTimeout
	}
	return time.Duration(c.Challengetimeout) * time.Second
}

func (c *Confile) ReadRetrieveTimeout() time.Duration {
	if c.Retrievetimeout == 0 {
		return configs.DefaultRetrieveTimeout
	}
	return time.Duration(c.Retrievetimeout) * time.Second
}

func (c *Confile) ReadPenalty() float64 {
	return c.Penalty
}

func (c *Confile) ReadLatencyFloor() float64 {
	return c.Latencyfloor
}

func (c *Confile) ReadLatencySteepness() float64 {
	return c.Latencysteepness
}

func (c *Confile) ReadTiers() []TierProfile {
	return c.Tiers
}
