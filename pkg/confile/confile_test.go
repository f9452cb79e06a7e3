package confile

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	confile := "./conf_test.yaml"
	c := NewConfigFile()
	err := c.Parse(confile)
	assert.NoError(t, err)
	defer os.RemoveAll("./testws")

	assert.Equal(t, 5, c.ReadSampleSize())
	assert.Equal(t, 3, len(c.ReadTiers()))
	assert.Equal(t, -0.05, c.ReadPenalty())
}

func TestCheckTiers(t *testing.T) {
	tiers := []TierProfile{
		{Name: "Bronze", Minsuccessrate: 0, Mintotalsuccess: 0, Storagelimit: 1, Rewardfactor: 0.444},
		{Name: "Silver", Minsuccessrate: 0.95, Mintotalsuccess: 1000, Storagelimit: 10, Rewardfactor: 0.555},
	}
	assert.NoError(t, checkTiers(tiers))

	// a higher tier paying less than the one below it is rejected
	tiers[1].Rewardfactor = 0.4
	assert.Error(t, checkTiers(tiers))
}
