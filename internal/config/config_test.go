package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.RequireAPI())

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "emall-pickup", cfg.ServiceName)
	assert.Equal(t, 10, cfg.PickupCodeTTLMinutes)
	assert.Equal(t, 10, cfg.PickupRewardPoints)
	assert.Equal(t, 300, cfg.QRSize)
	assert.Equal(t, 4, cfg.NotifierWorkers)
	assert.Empty(t, cfg.MilestonesFile)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("PICKUP_CODE_TTL_MINUTES", "15")
	t.Setenv("PICKUP_REWARD_POINTS", "25")
	t.Setenv("REWARD_MILESTONES_FILE", "/etc/emall/milestones.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 15, cfg.PickupCodeTTLMinutes)
	assert.Equal(t, 25, cfg.PickupRewardPoints)
	assert.Equal(t, "/etc/emall/milestones.yaml", cfg.MilestonesFile)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		cfg, err := Load()
		require.NoError(t, err, "workers run without a secret")
		assert.ErrorIs(t, cfg.RequireAPI(), ErrMissingSecret)
	})

	t.Run("non-numeric ttl", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("PICKUP_CODE_TTL_MINUTES", "ten")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("zero ttl", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("PICKUP_CODE_TTL_MINUTES", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}
