package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigurationFromEnvDefaults(t *testing.T) {
	config, err := NewConfigurationFromEnv()
	assert.Nil(t, err)
	assert.Equal(t, DEVELOPMENT, config.Env)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, 4, config.ClusterCount)
	assert.Equal(t, int64(42), config.ClusterSeed)
	assert.Equal(t, "data/clean_retail.csv", config.DatasetPath)
	assert.Equal(t, "", config.ReferenceDate)
}

func TestNewConfigurationFromEnvOverrides(t *testing.T) {
	t.Setenv("RETAILSCOPE_CLUSTER_COUNT", "6")
	t.Setenv("RETAILSCOPE_DATASET", "/tmp/other.xlsx")
	t.Setenv("RETAILSCOPE_ENV", "production")

	config, err := NewConfigurationFromEnv()
	assert.Nil(t, err)
	assert.Equal(t, 6, config.ClusterCount)
	assert.Equal(t, "/tmp/other.xlsx", config.DatasetPath)
	assert.Equal(t, "production", config.Env)
}

func TestNewConfigurationFromEnvInvalid(t *testing.T) {
	t.Setenv("RETAILSCOPE_CLUSTER_COUNT", "four")

	config, err := NewConfigurationFromEnv()
	assert.Nil(t, config)
	assert.NotNil(t, err)
}
