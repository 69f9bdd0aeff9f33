package config

import (
	"fmt"
	"strings"
	"time"

	"retailscope/model"
	"retailscope/store"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

const DEVELOPMENT = "development"

const envPrefix = "retailscope"

// Configuration is the full run configuration. Defaults come from the
// environment (RETAILSCOPE_* variables); mains override with flags.
type Configuration struct {
	AppName      string `ignored:"true"`
	Env          string `envconfig:"env" default:"development"`
	Port         int    `envconfig:"port" default:"8080"`
	DatasetPath  string `envconfig:"dataset" default:"data/clean_retail.csv"`
	ClusterCount int    `envconfig:"cluster_count" default:"4"`
	ClusterSeed  int64  `envconfig:"cluster_seed" default:"42"`
	// ReferenceDate overrides the recency anchor (RFC 3339 date). Empty
	// means the maximum invoice timestamp of the dataset.
	ReferenceDate string `envconfig:"reference_date" default:""`

	// ShowProgress renders an ingest progress bar. CLI only.
	ShowProgress bool `ignored:"true"`
}

// Services holds shared handles built at Init time. The dataset is the only
// stateful service; there is no database or cache by design of the tool.
type Services struct {
	Dataset *store.Dataset
}

var configuration *Configuration = nil
var services *Services = nil
var initiated bool = false

// NewConfigurationFromEnv returns a Configuration seeded from RETAILSCOPE_*
// environment variables, for mains to layer flags on top.
func NewConfigurationFromEnv() (*Configuration, error) {
	var config Configuration
	if err := envconfig.Process(envPrefix, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func initLogging() {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	if IsDevelopment() {
		log.SetLevel(log.DebugLevel)
	}
}

func initServices() error {
	refDate, err := GetReferenceDateOverride()
	if err != nil {
		return err
	}

	dataset, err := store.NewDataset(configuration.DatasetPath,
		store.LoadOptions{ShowProgress: configuration.ShowProgress},
		configuration.ClusterCount, configuration.ClusterSeed, refDate)
	if err != nil {
		log.WithError(err).WithField("dataset", configuration.DatasetPath).Error("Failed dataset initialization")
		return err
	}

	log.WithFields(log.Fields{
		"dataset":   configuration.DatasetPath,
		"rows":      len(dataset.Transactions()),
		"dropped":   dataset.ValidationStats().Total(),
		"customers": len(dataset.Segmentation().Profiles),
		"k":         configuration.ClusterCount,
	}).Info("Dataset service initialized")

	services = &Services{Dataset: dataset}
	return nil
}

// Init wires logging and loads the dataset. Must run once before anything
// reads GetConfig or GetServices.
func Init(config *Configuration) error {
	if initiated {
		return fmt.Errorf("config already initialized")
	}
	configuration = config

	if configuration.ClusterCount <= 0 {
		configuration.ClusterCount = model.DefaultClusterCount
	}

	initLogging()

	if err := initServices(); err != nil {
		return err
	}

	initiated = true
	return nil
}

func GetConfig() *Configuration {
	return configuration
}

func GetServices() *Services {
	return services
}

func IsDevelopment() bool {
	return strings.Compare(configuration.Env, DEVELOPMENT) == 0
}

// GetReferenceDateOverride parses the configured reference date. Zero time
// means no override.
func GetReferenceDateOverride() (time.Time, error) {
	raw := configuration.ReferenceDate
	if raw == "" {
		return time.Time{}, nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid reference_date %q, want RFC 3339", raw)
}
