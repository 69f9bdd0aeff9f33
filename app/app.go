package main

import (
	"flag"
	"strconv"

	C "retailscope/config"
	H "retailscope/handler"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ./app --env=development --port=8080 --dataset=data/clean_retail.csv --cluster_count=4 --cluster_seed=42
func main() {
	config, err := C.NewConfigurationFromEnv()
	if err != nil {
		log.WithError(err).Fatal("Failed to read environment configuration.")
		return
	}

	env := flag.String("env", config.Env, "")
	port := flag.Int("port", config.Port, "")
	datasetPath := flag.String("dataset", config.DatasetPath, "Path to the transactions dataset (.csv or .xlsx)")
	clusterCount := flag.Int("cluster_count", config.ClusterCount, "Number of customer segments (k)")
	clusterSeed := flag.Int64("cluster_seed", config.ClusterSeed, "Seed for cluster initialization")
	referenceDate := flag.String("reference_date", config.ReferenceDate,
		"Recency anchor (RFC 3339). Defaults to the dataset's max invoice timestamp")
	flag.Parse()

	config.AppName = "dashboard_server"
	config.Env = *env
	config.Port = *port
	config.DatasetPath = *datasetPath
	config.ClusterCount = *clusterCount
	config.ClusterSeed = *clusterSeed
	config.ReferenceDate = *referenceDate

	// Initialize configs and dataset.
	if err := C.Init(config); err != nil {
		log.WithError(err).Fatal("Failed to initialize.")
		return
	}

	if !C.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	H.InitMiddlewares(r)
	H.InitRoutes(r)
	r.Run(":" + strconv.Itoa(C.GetConfig().Port))
}
