package main

import (
	"flag"
	"fmt"
	"os"

	C "retailscope/config"
	M "retailscope/model"
	Q "retailscope/quickchart"

	log "github.com/sirupsen/logrus"
)

// One-shot batch report over a retail transactions dataset: summary, segment
// table, top products, top customers and the monthly revenue trend.
//
// ./run_report --dataset=data/clean_retail.csv --cluster_count=4 --cluster_seed=42 --top=10
func main() {
	config, err := C.NewConfigurationFromEnv()
	if err != nil {
		log.WithError(err).Fatal("Failed to read environment configuration.")
		return
	}

	datasetPath := flag.String("dataset", config.DatasetPath, "Path to the transactions dataset (.csv or .xlsx)")
	clusterCount := flag.Int("cluster_count", config.ClusterCount, "Number of customer segments (k)")
	clusterSeed := flag.Int64("cluster_seed", config.ClusterSeed, "Seed for cluster initialization")
	referenceDate := flag.String("reference_date", config.ReferenceDate,
		"Recency anchor (RFC 3339). Defaults to the dataset's max invoice timestamp")
	top := flag.Int("top", 10, "Rows in top products / customers tables")
	withCharts := flag.Bool("charts", true, "Print quickchart image urls")
	flag.Parse()

	config.AppName = "run_report"
	config.DatasetPath = *datasetPath
	config.ClusterCount = *clusterCount
	config.ClusterSeed = *clusterSeed
	config.ReferenceDate = *referenceDate
	config.ShowProgress = true

	if err := C.Init(config); err != nil {
		if M.IsDataAccessError(err) || M.IsDataFormatError(err) || M.IsInsufficientDataError(err) {
			fmt.Fprintf(os.Stderr, "run_report: %v\n", err)
			os.Exit(1)
		}
		log.WithError(err).Fatal("Failed to initialize.")
		return
	}

	dataset := C.GetServices().Dataset
	transactions := dataset.Transactions()
	segmentation := dataset.Segmentation()
	filter := M.Filter{}

	summary := M.Summary(transactions, filter, segmentation, dataset.ValidationStats().Total())
	fmt.Printf("Dataset: %s\n", dataset.SourcePath())
	fmt.Printf("Rows: %d (dropped %d)  Customers: %d  Invoices: %d\n",
		summary.Rows, summary.DroppedRows, summary.DistinctCustomers, summary.DistinctInvoices)
	fmt.Printf("Revenue: %.2f  Returns: %d (%.2f)\n\n",
		summary.Revenue, summary.Returns, summary.ReturnedValue)

	fmt.Printf("Segmentation run %s (k=%d seed=%d ref=%s wcss=%.4f)\n",
		segmentation.RunID, segmentation.K, segmentation.Seed,
		segmentation.ReferenceDate.Format("2006-01-02"), segmentation.WCSS)
	fmt.Println("segment ; customers ; avg_recency_days ; avg_frequency ; avg_monetary")
	for _, stat := range segmentation.SegmentStats() {
		fmt.Printf("%d ; %d ; %.1f ; %.2f ; %.2f\n",
			stat.Segment, stat.Size, stat.AvgRecency, stat.AvgFrequency, stat.AvgMonetary)
	}

	fmt.Printf("\nTop %d products by revenue\n", *top)
	products := M.TopProductsByRevenue(transactions, filter, segmentation, *top)
	for _, product := range products {
		fmt.Printf("%-40s ; %.2f ; qty=%d\n", product.Description, product.Revenue, product.Quantity)
	}

	fmt.Printf("\nTop %d customers by monetary\n", *top)
	for _, customer := range M.TopCustomersByMonetary(transactions, filter, segmentation, *top) {
		fmt.Printf("%s ; %.2f ; invoices=%d\n", customer.CustomerID, customer.Monetary, customer.Invoices)
	}

	fmt.Println("\nMonthly revenue")
	months := M.MonthlyRevenue(transactions, filter, segmentation)
	for _, month := range months {
		fmt.Printf("%s ; %.2f\n", month.Month.Format("2006-01"), month.Revenue)
	}

	if *withCharts {
		fmt.Println("\nCharts")
		printChartURL("segment_sizes", Q.SegmentSizesChart(segmentation.SegmentStats()))
		printChartURL("monthly_revenue", Q.MonthlyRevenueChart(months))
		printChartURL("top_products", Q.TopProductsChart(products))
	}
}

func printChartURL(name string, config Q.ChartConfig) {
	url, err := Q.GetChartImageUrlForConfig(config)
	if err != nil {
		log.WithError(err).WithField("chart", name).Warn("Failed to build chart url.")
		return
	}
	fmt.Printf("%s: %s\n", name, url)
}
