package quickchart

import (
	"encoding/json"
	"errors"
	"fmt"

	M "retailscope/model"

	quickchartgo "github.com/henomis/quickchart-go"
	log "github.com/sirupsen/logrus"
)

type ChartConfig struct {
	Type string    `json:"type"`
	Data ChartData `json:"data"`
}
type ChartData struct {
	Labels   []interface{} `json:"labels"`
	DataSets []Dataset     `json:"datasets"`
}
type Dataset struct {
	Label       string        `json:"label"`
	Data        []interface{} `json:"data"`
	Fill        bool          `json:"fill"`
	LineTension float32       `json:"lineTension"`
}

func GetChartImageUrlForConfig(config ChartConfig) (url string, err error) {
	bytes, err := json.Marshal(config)
	if err != nil {
		log.Error("failed to marshal chart config")
		return "", errors.New("failed to get chart url from quickchart")
	}
	qc := quickchartgo.New()
	qc.Config = string(bytes)
	url, err = qc.GetUrl()
	if err != nil {
		log.Error("failed to get chart url from quickchart")
		return "", errors.New("failed to get chart url from quickchart")
	}
	return url, nil
}

// SegmentSizesChart builds a bar chart of customer count per segment.
func SegmentSizesChart(stats []M.SegmentStat) ChartConfig {
	labels := make([]interface{}, 0, len(stats))
	sizes := make([]interface{}, 0, len(stats))
	for _, stat := range stats {
		labels = append(labels, fmt.Sprintf("Segment %d", stat.Segment))
		sizes = append(sizes, stat.Size)
	}

	return ChartConfig{
		Type: "bar",
		Data: ChartData{
			Labels:   labels,
			DataSets: []Dataset{{Label: "Customers", Data: sizes}},
		},
	}
}

// MonthlyRevenueChart builds a line chart of the revenue trend.
func MonthlyRevenueChart(months []M.MonthRevenue) ChartConfig {
	labels := make([]interface{}, 0, len(months))
	revenue := make([]interface{}, 0, len(months))
	for _, month := range months {
		labels = append(labels, month.Month.Format("2006-01"))
		revenue = append(revenue, month.Revenue)
	}

	return ChartConfig{
		Type: "line",
		Data: ChartData{
			Labels:   labels,
			DataSets: []Dataset{{Label: "Revenue", Data: revenue}},
		},
	}
}

// TopProductsChart builds a horizontal bar chart of product revenue.
func TopProductsChart(products []M.ProductRevenue) ChartConfig {
	labels := make([]interface{}, 0, len(products))
	revenue := make([]interface{}, 0, len(products))
	for _, product := range products {
		labels = append(labels, product.Description)
		revenue = append(revenue, product.Revenue)
	}

	return ChartConfig{
		Type: "horizontalBar",
		Data: ChartData{
			Labels:   labels,
			DataSets: []Dataset{{Label: "Revenue", Data: revenue}},
		},
	}
}
