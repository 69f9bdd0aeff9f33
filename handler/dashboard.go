package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	C "retailscope/config"
	M "retailscope/model"
	Q "retailscope/quickchart"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const defaultTopLimit = 10

type RunSegmentationRequestPayload struct {
	K    int   `json:"k"`
	Seed int64 `json:"seed"`
}

func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetDiagnosticsHandler mirrors the dashboard sidebar: shape, columns and a
// small preview of the loaded dataset.
func GetDiagnosticsHandler(c *gin.Context) {
	dataset := C.GetServices().Dataset

	c.JSON(http.StatusOK, gin.H{
		"source":       dataset.SourcePath(),
		"loaded_at":    dataset.LoadedAt(),
		"rows":         len(dataset.Transactions()),
		"columns":      dataset.Columns(),
		"dropped_rows": dataset.ValidationStats(),
		"preview":      dataset.Preview(5),
	})
}

func GetSummaryHandler(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset := C.GetServices().Dataset
	summary := M.Summary(dataset.Transactions(), filter, dataset.Segmentation(),
		dataset.ValidationStats().Total())
	c.JSON(http.StatusOK, summary)
}

func GetTopProductsHandler(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset := C.GetServices().Dataset
	products := M.TopProductsByRevenue(dataset.Transactions(), filter,
		dataset.Segmentation(), parseLimit(c))

	chartURL, err := Q.GetChartImageUrlForConfig(Q.TopProductsChart(products))
	if err != nil {
		log.WithError(err).Warn("Failed to build top products chart url.")
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "chart_url": chartURL})
}

func GetMonthlyRevenueHandler(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset := C.GetServices().Dataset
	months := M.MonthlyRevenue(dataset.Transactions(), filter, dataset.Segmentation())

	chartURL, err := Q.GetChartImageUrlForConfig(Q.MonthlyRevenueChart(months))
	if err != nil {
		log.WithError(err).Warn("Failed to build monthly revenue chart url.")
	}

	c.JSON(http.StatusOK, gin.H{"months": months, "chart_url": chartURL})
}

func GetTopCustomersHandler(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset := C.GetServices().Dataset
	customers := M.TopCustomersByMonetary(dataset.Transactions(), filter,
		dataset.Segmentation(), parseLimit(c))
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func GetCustomerHandler(c *gin.Context) {
	customerID := c.Params.ByName("customer_id")
	if customerID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid customer id."})
		return
	}

	segmentation := C.GetServices().Dataset.Segmentation()
	for i := range segmentation.Profiles {
		if segmentation.Profiles[i].CustomerID == customerID {
			c.JSON(http.StatusOK, gin.H{
				"profile": segmentation.Profiles[i],
				"segment": segmentation.SegmentByCustomer[customerID],
				"run_id":  segmentation.RunID,
			})
			return
		}
	}

	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Customer not found."})
}

func GetSegmentsHandler(c *gin.Context) {
	segmentation := C.GetServices().Dataset.Segmentation()
	stats := segmentation.SegmentStats()

	chartURL, err := Q.GetChartImageUrlForConfig(Q.SegmentSizesChart(stats))
	if err != nil {
		log.WithError(err).Warn("Failed to build segment sizes chart url.")
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":         segmentation.RunID,
		"k":              segmentation.K,
		"seed":           segmentation.Seed,
		"reference_date": segmentation.ReferenceDate,
		"computed_at":    segmentation.ComputedAt,
		"wcss":           segmentation.WCSS,
		"segments":       stats,
		"chart_url":      chartURL,
	})
}

func GetSegmentElbowHandler(c *gin.Context) {
	minK, err := strconv.Atoi(c.DefaultQuery("min_k", "2"))
	if err != nil || minK < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid min_k."})
		return
	}
	maxK, err := strconv.Atoi(c.DefaultQuery("max_k", "8"))
	if err != nil || maxK < minK {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid max_k."})
		return
	}

	dataset := C.GetServices().Dataset
	segmentation := dataset.Segmentation()
	curve, err := M.ElbowCurve(dataset.Transactions(), minK, maxK,
		segmentation.Seed, segmentation.ReferenceDate)
	if err != nil {
		if M.IsInsufficientDataError(err) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.WithError(err).Error("Elbow sweep failed.")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Elbow sweep failed."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wcss_by_k": curve})
}

// RunSegmentationHandler re-runs the segmentation with a caller supplied k
// and seed. The previous run stays served until the new one succeeds.
func RunSegmentationHandler(c *gin.Context) {
	var requestPayload RunSegmentationRequestPayload

	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		errMsg := "Run segmentation failed. Json decode failed."
		log.WithError(err).Error(errMsg)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errMsg})
		return
	}

	if requestPayload.K <= 0 {
		requestPayload.K = C.GetConfig().ClusterCount
	}
	if requestPayload.Seed == 0 {
		requestPayload.Seed = C.GetConfig().ClusterSeed
	}

	refDate, err := C.GetReferenceDateOverride()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset := C.GetServices().Dataset
	if err := dataset.Refresh(requestPayload.K, requestPayload.Seed, refDate); err != nil {
		if M.IsInsufficientDataError(err) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.WithError(err).Error("Segmentation run failed.")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Segmentation run failed."})
		return
	}

	segmentation := dataset.Segmentation()
	c.JSON(http.StatusCreated, gin.H{
		"run_id": segmentation.RunID,
		"k":      segmentation.K,
		"seed":   segmentation.Seed,
		"wcss":   segmentation.WCSS,
	})
}

func parseFilter(c *gin.Context) (M.Filter, error) {
	var filter M.Filter

	if raw := c.Query("from"); raw != "" {
		t, err := parseDateParam(raw)
		if err != nil {
			return filter, err
		}
		filter.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseDateParam(raw)
		if err != nil {
			return filter, err
		}
		filter.To = t
	}
	filter.Country = c.Query("country")

	if raw := c.Query("segments"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			segment, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return filter, errInvalidSegments
			}
			filter.Segments = append(filter.Segments, segment)
		}
	}
	return filter, nil
}

var errInvalidSegments = &paramError{"invalid segments parameter, want comma separated integers"}
var errInvalidDate = &paramError{"invalid date parameter, want RFC 3339 or YYYY-MM-DD"}

type paramError struct{ msg string }

func (e *paramError) Error() string { return e.msg }

func parseDateParam(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errInvalidDate
}

func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultTopLimit)))
	if err != nil || limit <= 0 {
		return defaultTopLimit
	}
	return limit
}
