package store

import (
	"sync"
	"time"

	M "retailscope/model"
)

// Dataset is the in-memory state of one loaded dataset plus the segmentation
// of the current run. Reads from handlers take the read lock; Refresh swaps
// the segmentation under the write lock.
type Dataset struct {
	mu sync.RWMutex

	sourcePath   string
	loadedAt     time.Time
	columns      []string
	transactions []M.Transaction
	stats        M.RowValidationStats
	segmentation *M.SegmentationResult
}

// NewDataset loads the file at path and runs the initial segmentation.
func NewDataset(path string, opts LoadOptions, k int, seed int64, refOverride time.Time) (*Dataset, error) {
	loaded, err := Load(path, opts)
	if err != nil {
		return nil, err
	}

	dataset := &Dataset{
		sourcePath:   path,
		loadedAt:     time.Now().UTC(),
		columns:      loaded.Columns,
		transactions: loaded.Transactions,
		stats:        loaded.Stats,
	}

	if err := dataset.Refresh(k, seed, refOverride); err != nil {
		return nil, err
	}
	return dataset, nil
}

// Refresh recomputes profiles and segmentation in place. The previous result
// stays visible until the new one is ready.
func (d *Dataset) Refresh(k int, seed int64, refOverride time.Time) error {
	d.mu.RLock()
	transactions := d.transactions
	d.mu.RUnlock()

	segmentation, err := M.RunSegmentation(transactions, k, seed, refOverride)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.segmentation = segmentation
	d.mu.Unlock()
	return nil
}

// Transactions returns the loaded transaction slice. Callers must treat it
// as read-only; the slice is never mutated after load.
func (d *Dataset) Transactions() []M.Transaction {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.transactions
}

func (d *Dataset) Segmentation() *M.SegmentationResult {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.segmentation
}

func (d *Dataset) ValidationStats() M.RowValidationStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

func (d *Dataset) SourcePath() string {
	return d.sourcePath
}

func (d *Dataset) LoadedAt() time.Time {
	return d.loadedAt
}

func (d *Dataset) Columns() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.columns
}

// Preview returns the first n transactions, for the diagnostics view.
func (d *Dataset) Preview(n int) []M.Transaction {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n > len(d.transactions) {
		n = len(d.transactions)
	}
	preview := make([]M.Transaction, n)
	copy(preview, d.transactions[:n])
	return preview
}
