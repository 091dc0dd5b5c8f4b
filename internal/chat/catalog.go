package chat

import (
	"errors"
	"sync"

	"bqadmin/internal/analytics"
)

var (
	ErrUnknownDataset   = errors.New("dataset not in the current list")
	ErrAmbiguousDataset = errors.New("dataset id is listed in several projects, name the project")
	ErrNoDataset        = errors.New("no dataset selected")
)

// Catalog holds the most recently fetched dataset list and the current
// selection. Selections are only accepted for datasets in that list.
type Catalog struct {
	mu       sync.RWMutex
	datasets []analytics.Dataset
	selected *analytics.Dataset
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

// Replace swaps in a new list. A selection that is no longer listed is cleared.
func (c *Catalog) Replace(datasets []analytics.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.datasets = append([]analytics.Dataset(nil), datasets...)
	if c.selected != nil {
		if ds, err := c.findLocked(c.selected.DatasetID, c.selected.ProjectID); err == nil {
			c.selected = &ds
		} else {
			c.selected = nil
		}
	}
}

func (c *Catalog) Datasets() []analytics.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]analytics.Dataset(nil), c.datasets...)
}

// Select makes datasetID the active dataset. projectID may be empty when
// only one project lists the dataset id; otherwise ErrAmbiguousDataset is
// returned.
func (c *Catalog) Select(datasetID, projectID string) (analytics.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, err := c.findLocked(datasetID, projectID)
	if err != nil {
		return analytics.Dataset{}, err
	}
	c.selected = &ds
	return ds, nil
}

// Selected returns the active dataset.
func (c *Catalog) Selected() (analytics.Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return analytics.Dataset{}, ErrNoDataset
	}
	return *c.selected, nil
}

func (c *Catalog) findLocked(datasetID, projectID string) (analytics.Dataset, error) {
	var (
		found analytics.Dataset
		n     int
	)
	for _, ds := range c.datasets {
		if ds.DatasetID != datasetID || (projectID != "" && ds.ProjectID != projectID) {
			continue
		}
		if n > 0 && ds.ProjectID != found.ProjectID {
			return analytics.Dataset{}, ErrAmbiguousDataset
		}
		found = ds
		n++
	}
	if n == 0 {
		return analytics.Dataset{}, ErrUnknownDataset
	}
	return found, nil
}
