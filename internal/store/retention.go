package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// RetentionPolicy decides which datasets to keep. Input is sorted
// newest-first, as returned by ListDatasets.
type RetentionPolicy interface {
	Apply(datasets []DatasetMeta) (keep []DatasetMeta)
}

// CountPolicy keeps the N most recent datasets.
type CountPolicy struct {
	MaxCount int
}

// Apply keeps the first MaxCount datasets.
func (p *CountPolicy) Apply(datasets []DatasetMeta) []DatasetMeta {
	if len(datasets) <= p.MaxCount {
		return datasets
	}
	return datasets[:max(p.MaxCount, 0)]
}

// AgePolicy keeps datasets newer than MaxAge.
type AgePolicy struct {
	MaxAge time.Duration
}

// Apply keeps datasets whose CreatedAt is within MaxAge of now.
func (p *AgePolicy) Apply(datasets []DatasetMeta) []DatasetMeta {
	cutoff := time.Now().Add(-p.MaxAge)
	var keep []DatasetMeta
	for _, d := range datasets {
		if d.CreatedAt.After(cutoff) {
			keep = append(keep, d)
		}
	}
	return keep
}

// RowsPolicy keeps datasets until their total row count exceeds MaxTotalRows.
type RowsPolicy struct {
	MaxTotalRows int
}

// Apply keeps datasets (newest-first) until adding the next would exceed the
// limit. The newest dataset is always kept.
func (p *RowsPolicy) Apply(datasets []DatasetMeta) []DatasetMeta {
	var keep []DatasetMeta
	total := 0
	for _, d := range datasets {
		if total+d.Rows > p.MaxTotalRows && len(keep) > 0 {
			break
		}
		keep = append(keep, d)
		total += d.Rows
	}
	return keep
}

// CompositePolicy keeps a dataset if ANY sub-policy wants it (union).
type CompositePolicy struct {
	Policies []RetentionPolicy
}

// Apply returns the union of datasets kept by any sub-policy, in input order.
func (p *CompositePolicy) Apply(datasets []DatasetMeta) []DatasetMeta {
	kept := make(map[string]bool)
	for _, policy := range p.Policies {
		for _, d := range policy.Apply(datasets) {
			kept[d.ID] = true
		}
	}

	var result []DatasetMeta
	for _, d := range datasets {
		if kept[d.ID] {
			result = append(result, d)
		}
	}
	return result
}

// ApplyRetention deletes every cataloged dataset the policy does not keep and
// returns the deleted IDs. With dryRun set nothing is deleted.
func ApplyRetention(ctx context.Context, c Catalog, policy RetentionPolicy, dryRun bool) (deleted []string, err error) {
	datasets, err := c.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}

	keepSet := make(map[string]bool)
	for _, d := range policy.Apply(datasets) {
		keepSet[d.ID] = true
	}

	for _, d := range datasets {
		if keepSet[d.ID] {
			continue
		}
		if !dryRun {
			if err := c.DeleteDataset(ctx, d.ID); err != nil {
				return deleted, fmt.Errorf("removing %s: %w", d.ID, err)
			}
		}
		deleted = append(deleted, d.ID)
	}

	return deleted, nil
}

// ParseDuration parses duration strings like "30d", "2w", "720h".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix %q in %q", string(suffix), s)
	}
}
