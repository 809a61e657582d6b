package processor

import "github.com/pauljones0/reddit-rotator/internal/models"

// Chunk partitions records into contiguous sets of size. The last set holds
// the remainder. A non-positive size or no records yields nil.
func Chunk(records []models.PostRecord, size int) []models.PostSet {
	if size <= 0 || len(records) == 0 {
		return nil
	}
	sets := make([]models.PostSet, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		set := make(models.PostSet, end-start)
		copy(set, records[start:end])
		sets = append(sets, set)
	}
	return sets
}
