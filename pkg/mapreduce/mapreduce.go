package mapreduce

import "github.com/dtnitsch/spotistats/models"

// Map folds records into a per-key total. A record whose key reports ok=false is skipped.
func Map(records []models.SongRecord, key func(models.SongRecord) (string, bool), value func(models.SongRecord) float64) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range records {
		k, ok := key(r)
		if !ok {
			continue
		}
		out[k] += value(r)
	}
	return out
}
