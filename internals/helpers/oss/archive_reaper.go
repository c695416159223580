package helper

import (
	"context"
	"log"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/robfig/cron/v3"
)

// StartArchiveReaperCron prunes archived import files older than retention.
func StartArchiveReaperCron(s *OSSService, schedule string, retention time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()
		if _, err := s.Prune(ctx, time.Now().Add(-retention), false); err != nil {
			log.Printf("[ARCHIVE-REAPER] error: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[ARCHIVE-REAPER] started schedule=%q prefix=%q retention=%s", schedule, s.Prefix, retention)
	c.Start()
	return c, nil
}

// Prune deletes objects under the service prefix last modified before threshold.
func (s *OSSService) Prune(ctx context.Context, threshold time.Time, dryRun bool) (int, error) {
	prefix := s.Prefix
	if prefix != "" {
		prefix += "/"
	}
	log.Printf("[ARCHIVE-REAPER] scanning prefix=%q threshold=%s dry=%v", prefix, threshold.Format(time.RFC3339), dryRun)

	marker := oss.Marker("")
	var keys []string
	total := 0
	for {
		lor, err := s.Bucket.ListObjects(oss.Prefix(prefix), marker, oss.MaxKeys(1000), oss.WithContext(ctx))
		if err != nil {
			return 0, err
		}
		for _, obj := range lor.Objects {
			total++
			if obj.Key != "" && obj.LastModified.Before(threshold) {
				keys = append(keys, obj.Key)
			}
		}
		if !lor.IsTruncated {
			break
		}
		marker = oss.Marker(lor.NextMarker)
	}

	if len(keys) == 0 || dryRun {
		log.Printf("[ARCHIVE-REAPER] candidates=%d scanned=%d dry=%v", len(keys), total, dryRun)
		return 0, nil
	}

	deleted := 0
	for i := 0; i < len(keys); i += 1000 {
		end := i + 1000
		if end > len(keys) {
			end = len(keys)
		}
		if err := s.DeleteObjects(ctx, keys[i:end]); err != nil {
			log.Printf("[ARCHIVE-REAPER] delete batch %d-%d: %v", i, end, err)
			continue
		}
		deleted += end - i
	}
	log.Printf("[ARCHIVE-REAPER] deleted %d objects (scanned=%d)", deleted, total)
	return deleted, nil
}
