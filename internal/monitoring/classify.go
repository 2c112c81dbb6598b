package monitoring

import (
	"sort"
	"time"

	"github.com/FabricioMatosSIlva/awswatch-go/internal/models"
	"github.com/FabricioMatosSIlva/awswatch-go/pkg/awsclient"
)

// expiredGraceSeconds is how long past its expiry an item stays in the
// "warning" band before it is reported as fully expired.
const expiredGraceSeconds = 10

const expiryTimeLayout = "2006-01-02 15:04:05"

// ClassifyWorkItem derives the display status for one work-pool record.
// Pure: the result depends only on the record and the supplied clock time.
func ClassifyWorkItem(rec awsclient.WorkPoolRecord, now time.Time) models.WorkPoolItem {
	timeDiff := rec.ExpiresAt - now.Unix()

	var status models.ItemStatus
	switch {
	case timeDiff > 0:
		status = models.ItemStatusActive
	case timeDiff >= -expiredGraceSeconds:
		status = models.ItemStatusWarning
	default:
		status = models.ItemStatusExpired
	}

	return models.WorkPoolItem{
		EntityName:         rec.EntityName,
		UID:                rec.UID,
		ExpiresAt:          rec.ExpiresAt,
		ExpiresAtFormatted: time.Unix(rec.ExpiresAt, 0).UTC().Format(expiryTimeLayout),
		TimeRemaining:      timeDiff,
		Status:             status,
	}
}

// BuildWorkPoolSnapshot classifies every record and publishes them sorted
// ascending by expiry, soonest-expiring first. The ordering is part of the
// snapshot contract; readers never re-sort.
func BuildWorkPoolSnapshot(recs []awsclient.WorkPoolRecord, now time.Time) models.WorkPoolSnapshot {
	items := make([]models.WorkPoolItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, ClassifyWorkItem(rec, now))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ExpiresAt < items[j].ExpiresAt
	})

	return models.WorkPoolSnapshot{Items: items, CapturedAt: now}
}

// BuildQueueStats derives the published counters for one queue. Queues carry
// no status enum; severity thresholds on the total are presentation policy.
func BuildQueueStats(attrs awsclient.QueueAttributes) models.QueueStats {
	return models.QueueStats{
		Name:              attrs.Target.Name,
		URL:               attrs.Target.URL,
		MessagesAvailable: attrs.Available,
		MessagesInFlight:  attrs.NotVisible,
		MessagesDelayed:   attrs.Delayed,
		TotalMessages:     attrs.Available + attrs.NotVisible + attrs.Delayed,
		CreatedAt:         attrs.CreatedAt,
		LastModified:      attrs.LastModified,
	}
}
