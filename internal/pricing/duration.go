package pricing

import (
	"time"

	"laundry/internal/models"
)

// WorstCase reduces durations to their maximum, comparing days first and
// hours only when days are equal. Hours are never summed across services.
func WorstCase(durations []models.Duration) models.Duration {
	var worst models.Duration
	for _, d := range durations {
		if d.Days > worst.Days || (d.Days == worst.Days && d.Hours > worst.Hours) {
			worst = d
		}
	}
	return worst
}

// ToDuration converts a days/hours pair into a time.Duration.
func ToDuration(d models.Duration) time.Duration {
	return time.Duration(d.Days)*24*time.Hour + time.Duration(d.Hours)*time.Hour
}

// EstimatedFinish is createdAt plus the worst-case duration of the services.
func EstimatedFinish(createdAt time.Time, services []models.Service) time.Time {
	durations := make([]models.Duration, 0, len(services))
	for _, s := range services {
		durations = append(durations, s.EstimatedDuration)
	}
	return createdAt.Add(ToDuration(WorstCase(durations)))
}
