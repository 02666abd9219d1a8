package services

import (
	"math"
	"time"

	"github.com/rpupo63/projecthub-backend/models"
)

const statsWindow = 30 * 24 * time.Hour

// UserStats are the dashboard counters of one owner. A nil increase means there was
// nothing to compare.
type UserStats struct {
	TotalProjects int `json:"totalProjects"`
	TotalViews    int `json:"totalViews"`
	TotalLikes    int `json:"totalLikes"`

	ProjectsIncrease *int `json:"projectsIncrease"`
	ViewsIncrease    *int `json:"viewsIncrease"`
	LikesIncrease    *int `json:"likesIncrease"`

	ProjectsProgress float64 `json:"projectsProgress"`
	ViewsProgress    float64 `json:"viewsProgress"`
	LikesProgress    float64 `json:"likesProgress"`
}

// CalculateIncrease returns the percentage change from previous to current, 100 when
// there is no baseline but some activity, and nil when both are zero.
func CalculateIncrease(current, previous int) *int {
	if previous == 0 {
		if current == 0 {
			return nil
		}
		v := 100
		return &v
	}
	pct := float64(current-previous) / float64(previous) * 100
	v := int(math.Floor(pct + 0.5))
	return &v
}

// CalculateProgress returns min(100, current/max(1, previous)*50).
func CalculateProgress(current, previous int) float64 {
	return math.Min(100, float64(current)/float64(max(1, previous))*50)
}

// ComputeStats aggregates projects; the baseline is the projects created at or before
// now minus 30 days.
func ComputeStats(projects []*models.Project, now time.Time) UserStats {
	cutoff := now.Add(-statsWindow)

	var total, base struct{ projects, views, likes int }
	for _, p := range projects {
		likes := len(models.NormalizeLikes(p.Likes))
		total.projects++
		total.views += p.Views
		total.likes += likes
		if !p.CreatedAt.After(cutoff) {
			base.projects++
			base.views += p.Views
			base.likes += likes
		}
	}

	return UserStats{
		TotalProjects:    total.projects,
		TotalViews:       total.views,
		TotalLikes:       total.likes,
		ProjectsIncrease: CalculateIncrease(total.projects, base.projects),
		ViewsIncrease:    CalculateIncrease(total.views, base.views),
		LikesIncrease:    CalculateIncrease(total.likes, base.likes),
		ProjectsProgress: CalculateProgress(total.projects, base.projects),
		ViewsProgress:    CalculateProgress(total.views, base.views),
		LikesProgress:    CalculateProgress(total.likes, base.likes),
	}
}
