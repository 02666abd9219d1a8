package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/models"
)

const defaultAnalyticsRange = 30

type DailyCount struct {
	Date     string `json:"date"`
	Projects int    `json:"projects"`
	Views    int    `json:"views"`
	Likes    int    `json:"likes"`
}

// Analytics are the caller's engagement totals plus a per-day series of the projects
// created in the range, with their current views and likes.
type Analytics struct {
	RangeDays     int          `json:"rangeDays"`
	TotalProjects int          `json:"totalProjects"`
	TotalViews    int          `json:"totalViews"`
	TotalLikes    int          `json:"totalLikes"`
	TotalComments int          `json:"totalComments"`
	Daily         []DailyCount `json:"daily"`
}

func (m *ProjectManager) FetchAnalytics(ctx context.Context, rangeDays int) (*Analytics, error) {
	identity, err := m.requireIdentity()
	if err != nil {
		return nil, err
	}
	if rangeDays <= 0 {
		rangeDays = defaultAnalyticsRange
	}

	projects, err := m.projects.ListByOwner(ctx, identity.UID, 0)
	if err != nil {
		m.logger.Error().Err(err).Msg("error fetching analytics")
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	comments, err := m.comments.CountByProjects(ctx, ids)
	if err != nil {
		m.logger.Error().Err(err).Msg("error counting comments for analytics")
		return nil, err
	}

	return buildAnalytics(projects, comments, rangeDays, m.now()), nil
}

func buildAnalytics(projects []*models.Project, comments, rangeDays int, now time.Time) *Analytics {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(rangeDays - 1))

	daily := make([]DailyCount, rangeDays)
	index := make(map[string]int, rangeDays)
	for i := range daily {
		day := start.AddDate(0, 0, i).Format(time.DateOnly)
		daily[i].Date = day
		index[day] = i
	}

	out := &Analytics{RangeDays: rangeDays, TotalComments: comments}
	for _, p := range projects {
		likes := len(models.NormalizeLikes(p.Likes))
		out.TotalProjects++
		out.TotalViews += p.Views
		out.TotalLikes += likes

		if i, ok := index[p.CreatedAt.UTC().Format(time.DateOnly)]; ok {
			daily[i].Projects++
			daily[i].Views += p.Views
			daily[i].Likes += likes
		}
	}
	out.Daily = daily
	return out
}
