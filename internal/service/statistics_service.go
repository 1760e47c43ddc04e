package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/signalement-service/internal/domain"
	"github.com/spec-kit/signalement-service/internal/repository"
)

// StatusStat is one per-status slice of the dashboard.
type StatusStat struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TreatmentStat carries per-report treatment timing derived from the audit
// trail.
type TreatmentStat struct {
	SignalementID int64      `json:"signalementId"`
	Status        string     `json:"status"`
	StartOfWork   *time.Time `json:"startOfWork,omitempty"`
	Completion    *time.Time `json:"completion,omitempty"`
	TreatmentDays *float64   `json:"treatmentDays,omitempty"`
}

// GlobalStatistics is the dashboard payload.
type GlobalStatistics struct {
	TotalPoints          int             `json:"totalPoints"`
	TotalSurfaceArea     float64         `json:"totalSurfaceArea"`
	TotalBudget          float64         `json:"totalBudget"`
	ProgressPercent      float64         `json:"progressPercent"`
	CountNouveau         int             `json:"countNouveau"`
	CountEnCours         int             `json:"countEnCours"`
	CountTermine         int             `json:"countTermine"`
	StatusStats          []StatusStat    `json:"statusStats"`
	TreatmentStats       []TreatmentStat `json:"treatmentStats"`
	AverageTreatmentDays float64         `json:"averageTreatmentDays"`
}

// StatisticsService derives dashboard figures by replaying the status audit
// trail. Read-only; any internal failure degrades to an all-zero payload so
// the dashboard always renders.
type StatisticsService struct {
	signalements repository.SignalementRepository
	statuses     repository.StatusRepository
	entries      repository.StatusEntryRepository
	logger       *zap.Logger
}

// NewStatisticsService constructs the service.
func NewStatisticsService(signalements repository.SignalementRepository, statuses repository.StatusRepository, entries repository.StatusEntryRepository, logger *zap.Logger) *StatisticsService {
	return &StatisticsService{
		signalements: signalements,
		statuses:     statuses,
		entries:      entries,
		logger:       logger,
	}
}

// Global computes the dashboard statistics.
func (s *StatisticsService) Global(ctx context.Context) *GlobalStatistics {
	stats, err := s.compute(ctx)
	if err != nil {
		s.logger.Error("statistics degraded to zero payload", zap.Error(err))
		return emptyStatistics()
	}
	return stats
}

func (s *StatisticsService) compute(ctx context.Context) (*GlobalStatistics, error) {
	sigs, err := s.signalements.List(ctx)
	if err != nil {
		return nil, err
	}

	scores := s.seededScores(ctx)
	stats := emptyStatistics()
	stats.TotalPoints = len(sigs)

	statusCounts := map[string]int{}
	progressSum := 0.0
	for i := range sigs {
		sig := &sigs[i]
		if sig.SurfaceArea != nil {
			stats.TotalSurfaceArea += *sig.SurfaceArea
		}
		if sig.Budget != nil {
			stats.TotalBudget += *sig.Budget
		}
		statusCounts[sig.StatusName]++
		progressSum += progressScore(sig.StatusID, sig.StatusName, scores)
	}

	stats.CountNouveau = statusCounts[domain.StatusNouveau]
	stats.CountEnCours = statusCounts[domain.StatusEnCours]
	stats.CountTermine = statusCounts[domain.StatusTermine]
	if stats.TotalPoints > 0 {
		stats.ProgressPercent = progressSum / float64(stats.TotalPoints)
	}

	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, status := range statuses {
		count := statusCounts[status.Name]
		percentage := 0.0
		if stats.TotalPoints > 0 {
			percentage = float64(count) / float64(stats.TotalPoints) * 100
		}
		stats.StatusStats = append(stats.StatusStats, StatusStat{
			Status:     status.Name,
			Count:      count,
			Percentage: percentage,
		})
	}

	completedSum := 0.0
	completedCount := 0
	for i := range sigs {
		treatment, err := s.treatmentFor(ctx, &sigs[i])
		if err != nil {
			return nil, err
		}
		stats.TreatmentStats = append(stats.TreatmentStats, treatment)
		if treatment.Completion != nil && treatment.TreatmentDays != nil {
			completedSum += *treatment.TreatmentDays
			completedCount++
		}
	}
	if completedCount > 0 {
		stats.AverageTreatmentDays = completedSum / float64(completedCount)
	}

	return stats, nil
}

// treatmentFor derives start-of-work and completion from the earliest
// in-progress and done entries of the report's history. Days run to now when
// work started but never completed.
func (s *StatisticsService) treatmentFor(ctx context.Context, sig *domain.Signalement) (TreatmentStat, error) {
	entries, err := s.entries.ListBySignalement(ctx, sig.ID)
	if err != nil {
		return TreatmentStat{}, err
	}

	treatment := TreatmentStat{SignalementID: sig.ID, Status: sig.StatusName}
	for i := range entries {
		entry := &entries[i]
		score := nameScore(entry.StatusName)
		if score == 50 && treatment.StartOfWork == nil {
			t := entry.DateStatus
			treatment.StartOfWork = &t
		}
		if score == 100 && treatment.Completion == nil {
			t := entry.DateStatus
			treatment.Completion = &t
		}
	}

	if treatment.StartOfWork != nil {
		end := time.Now()
		if treatment.Completion != nil {
			end = *treatment.Completion
		}
		days := end.Sub(*treatment.StartOfWork).Hours() / 24
		treatment.TreatmentDays = &days
	}
	return treatment, nil
}

// seededScores maps the three seeded status ids to their progress score.
// Best-effort: an unknown seeded name just falls through to name matching.
func (s *StatisticsService) seededScores(ctx context.Context) map[int64]float64 {
	scores := map[int64]float64{}
	for name, score := range map[string]float64{
		domain.StatusNouveau: 0,
		domain.StatusEnCours: 50,
		domain.StatusTermine: 100,
	} {
		if status, err := s.statuses.GetByName(ctx, name); err == nil {
			scores[status.ID] = score
		}
	}
	return scores
}

// progressScore prefers the seeded identity mapping and falls back to
// substring matching for renamed or extra statuses. Unrecognized names
// score 0.
func progressScore(statusID int64, statusName string, seeded map[int64]float64) float64 {
	if score, ok := seeded[statusID]; ok {
		return score
	}
	return nameScore(statusName)
}

func nameScore(statusName string) float64 {
	name := strings.ToUpper(statusName)
	switch {
	case strings.Contains(name, "TERMINE") || strings.Contains(name, "DONE"):
		return 100
	case strings.Contains(name, "COURS") || strings.Contains(name, "PROGRESS"):
		return 50
	default:
		return 0
	}
}

func emptyStatistics() *GlobalStatistics {
	return &GlobalStatistics{
		StatusStats:    []StatusStat{},
		TreatmentStats: []TreatmentStat{},
	}
}
