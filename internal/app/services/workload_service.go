package services

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/app/models/dto"
)

// AssignedSessionLister lists teacher-assigned sessions for aggregation.
type AssignedSessionLister interface {
	ListAssigned(ctx context.Context, teacherID *int64, from, to *time.Time) ([]*models.Session, error)
}

// UserBatchLookup resolves a set of user ids in one round trip.
type UserBatchLookup interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
}

// WorkloadService aggregates teacher workload and payroll estimates.
type WorkloadService struct {
	sessions AssignedSessionLister
	users    UserBatchLookup
	logger   zerolog.Logger
}

// NewWorkloadService creates a new WorkloadService
func NewWorkloadService(sessions AssignedSessionLister, users UserBatchLookup, logger zerolog.Logger) *WorkloadService {
	return &WorkloadService{sessions: sessions, users: users, logger: logger}
}

type workloadAgg struct {
	sessionCount int64
	totalMinutes int64
}

// Report aggregates assigned sessions per teacher inside an optional window.
// Money stays in integer cents throughout; the decimal amount is derived only
// when the row is rendered. An hourly rate wins over a per-session rate when
// a teacher has both.
func (s *WorkloadService) Report(ctx context.Context, teacherID *int64, from, to *time.Time) (*dto.WorkloadResponse, error) {
	sessions, err := s.sessions.ListAssigned(ctx, teacherID, from, to)
	if err != nil {
		return nil, err
	}

	aggs := make(map[int64]*workloadAgg)
	for _, session := range sessions {
		if session.TeacherID == nil {
			continue
		}
		agg := aggs[*session.TeacherID]
		if agg == nil {
			agg = &workloadAgg{}
			aggs[*session.TeacherID] = agg
		}
		agg.sessionCount++
		agg.totalMinutes += session.Minutes()
	}

	ids := make([]int64, 0, len(aggs))
	for id := range aggs {
		ids = append(ids, id)
	}
	teachers, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.TeacherWorkloadRow, 0, len(aggs))
	for id, agg := range aggs {
		teacher := teachers[id]
		if teacher == nil {
			s.logger.Warn().Int64("teacherId", id).Msg("Assigned teacher no longer exists, skipping")
			continue
		}

		row := dto.TeacherWorkloadRow{
			TeacherID:    id,
			Email:        teacher.Email,
			Name:         teacher.Name,
			SessionCount: agg.sessionCount,
			TotalMinutes: agg.totalMinutes,
			Method:       dto.WorkloadMethodNone,
		}
		switch {
		case teacher.RateHourlyCents != nil && *teacher.RateHourlyCents > 0:
			row.Method = dto.WorkloadMethodHourly
			row.AmountCents = agg.totalMinutes * int64(*teacher.RateHourlyCents) / 60
		case teacher.RatePerSessionCents != nil && *teacher.RatePerSessionCents > 0:
			row.Method = dto.WorkloadMethodPerSession
			row.AmountCents = agg.sessionCount * int64(*teacher.RatePerSessionCents)
		}
		row.Amount = float64(row.AmountCents) / 100

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Email != rows[j].Email {
			return rows[i].Email < rows[j].Email
		}
		return rows[i].TeacherID < rows[j].TeacherID
	})

	return &dto.WorkloadResponse{Teachers: rows}, nil
}
