package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/tracklite/tracklite/internal/apperrors"
	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/store"
	"github.com/tracklite/tracklite/internal/timeutil"
)

// Report grouping dimensions.
const (
	GroupByUser     = "user"
	GroupByWorkItem = "work_item"
	GroupByProject  = "project"
	GroupByModule   = "module"
)

const dateLayout = "2006-01-02"

// ReportParams narrows and shapes a report query. FromDate/ToDate are
// YYYY-MM-DD strings compared inclusively against each entry's creation
// date.
type ReportParams struct {
	Workspace string
	GroupBy   string
	FromDate  string
	ToDate    string
	ProjectID string
	UserID    string
}

// ReportRow is one aggregate bucket. Which descriptive fields are set
// depends on the grouping dimension.
type ReportRow struct {
	UserID            string `json:"user_id,omitempty"`
	UserEmail         string `json:"user_email,omitempty"`
	UserDisplayName   string `json:"user_display_name,omitempty"`
	IssueID           string `json:"issue_id,omitempty"`
	IssueName         string `json:"issue_name,omitempty"`
	IssueSequenceID   int64  `json:"issue_sequence_id,omitempty"`
	ProjectID         string `json:"project_id,omitempty"`
	ProjectIdentifier string `json:"project_identifier,omitempty"`
	ProjectName       string `json:"project_name,omitempty"`
	ModuleID          string `json:"module_id,omitempty"`
	ModuleName        string `json:"module_name,omitempty"`

	TotalSeconds int64   `json:"total_seconds"`
	TotalHours   float64 `json:"total_hours"`
	EntryCount   int64   `json:"entry_count"`
}

// Report is the aggregated result for one grouping dimension.
type Report struct {
	GroupBy  string      `json:"group_by"`
	FromDate string      `json:"from_date"`
	ToDate   string      `json:"to_date"`
	Data     []ReportRow `json:"data"`
}

// UserTotal is a per-user rollup inside an issue summary.
type UserTotal struct {
	UserID          string  `json:"user_id"`
	UserEmail       string  `json:"user_email"`
	UserDisplayName string  `json:"user_display_name"`
	TotalSeconds    int64   `json:"total_seconds"`
	TotalHours      float64 `json:"total_hours"`
	EntryCount      int64   `json:"entry_count"`
}

// IssueSummary totals the completed time on one issue.
type IssueSummary struct {
	TotalSeconds         int64       `json:"total_seconds"`
	TotalHours           float64     `json:"total_hours"`
	EstimatedTimeMinutes *int64      `json:"estimated_time_minutes"`
	TimeByUser           []UserTotal `json:"time_by_user"`
}

// ReportingService aggregates completed entries along one of four
// dimensions and builds per-issue summaries.
type ReportingService struct {
	store store.Store
}

// NewReportingService creates a new ReportingService.
func NewReportingService(st store.Store) *ReportingService {
	return &ReportingService{store: st}
}

// completedEntries loads the report/export base set: completed entries
// in the workspace, narrowed by the optional project/user/date filters.
func completedEntries(ctx context.Context, st store.Store, workspace, projectID, userID, fromDate, toDate string) ([]*models.TimeEntry, error) {
	filter := store.TimeEntryFilter{
		WorkspaceSlug: workspace,
		ProjectID:     projectID,
		UserID:        userID,
		CompletedOnly: true,
	}

	if fromDate != "" {
		from, err := time.Parse(dateLayout, fromDate)
		if err != nil {
			return nil, apperrors.Validation("invalid from date format, use YYYY-MM-DD")
		}
		filter.From = &from
	}
	if toDate != "" {
		to, err := time.Parse(dateLayout, toDate)
		if err != nil {
			return nil, apperrors.Validation("invalid to date format, use YYYY-MM-DD")
		}
		filter.To = &to
	}

	entries, err := st.Find(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

// BuildReport aggregates sum(duration_seconds) and count(*) per group
// key, ordered by total seconds descending (stable: ties keep
// first-seen order).
func (s *ReportingService) BuildReport(ctx context.Context, params ReportParams) (*Report, error) {
	switch params.GroupBy {
	case GroupByUser, GroupByWorkItem, GroupByProject, GroupByModule:
	default:
		return nil, apperrors.Validationf("group_by must be one of: %s, %s, %s, %s",
			GroupByUser, GroupByWorkItem, GroupByProject, GroupByModule)
	}

	entries, err := completedEntries(ctx, s.store, params.Workspace, params.ProjectID, params.UserID, params.FromDate, params.ToDate)
	if err != nil {
		return nil, err
	}

	var rows []ReportRow
	switch params.GroupBy {
	case GroupByUser:
		rows, err = s.groupByUser(ctx, entries)
	case GroupByWorkItem:
		rows, err = s.groupByWorkItem(ctx, entries)
	case GroupByProject:
		rows, err = s.groupByProject(ctx, entries)
	case GroupByModule:
		rows, err = s.groupByModule(ctx, entries)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalSeconds > rows[j].TotalSeconds
	})
	for i := range rows {
		rows[i].TotalHours = timeutil.Hours(rows[i].TotalSeconds)
	}

	return &Report{
		GroupBy:  params.GroupBy,
		FromDate: params.FromDate,
		ToDate:   params.ToDate,
		Data:     rows,
	}, nil
}

// bucketer accumulates rows per key, keeping first-seen order for the
// stable tie-break.
type bucketer struct {
	index map[string]int
	rows  []ReportRow
}

func newBucketer() *bucketer {
	return &bucketer{index: make(map[string]int)}
}

// add accumulates the entry under key, calling describe once when the
// bucket is first seen.
func (b *bucketer) add(key string, entry *models.TimeEntry, describe func(row *ReportRow) error) error {
	i, ok := b.index[key]
	if !ok {
		b.rows = append(b.rows, ReportRow{})
		i = len(b.rows) - 1
		b.index[key] = i
		if err := describe(&b.rows[i]); err != nil {
			return err
		}
	}
	b.rows[i].TotalSeconds += entry.DurationSeconds
	b.rows[i].EntryCount++
	return nil
}

func (s *ReportingService) groupByUser(ctx context.Context, entries []*models.TimeEntry) ([]ReportRow, error) {
	b := newBucketer()
	for _, entry := range entries {
		err := b.add(entry.UserID, entry, func(row *ReportRow) error {
			row.UserID = entry.UserID
			user, err := s.store.UserByID(ctx, entry.UserID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil
				}
				return apperrors.Internal(err)
			}
			row.UserEmail = user.Email
			row.UserDisplayName = user.DisplayName
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return b.rows, nil
}

func (s *ReportingService) groupByWorkItem(ctx context.Context, entries []*models.TimeEntry) ([]ReportRow, error) {
	b := newBucketer()
	for _, entry := range entries {
		err := b.add(entry.IssueID, entry, func(row *ReportRow) error {
			row.IssueID = entry.IssueID
			row.ProjectID = entry.ProjectID
			issue, err := s.store.IssueByID(ctx, entry.IssueID)
			if err == nil {
				row.IssueName = issue.Name
				row.IssueSequenceID = issue.SequenceID
			} else if !errors.Is(err, store.ErrNotFound) {
				return apperrors.Internal(err)
			}
			project, err := s.store.ProjectByID(ctx, entry.ProjectID)
			if err == nil {
				row.ProjectIdentifier = project.Identifier
				row.ProjectName = project.Name
			} else if !errors.Is(err, store.ErrNotFound) {
				return apperrors.Internal(err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return b.rows, nil
}

func (s *ReportingService) groupByProject(ctx context.Context, entries []*models.TimeEntry) ([]ReportRow, error) {
	b := newBucketer()
	for _, entry := range entries {
		err := b.add(entry.ProjectID, entry, func(row *ReportRow) error {
			row.ProjectID = entry.ProjectID
			project, err := s.store.ProjectByID(ctx, entry.ProjectID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil
				}
				return apperrors.Internal(err)
			}
			row.ProjectIdentifier = project.Identifier
			row.ProjectName = project.Name
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return b.rows, nil
}

// groupByModule resolves each entry's issue to its module (first link
// wins) and buckets per module. Entries whose issue belongs to no
// module are excluded from module totals rather than bucketed under an
// empty group.
func (s *ReportingService) groupByModule(ctx context.Context, entries []*models.TimeEntry) ([]ReportRow, error) {
	modules := make(map[string]*models.Module)
	b := newBucketer()
	for _, entry := range entries {
		module, ok := modules[entry.IssueID]
		if !ok {
			var err error
			module, err = s.store.ModuleForIssue(ctx, entry.IssueID)
			if err != nil {
				return nil, apperrors.Internal(err)
			}
			modules[entry.IssueID] = module
		}
		if module == nil {
			continue
		}
		err := b.add(module.ID, entry, func(row *ReportRow) error {
			row.ModuleID = module.ID
			row.ModuleName = module.Name
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return b.rows, nil
}

// IssueSummary totals completed time on an issue overall and per user,
// alongside the issue's estimate.
func (s *ReportingService) IssueSummary(ctx context.Context, workspaceSlug, projectID, issueID string) (*IssueSummary, error) {
	if _, err := requireTimeTracking(ctx, s.store, projectID); err != nil {
		return nil, err
	}
	issue, err := requireIssue(ctx, s.store, workspaceSlug, projectID, issueID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.Find(ctx, store.TimeEntryFilter{
		IssueID:       issueID,
		CompletedOnly: true,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var totalSeconds int64
	b := newBucketer()
	for _, entry := range entries {
		totalSeconds += entry.DurationSeconds
		err := b.add(entry.UserID, entry, func(row *ReportRow) error {
			row.UserID = entry.UserID
			user, err := s.store.UserByID(ctx, entry.UserID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil
				}
				return apperrors.Internal(err)
			}
			row.UserEmail = user.Email
			row.UserDisplayName = user.DisplayName
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(b.rows, func(i, j int) bool {
		return b.rows[i].TotalSeconds > b.rows[j].TotalSeconds
	})

	byUser := make([]UserTotal, len(b.rows))
	for i, row := range b.rows {
		byUser[i] = UserTotal{
			UserID:          row.UserID,
			UserEmail:       row.UserEmail,
			UserDisplayName: row.UserDisplayName,
			TotalSeconds:    row.TotalSeconds,
			TotalHours:      timeutil.Hours(row.TotalSeconds),
			EntryCount:      row.EntryCount,
		}
	}

	return &IssueSummary{
		TotalSeconds:         totalSeconds,
		TotalHours:           timeutil.Hours(totalSeconds),
		EstimatedTimeMinutes: issue.EstimatedTimeMinutes,
		TimeByUser:           byUser,
	}, nil
}
