package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/store"
	"github.com/tracklite/tracklite/internal/timeutil"
)

// ExportHeader is the fixed CSV column set, in order.
var ExportHeader = []string{
	"Date",
	"User",
	"User Email",
	"Project",
	"Work Item",
	"Work Item Key",
	"Module",
	"Duration (hours)",
	"Duration (seconds)",
	"Source",
	"Billable",
	"Note",
}

// ExportParams narrows an export. Same filter shape as reports, no
// grouping.
type ExportParams struct {
	Workspace string
	FromDate  string
	ToDate    string
	ProjectID string
	UserID    string
}

// ExportService flattens completed entries to CSV rows, one row per
// entry, enriched with the project/issue/module/user names the raw
// entry only references by id.
type ExportService struct {
	store store.Store
}

// NewExportService creates a new ExportService.
func NewExportService(st store.Store) *ExportService {
	return &ExportService{store: st}
}

// ExportFilename returns the download filename for an export generated
// at now.
func ExportFilename(workspace string, now time.Time) string {
	return fmt.Sprintf("time_entries_%s_%s.csv", workspace, now.Format("20060102"))
}

// Rows builds the export rows (header excluded), ordered by entry
// creation time descending. Lookup failures for individual names
// degrade to empty cells rather than failing the export.
func (s *ExportService) Rows(ctx context.Context, params ExportParams) ([][]string, error) {
	entries, err := completedEntries(ctx, s.store, params.Workspace, params.ProjectID, params.UserID, params.FromDate, params.ToDate)
	if err != nil {
		return nil, err
	}

	users := make(map[string]*models.User)
	projects := make(map[string]*models.Project)
	issues := make(map[string]*models.Issue)
	modules := make(map[string]*models.Module)

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		user, err := s.cachedUser(ctx, users, entry.UserID)
		if err != nil {
			return nil, err
		}
		project, err := s.cachedProject(ctx, projects, entry.ProjectID)
		if err != nil {
			return nil, err
		}
		issue, err := s.cachedIssue(ctx, issues, entry.IssueID)
		if err != nil {
			return nil, err
		}
		module, ok := modules[entry.IssueID]
		if !ok {
			module, err = s.store.ModuleForIssue(ctx, entry.IssueID)
			if err != nil {
				return nil, err
			}
			modules[entry.IssueID] = module
		}

		var userLabel, userEmail string
		if user != nil {
			userLabel = user.Label()
			userEmail = user.Email
		}
		var projectName, workItemKey string
		if project != nil {
			projectName = project.Name
		}
		var issueName string
		if issue != nil {
			issueName = issue.Name
			if project != nil {
				workItemKey = fmt.Sprintf("%s-%d", project.Identifier, issue.SequenceID)
			}
		}
		var moduleName string
		if module != nil {
			moduleName = module.Name
		}

		billable := "No"
		if entry.IsBillable {
			billable = "Yes"
		}

		rows = append(rows, []string{
			entry.CreatedAt.Format("2006-01-02"),
			userLabel,
			userEmail,
			projectName,
			issueName,
			workItemKey,
			moduleName,
			strconv.FormatFloat(timeutil.Hours(entry.DurationSeconds), 'f', 2, 64),
			strconv.FormatInt(entry.DurationSeconds, 10),
			string(entry.Source),
			billable,
			entry.Note,
		})
	}
	return rows, nil
}

func (s *ExportService) cachedUser(ctx context.Context, cache map[string]*models.User, id string) (*models.User, error) {
	if u, ok := cache[id]; ok {
		return u, nil
	}
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		u = nil
	}
	cache[id] = u
	return u, nil
}

func (s *ExportService) cachedProject(ctx context.Context, cache map[string]*models.Project, id string) (*models.Project, error) {
	if p, ok := cache[id]; ok {
		return p, nil
	}
	p, err := s.store.ProjectByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		p = nil
	}
	cache[id] = p
	return p, nil
}

func (s *ExportService) cachedIssue(ctx context.Context, cache map[string]*models.Issue, id string) (*models.Issue, error) {
	if i, ok := cache[id]; ok {
		return i, nil
	}
	i, err := s.store.IssueByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		i = nil
	}
	cache[id] = i
	return i, nil
}
