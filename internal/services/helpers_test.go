package services

import (
	"time"

	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/store"
)

const (
	testWorkspace = "acme"
	testProjectID = "proj-1"
	testIssueID   = "issue-1"
	testIssue2ID  = "issue-2"
	testUserID    = "user-1"
	testUser2ID   = "user-2"
	testAdminID   = "admin-1"
)

func testActor() *models.Actor {
	return &models.Actor{ID: testUserID, Email: "alice@example.com", DisplayName: "Alice", Role: models.RoleMember}
}

func testActor2() *models.Actor {
	return &models.Actor{ID: testUser2ID, Email: "bob@example.com", DisplayName: "Bob", Role: models.RoleMember}
}

func testAdmin() *models.Actor {
	return &models.Actor{ID: testAdminID, Email: "carol@example.com", DisplayName: "Carol", Role: models.RoleAdmin}
}

// newTestStore seeds a memory store with one time-tracking-enabled
// project holding two issues, three users, and an admin membership for
// admin-1.
func newTestStore() *store.Memory {
	st := store.NewMemory()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	st.Projects[testProjectID] = &models.Project{
		ID:                    testProjectID,
		WorkspaceSlug:         testWorkspace,
		Identifier:            "ACME",
		Name:                  "Acme Platform",
		IsTimeTrackingEnabled: true,
		CreatedAt:             created,
	}
	st.Issues[testIssueID] = &models.Issue{
		ID:            testIssueID,
		WorkspaceSlug: testWorkspace,
		ProjectID:     testProjectID,
		Name:          "Fix login flow",
		SequenceID:    42,
		CreatedAt:     created,
	}
	st.Issues[testIssue2ID] = &models.Issue{
		ID:            testIssue2ID,
		WorkspaceSlug: testWorkspace,
		ProjectID:     testProjectID,
		Name:          "Add audit log",
		SequenceID:    43,
		CreatedAt:     created,
	}
	st.Users[testUserID] = &models.User{ID: testUserID, Email: "alice@example.com", DisplayName: "Alice"}
	st.Users[testUser2ID] = &models.User{ID: testUser2ID, Email: "bob@example.com", DisplayName: "Bob"}
	st.Users[testAdminID] = &models.User{ID: testAdminID, Email: "carol@example.com", DisplayName: "Carol"}
	st.Members = append(st.Members, models.ProjectMember{
		ID: "member-1", ProjectID: testProjectID, UserID: testAdminID,
		Role: models.RoleAdmin, IsActive: true, CreatedAt: created,
	})
	return st
}

// disableTracking flips the feature toggle off on the seeded project.
func disableTracking(st *store.Memory) {
	st.Projects[testProjectID].IsTimeTrackingEnabled = false
}
