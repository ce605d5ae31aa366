package service

import (
	"path/filepath"
	"testing"
	"time"

	"kintree/internal/database"
	"kintree/internal/models"
	"kintree/internal/repository"
)

// testEnv wires the service layer against a throwaway SQLite database with
// the real migrations applied, so tests exercise the same SQL the server
// runs.
type testEnv struct {
	db *database.DB

	userRepo       *repository.UserRepository
	memberRepo     *repository.MemberRepository
	relRepo        *repository.RelationshipRepository
	accessRepo     *repository.AccessRepository
	invitationRepo *repository.InvitationRepository

	trees         *TreeService
	members       *MemberService
	relationships *RelationshipService
	invitations   *InvitationService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithCycles(t, true)
}

func newTestEnvWithCycles(t *testing.T, rejectCycles bool) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database-backed test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	env := &testEnv{
		db:             db,
		userRepo:       repository.NewUserRepository(db),
		memberRepo:     repository.NewMemberRepository(db),
		relRepo:        repository.NewRelationshipRepository(db),
		accessRepo:     repository.NewAccessRepository(db),
		invitationRepo: repository.NewInvitationRepository(db),
	}
	treeRepo := repository.NewTreeRepository(db)

	emailService, err := NewEmailService("", "", "", "")
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}

	env.trees = NewTreeService(treeRepo, env.memberRepo, env.relRepo, env.accessRepo, env.userRepo)
	env.members = NewMemberService(env.memberRepo)
	env.relationships = NewRelationshipService(env.relRepo, env.memberRepo, rejectCycles)
	env.invitations = NewInvitationService(env.invitationRepo, env.memberRepo, env.accessRepo,
		env.members, emailService, 24*time.Hour)

	return env
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.userRepo.CreateUser(email, "not-a-real-hash", "Test User")
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return user
}

// createTree creates a tree owned by the given user; the owner gets a
// claimed member automatically.
func (e *testEnv) createTree(t *testing.T, owner *models.User) *models.FamilyTree {
	t.Helper()
	tree, err := e.trees.CreateTree("Test Family", "", models.PrivacyPrivate, owner.ID)
	if err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}
	return tree
}

func (e *testEnv) addMember(t *testing.T, treeID int64, firstName string) *models.Member {
	t.Helper()
	member, err := e.members.AddMember(treeID, models.MemberProfile{FirstName: firstName}, nil)
	if err != nil {
		t.Fatalf("Failed to add member %s: %v", firstName, err)
	}
	return member
}

func (e *testEnv) treeEdges(t *testing.T, treeID int64) []models.Relationship {
	t.Helper()
	rels, err := e.relationships.GetTreeRelationships(treeID)
	if err != nil {
		t.Fatalf("Failed to load relationships: %v", err)
	}
	return rels
}

// assertSymmetric fails unless every stored edge has its inverse partner
func assertSymmetric(t *testing.T, rels []models.Relationship) {
	t.Helper()
	type edge struct {
		from, to int64
		relType  models.RelationshipType
	}
	present := make(map[edge]bool, len(rels))
	for _, rel := range rels {
		present[edge{rel.FromMemberID, rel.ToMemberID, rel.Type}] = true
	}
	for _, rel := range rels {
		inv, ok := rel.Type.Inverse()
		if !ok {
			t.Fatalf("stored edge %d has unknown type %q", rel.ID, rel.Type)
		}
		if !present[edge{rel.ToMemberID, rel.FromMemberID, inv}] {
			t.Errorf("edge %d -> %d (%s) has no inverse partner", rel.FromMemberID, rel.ToMemberID, rel.Type)
		}
	}
}
