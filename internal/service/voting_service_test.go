package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"evote-api/internal/domain"
	apperrors "evote-api/pkg/errors"
	"evote-api/pkg/votetoken"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockElectionRepository struct {
	mock.Mock
}

func (m *MockElectionRepository) Create(ctx context.Context, election *domain.Election) error {
	args := m.Called(ctx, election)
	return args.Error(0)
}

func (m *MockElectionRepository) GetByID(ctx context.Context, id string) (*domain.Election, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Election), args.Error(1)
}

func (m *MockElectionRepository) List(ctx context.Context) ([]domain.Election, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Election), args.Error(1)
}

func (m *MockElectionRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Election, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Election), args.Error(1)
}

func (m *MockElectionRepository) Update(ctx context.Context, id string, update *domain.ElectionUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockElectionRepository) UpdateStatus(ctx context.Context, id string, status domain.ElectionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockElectionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCandidateRepository struct {
	mock.Mock
}

func (m *MockCandidateRepository) Create(ctx context.Context, candidate *domain.Candidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}

func (m *MockCandidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *MockCandidateRepository) ListByElection(ctx context.Context, electionID string) ([]domain.Candidate, error) {
	args := m.Called(ctx, electionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Candidate), args.Error(1)
}

func (m *MockCandidateRepository) CountByElection(ctx context.Context, electionID string) (int, error) {
	args := m.Called(ctx, electionID)
	return args.Int(0), args.Error(1)
}

func (m *MockCandidateRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetRoles(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRepository) AssignRole(ctx context.Context, userID, roleName string) error {
	args := m.Called(ctx, userID, roleName)
	return args.Error(0)
}

func (m *MockUserRepository) ReplaceRoles(ctx context.Context, userID string, roles []string) error {
	args := m.Called(ctx, userID, roles)
	return args.Error(0)
}

type MockVoteRepository struct {
	mock.Mock
}

func (m *MockVoteRepository) Insert(ctx context.Context, record *domain.VoteRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockVoteRepository) Exists(ctx context.Context, electionID, hashedToken string) (bool, error) {
	args := m.Called(ctx, electionID, hashedToken)
	return args.Bool(0), args.Error(1)
}

func (m *MockVoteRepository) ResultsByElection(ctx context.Context, electionID string) ([]domain.CandidateResult, error) {
	args := m.Called(ctx, electionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CandidateResult), args.Error(1)
}

func (m *MockVoteRepository) CountByElection(ctx context.Context, electionID string) (int, error) {
	args := m.Called(ctx, electionID)
	return args.Int(0), args.Error(1)
}

type votingFixture struct {
	electionRepo  *MockElectionRepository
	candidateRepo *MockCandidateRepository
	userRepo      *MockUserRepository
	voteRepo      *MockVoteRepository
	service       *VotingService
}

func newVotingFixture(t *testing.T) *votingFixture {
	t.Helper()

	pseudonymizer, err := votetoken.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	f := &votingFixture{
		electionRepo:  new(MockElectionRepository),
		candidateRepo: new(MockCandidateRepository),
		userRepo:      new(MockUserRepository),
		voteRepo:      new(MockVoteRepository),
	}
	f.service = NewVotingService(
		f.electionRepo, f.candidateRepo, f.userRepo, f.voteRepo,
		pseudonymizer, nil, zap.NewNop())
	return f
}

func activeElection(id string) *domain.Election {
	now := time.Now().UTC()
	return &domain.Election{
		ID:             id,
		OrganizationID: "org-1",
		Title:          "Board Election",
		StartTime:      now.Add(-time.Hour),
		EndTime:        now.Add(time.Hour),
		Status:         domain.StatusActive,
	}
}

func activeVoter(id string) *domain.User {
	return &domain.User{ID: id, Email: "voter@example.com", IsActive: true}
}

func assertErrorType(t *testing.T, err error, errType apperrors.ErrorType) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok, "expected *apperrors.AppError, got %T", err)
	assert.Equal(t, errType, appErr.Type)
}

func TestCastVote_Success(t *testing.T) {
	f := newVotingFixture(t)
	ctx := context.Background()

	election := activeElection("e1")
	f.electionRepo.On("GetByID", ctx, "e1").Return(election, nil)
	f.candidateRepo.On("GetByID", ctx, "c1").Return(&domain.Candidate{ID: "c1", ElectionID: "e1"}, nil)
	f.userRepo.On("GetByID", ctx, "u1").Return(activeVoter("u1"), nil)
	f.voteRepo.On("Exists", ctx, "e1", mock.Anything).Return(false, nil)
	f.voteRepo.On("Insert", ctx, mock.MatchedBy(func(r *domain.VoteRecord) bool {
		return r.ElectionID == "e1" && r.CandidateID == "c1" && len(r.HashedToken) == 64 && r.ID != ""
	})).Return(nil)

	receipt, err := f.service.CastVote(ctx, "u1", "e1", "c1")

	require.NoError(t, err)
	assert.Equal(t, "e1", receipt.ElectionID)
	assert.Equal(t, "Vote cast successfully", receipt.Message)
	f.voteRepo.AssertExpectations(t)
}

func TestCastVote_ElectionNotFound(t *testing.T) {
	f := newVotingFixture(t)
	ctx := context.Background()

	f.electionRepo.On("GetByID", ctx, "missing").Return(nil, nil)

	_, err := f.service.CastVote(ctx, "u1", "missing", "c1")

	assertErrorType(t, err, apperrors.ErrorTypeNotFound)
	f.voteRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCastVote_ElectionNotActive(t *testing.T) {
	for _, status := range []domain.ElectionStatus{domain.StatusDraft, domain.StatusClosed} {
		t.Run(string(status), func(t *testing.T) {
			f := newVotingFixture(t)
			ctx := context.Background()

			election := activeElection("e1")
			election.Status = status
			f.electionRepo.On("GetByID", ctx, "e1").Return(election, nil)

			_, err := f.service.CastVote(ctx, "u1", "e1", "c1")

			assertErrorType(t, err, apperrors.ErrorTypeInvalidState)
			assert.Contains(t, err.Error(), string(status))
		})
	}
}

func TestCastVote_OutsideWindow(t *testing.T) {
	tests := []struct {
		name    string
		shift   time.Duration
		message string
	}{
		{"before start", 2 * time.Hour, "Election has not started yet"},
		{"after end", -3 * time.Hour, "Election has ended"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVotingFixture(t)
			ctx := context.Background()

			election := activeElection("e1")
			election.StartTime = election.StartTime.Add(tt.shift)
			election.EndTime = election.EndTime.Add(tt.shift)
			f.electionRepo.On("GetByID", ctx, "e1").Return(election, nil)

			_, err := f.service.CastVote(ctx, "u1", "e1", "c1")

			assertErrorType(t, err, apperrors.ErrorTypeOutOfWindow)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCastVote_InvalidCandidate(t *testing.T) {
	t.Run("unknown candidate", func(t *testing.T) {
		f := newVotingFixture(t)
		ctx := context.Background()

		f.electionRepo.On("GetByID", ctx, "e1").Return(activeElection("e1"), nil)
		f.candidateRepo.On("GetByID", ctx, "nope").Return(nil, nil)

		_, err := f.service.CastVote(ctx, "u1", "e1", "nope")

		assertErrorType(t, err, apperrors.ErrorTypeInvalidCandidate)
	})

	t.Run("candidate from another election", func(t *testing.T) {
		f := newVotingFixture(t)
		ctx := context.Background()

		f.electionRepo.On("GetByID", ctx, "e1").Return(activeElection("e1"), nil)
		f.candidateRepo.On("GetByID", ctx, "c9").Return(&domain.Candidate{ID: "c9", ElectionID: "e2"}, nil)

		_, err := f.service.CastVote(ctx, "u1", "e1", "c9")

		assertErrorType(t, err, apperrors.ErrorTypeInvalidCandidate)
	})
}

func TestCastVote_InactiveUser(t *testing.T) {
	f := newVotingFixture(t)
	ctx := context.Background()

	f.electionRepo.On("GetByID", ctx, "e1").Return(activeElection("e1"), nil)
	f.candidateRepo.On("GetByID", ctx, "c1").Return(&domain.Candidate{ID: "c1", ElectionID: "e1"}, nil)
	user := activeVoter("u1")
	user.IsActive = false
	f.userRepo.On("GetByID", ctx, "u1").Return(user, nil)

	_, err := f.service.CastVote(ctx, "u1", "e1", "c1")

	assertErrorType(t, err, apperrors.ErrorTypeAuthentication)
}

func TestCastVote_DuplicateFastPath(t *testing.T) {
	f := newVotingFixture(t)
	ctx := context.Background()

	f.electionRepo.On("GetByID", ctx, "e1").Return(activeElection("e1"), nil)
	f.candidateRepo.On("GetByID", ctx, "c1").Return(&domain.Candidate{ID: "c1", ElectionID: "e1"}, nil)
	f.userRepo.On("GetByID", ctx, "u1").Return(activeVoter("u1"), nil)
	f.voteRepo.On("Exists", ctx, "e1", mock.Anything).Return(true, nil)

	_, err := f.service.CastVote(ctx, "u1", "e1", "c1")

	assertErrorType(t, err, apperrors.ErrorTypeDuplicateVote)
	f.voteRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCastVote_DuplicateFromConstraint(t *testing.T) {
	f := newVotingFixture(t)
	ctx := context.Background()

	f.electionRepo.On("GetByID", ctx, "e1").Return(activeElection("e1"), nil)
	f.candidateRepo.On("GetByID", ctx, "c1").Return(&domain.Candidate{ID: "c1", ElectionID: "e1"}, nil)
	f.userRepo.On("GetByID", ctx, "u1").Return(activeVoter("u1"), nil)
	f.voteRepo.On("Exists", ctx, "e1", mock.Anything).Return(false, nil)
	f.voteRepo.On("Insert", ctx, mock.Anything).Return(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "uq_votes_election_token",
	})

	_, err := f.service.CastVote(ctx, "u1", "e1", "c1")

	assertErrorType(t, err, apperrors.ErrorTypeDuplicateVote)
}

func TestCastVote_EmployeeIDPrecedence(t *testing.T) {
	// Two accounts sharing an employee ID map to the same ballot identity.
	f := newVotingFixture(t)
	ctx := context.Background()

	empID := "EMP-42"
	first := activeVoter("u1")
	first.EmployeeID = &empID
	second := activeVoter("u2")
	second.EmployeeID = &empID

	f.electionRepo.On("GetByID", ctx, "e1").Return(activeElection("e1"), nil)
	f.candidateRepo.On("GetByID", ctx, "c1").Return(&domain.Candidate{ID: "c1", ElectionID: "e1"}, nil)
	f.userRepo.On("GetByID", ctx, "u1").Return(first, nil)
	f.userRepo.On("GetByID", ctx, "u2").Return(second, nil)

	var tokens []string
	f.voteRepo.On("Exists", ctx, "e1", mock.Anything).Return(false, nil)
	f.voteRepo.On("Insert", ctx, mock.MatchedBy(func(r *domain.VoteRecord) bool {
		tokens = append(tokens, r.HashedToken)
		return true
	})).Return(nil)

	_, err := f.service.CastVote(ctx, "u1", "e1", "c1")
	require.NoError(t, err)
	_, err = f.service.CastVote(ctx, "u2", "e1", "c1")
	require.NoError(t, err)

	require.Len(t, tokens, 2)
	assert.Equal(t, tokens[0], tokens[1], "same employee ID must yield the same hashed token")
}

func TestHasVoted(t *testing.T) {
	f := newVotingFixture(t)
	ctx := context.Background()

	f.electionRepo.On("GetByID", ctx, "e1").Return(activeElection("e1"), nil)
	f.userRepo.On("GetByID", ctx, "u1").Return(activeVoter("u1"), nil)
	f.voteRepo.On("Exists", ctx, "e1", mock.Anything).Return(true, nil)

	voted, err := f.service.HasVoted(ctx, "u1", "e1")

	require.NoError(t, err)
	assert.True(t, voted)
}

func TestTally_ClosedOnly(t *testing.T) {
	for _, status := range []domain.ElectionStatus{domain.StatusDraft, domain.StatusActive} {
		t.Run(string(status), func(t *testing.T) {
			f := newVotingFixture(t)
			ctx := context.Background()

			election := activeElection("e1")
			election.Status = status
			f.electionRepo.On("GetByID", ctx, "e1").Return(election, nil)

			_, err := f.service.Tally(ctx, "e1")

			assertErrorType(t, err, apperrors.ErrorTypeInvalidState)
		})
	}
}

func TestTally_IncludesZeroVoteCandidates(t *testing.T) {
	f := newVotingFixture(t)
	ctx := context.Background()

	election := activeElection("e1")
	election.Status = domain.StatusClosed
	f.electionRepo.On("GetByID", ctx, "e1").Return(election, nil)
	f.voteRepo.On("ResultsByElection", ctx, "e1").Return([]domain.CandidateResult{
		{CandidateID: "c1", CandidateName: "Alice", VoteCount: 5},
		{CandidateID: "c2", CandidateName: "Bob", VoteCount: 0},
	}, nil)
	f.voteRepo.On("CountByElection", ctx, "e1").Return(5, nil)

	results, err := f.service.Tally(ctx, "e1")

	require.NoError(t, err)
	assert.Equal(t, 5, results.TotalVotes)
	require.Len(t, results.Results, 2)
	assert.Equal(t, 0, results.Results[1].VoteCount)
	assert.Equal(t, domain.StatusClosed, results.Status)
}

// constraintLedger emulates the database's composite uniqueness constraint so
// the race between concurrent casts can be exercised in process.
type constraintLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newConstraintLedger() *constraintLedger {
	return &constraintLedger{seen: make(map[string]bool)}
}

func (l *constraintLedger) Insert(ctx context.Context, record *domain.VoteRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := record.ElectionID + "/" + record.HashedToken
	if l.seen[key] {
		return &pgconn.PgError{Code: "23505", ConstraintName: "uq_votes_election_token"}
	}
	l.seen[key] = true
	return nil
}

func (l *constraintLedger) Exists(ctx context.Context, electionID, hashedToken string) (bool, error) {
	// Deliberately reports a miss so every goroutine reaches Insert and the
	// constraint alone decides the winner.
	return false, nil
}

func (l *constraintLedger) ResultsByElection(ctx context.Context, electionID string) ([]domain.CandidateResult, error) {
	return nil, nil
}

func (l *constraintLedger) CountByElection(ctx context.Context, electionID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen), nil
}

func TestCastVote_ConcurrentSameVoter(t *testing.T) {
	const workers = 16

	pseudonymizer, err := votetoken.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	electionRepo := new(MockElectionRepository)
	candidateRepo := new(MockCandidateRepository)
	userRepo := new(MockUserRepository)
	ledger := newConstraintLedger()

	ctx := context.Background()
	electionRepo.On("GetByID", ctx, "e1").Return(activeElection("e1"), nil)
	candidateRepo.On("GetByID", ctx, "c1").Return(&domain.Candidate{ID: "c1", ElectionID: "e1"}, nil)
	userRepo.On("GetByID", ctx, "u1").Return(activeVoter("u1"), nil)

	svc := NewVotingService(electionRepo, candidateRepo, userRepo, ledger,
		pseudonymizer, nil, zap.NewNop())

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CastVote(ctx, "u1", "e1", "c1")
		}(i)
	}
	wg.Wait()

	var successes, duplicates int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok, "unexpected error: %v", err)
		require.Equal(t, apperrors.ErrorTypeDuplicateVote, appErr.Type)
		duplicates++
	}

	assert.Equal(t, 1, successes, "exactly one cast must win")
	assert.Equal(t, workers-1, duplicates)

	count, err := ledger.CountByElection(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
