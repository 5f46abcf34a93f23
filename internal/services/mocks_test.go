package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/quizdeck/assessment-service/internal/cache"
	"github.com/quizdeck/assessment-service/internal/events"
	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/repositories"
)

// mockRepository bundles entity mocks behind the repositories.Repository
// interface. WithTx runs the callback against the same mocks, which is
// enough to assert transactional flows without a database.
type mockRepository struct {
	quiz       *MockQuizRepository
	assignment *MockAssignmentRepository
	submission *MockSubmissionRepository
	user       *MockUserRepository
	class      *MockClassRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quiz:       new(MockQuizRepository),
		assignment: new(MockAssignmentRepository),
		submission: new(MockSubmissionRepository),
		user:       new(MockUserRepository),
		class:      new(MockClassRepository),
	}
}

func (m *mockRepository) Quiz() repositories.QuizRepository             { return m.quiz }
func (m *mockRepository) Assignment() repositories.AssignmentRepository { return m.assignment }
func (m *mockRepository) Submission() repositories.SubmissionRepository { return m.submission }
func (m *mockRepository) User() repositories.UserRepository             { return m.user }
func (m *mockRepository) Class() repositories.ClassRepository           { return m.class }

func (m *mockRepository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) AssertExpectations(t mock.TestingT) {
	m.quiz.AssertExpectations(t)
	m.assignment.AssertExpectations(t)
	m.submission.AssertExpectations(t)
	m.user.AssertExpectations(t)
	m.class.AssertExpectations(t)
}

// ===== QUIZ =====

type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByTeacher(ctx context.Context, teacherID string, limit, offset int) ([]*models.Quiz, int64, error) {
	args := m.Called(ctx, teacherID, limit, offset)
	return args.Get(0).([]*models.Quiz), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuizRepository) IsOwner(ctx context.Context, quizID uint, teacherID string) (bool, error) {
	args := m.Called(ctx, quizID, teacherID)
	return args.Bool(0), args.Error(1)
}

// ===== ASSIGNMENT =====

type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) CreateBatch(ctx context.Context, assignments []*models.Assignment) error {
	args := m.Called(ctx, assignments)
	return args.Error(0)
}

func (m *MockAssignmentRepository) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) GetByQuizAndClass(ctx context.Context, quizID, classID uint) ([]*models.Assignment, error) {
	args := m.Called(ctx, quizID, classID)
	return args.Get(0).([]*models.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) GetByStudent(ctx context.Context, studentID string, limit, offset int) ([]*models.Assignment, int64, error) {
	args := m.Called(ctx, studentID, limit, offset)
	return args.Get(0).([]*models.Assignment), args.Get(1).(int64), args.Error(2)
}

func (m *MockAssignmentRepository) GetByCode(ctx context.Context, code, studentID string, mode models.QuizMode) (*models.Assignment, error) {
	args := m.Called(ctx, code, studentID, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) ExistsLive(ctx context.Context, quizID, classID uint) (bool, error) {
	args := m.Called(ctx, quizID, classID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAssignmentRepository) MarkSuperseded(ctx context.Context, quizID, classID uint) (int64, error) {
	args := m.Called(ctx, quizID, classID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssignmentRepository) PurgeSuperseded(ctx context.Context, quizID, classID uint) (int64, error) {
	args := m.Called(ctx, quizID, classID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssignmentRepository) UpdateSessionFields(ctx context.Context, quizID, classID uint, fields repositories.SessionFields) (int64, error) {
	args := m.Called(ctx, quizID, classID, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssignmentRepository) UpdateScoreMirror(ctx context.Context, assignmentID uint, score, raw, base50 int) error {
	args := m.Called(ctx, assignmentID, score, raw, base50)
	return args.Error(0)
}

func (m *MockAssignmentRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// ===== SUBMISSION =====

type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) GetByQuiz(ctx context.Context, quizID uint) ([]*models.Submission, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).([]*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) GetByQuizAndClass(ctx context.Context, quizID, classID uint) ([]*models.Submission, error) {
	args := m.Called(ctx, quizID, classID)
	return args.Get(0).([]*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.Submission, error) {
	args := m.Called(ctx, assignmentID)
	return args.Get(0).([]*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) UpdateScores(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) CountByQuiz(ctx context.Context, quizID uint) (int64, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).(int64), args.Error(1)
}

// ===== USER =====

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	args := m.Called(ctx, id, role)
	return args.Bool(0), args.Error(1)
}

// ===== CLASS =====

type MockClassRepository struct {
	mock.Mock
}

func (m *MockClassRepository) GetByID(ctx context.Context, id uint) (*models.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Class), args.Error(1)
}

func (m *MockClassRepository) GetRoster(ctx context.Context, classID uint) ([]models.ClassStudent, error) {
	args := m.Called(ctx, classID)
	return args.Get(0).([]models.ClassStudent), args.Error(1)
}

func (m *MockClassRepository) IsOwner(ctx context.Context, classID uint, teacherID string) (bool, error) {
	args := m.Called(ctx, classID, teacherID)
	return args.Bool(0), args.Error(1)
}

// ===== BROADCASTER =====

type MockSessionBroadcaster struct {
	mock.Mock
}

func (m *MockSessionBroadcaster) Broadcast(ctx context.Context, update events.SessionStatusEvent) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

func (m *MockSessionBroadcaster) Subscribe(ctx context.Context, quizID, classID uint) (<-chan events.SessionStatusEvent, error) {
	args := m.Called(ctx, quizID, classID)
	return args.Get(0).(<-chan events.SessionStatusEvent), args.Error(1)
}

func (m *MockSessionBroadcaster) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ===== DRAFT STORE =====

type MockDraftStore struct {
	mock.Mock
}

func (m *MockDraftStore) LoadDraft(ctx context.Context, assignmentID uint) (*cache.Draft, error) {
	args := m.Called(ctx, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cache.Draft), args.Error(1)
}

func (m *MockDraftStore) SaveDraft(ctx context.Context, draft *cache.Draft) error {
	args := m.Called(ctx, draft)
	return args.Error(0)
}

func (m *MockDraftStore) ClearDraft(ctx context.Context, assignmentID uint) error {
	args := m.Called(ctx, assignmentID)
	return args.Error(0)
}

// ===== ANALYSIS INVALIDATOR =====

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(ctx context.Context, quizID uint) {}

func gormNotFound() error { return gorm.ErrRecordNotFound }
