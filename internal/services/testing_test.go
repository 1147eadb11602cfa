package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/placement-prep/learning-service/internal/config"
	"github.com/placement-prep/learning-service/internal/models"
	"github.com/placement-prep/learning-service/internal/repositories"
)

// memoryRepository is an in-memory repositories.Repository for service tests.
type memoryRepository struct {
	mu     sync.Mutex
	nextID uint

	assessments       map[uint]*models.Assessment
	attempts          map[uint]*models.Attempt
	analyses          map[uint]*models.ExamAnalysis
	practiceStates    map[uint]*models.PracticeState
	topicStates       map[uint]*models.TopicPracticeState
	learningPaths     map[uint]*models.LearningPath
	questionHistories map[uint]*models.QuestionHistory
	questionBanks     map[uint]*models.QuestionBank
	examFormats       map[uint]*models.ExamFormat
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		assessments:       make(map[uint]*models.Assessment),
		attempts:          make(map[uint]*models.Attempt),
		analyses:          make(map[uint]*models.ExamAnalysis),
		practiceStates:    make(map[uint]*models.PracticeState),
		topicStates:       make(map[uint]*models.TopicPracticeState),
		learningPaths:     make(map[uint]*models.LearningPath),
		questionHistories: make(map[uint]*models.QuestionHistory),
		questionBanks:     make(map[uint]*models.QuestionBank),
		examFormats:       make(map[uint]*models.ExamFormat),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testThresholds() config.Thresholds {
	return config.Thresholds{
		WeakBelow:            50,
		AverageBelow:         70,
		QualificationScore:   60,
		MinImprovement:       15,
		PracticeStrongAbove:  70,
		PracticeAverageAbove: 50,
		MasteryScore:         80,
		HardScore:            90,
		MinPracticeAttempts:  3,
		PracticeQualifyScore: 80,
		ScoreHistoryLimit:    200,
		QuestionHistoryLimit: 200,
	}
}

func testGeneration() config.Generation {
	return config.Generation{
		QuestionsPerWeakArea: 5,
		MinQuestions:         5,
		MaxQuestions:         20,
		MinutesPerQuestion:   2,
	}
}

func (m *memoryRepository) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memoryRepository) Assessment() repositories.AssessmentRepository { return &memAssessment{m} }
func (m *memoryRepository) Attempt() repositories.AttemptRepository       { return &memAttempt{m} }
func (m *memoryRepository) Analysis() repositories.AnalysisRepository     { return &memAnalysis{m} }
func (m *memoryRepository) PracticeState() repositories.PracticeStateRepository {
	return &memPracticeState{m}
}
func (m *memoryRepository) TopicPracticeState() repositories.TopicPracticeStateRepository {
	return &memTopicState{m}
}
func (m *memoryRepository) LearningPath() repositories.LearningPathRepository {
	return &memLearningPath{m}
}
func (m *memoryRepository) QuestionHistory() repositories.QuestionHistoryRepository {
	return &memQuestionHistory{m}
}
func (m *memoryRepository) QuestionBank() repositories.QuestionBankRepository {
	return &memQuestionBank{m}
}
func (m *memoryRepository) ExamFormat() repositories.ExamFormatRepository { return &memExamFormat{m} }

func (m *memoryRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *memoryRepository) Ping(ctx context.Context) error { return nil }
func (m *memoryRepository) Close() error                   { return nil }

// ===== ASSESSMENTS =====

type memAssessment struct{ m *memoryRepository }

func (r *memAssessment) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if assessment.ID == 0 {
		assessment.ID = r.m.id()
	}
	r.m.assessments[assessment.ID] = assessment
	return nil
}

func (r *memAssessment) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if a, ok := r.m.assessments[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAssessment) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Assessment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.Assessment, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.m.assessments[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAssessment) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.assessments[assessment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.m.assessments[assessment.ID] = assessment
	return nil
}

func (r *memAssessment) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.assessments, id)
	return nil
}

func (r *memAssessment) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := r.sorted()
	return out, int64(len(out)), nil
}

func (r *memAssessment) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AssessmentFilters) ([]*models.Assessment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.Assessment, 0)
	for _, a := range r.sorted() {
		if a.OwnedBy(studentID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAssessment) GetGeneratedForStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Assessment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.Assessment, 0)
	for _, a := range r.sorted() {
		if a.IsSystemGenerated && a.AssignedStudent != nil && *a.AssignedStudent == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAssessment) sorted() []*models.Assessment {
	out := make([]*models.Assessment, 0, len(r.m.assessments))
	for _, a := range r.m.assessments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ===== ATTEMPTS =====

type memAttempt struct{ m *memoryRepository }

func (r *memAttempt) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if attempt.ID == 0 {
		attempt.ID = r.m.id()
	}
	r.m.attempts[attempt.ID] = attempt
	return nil
}

func (r *memAttempt) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if a, ok := r.m.attempts[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAttempt) GetByIDWithAssessment(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if assessment, ok := r.m.assessments[a.AssessmentID]; ok {
		a.Assessment = *assessment
	}
	return a, nil
}

func (r *memAttempt) Update(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.attempts[attempt.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.m.attempts[attempt.ID] = attempt
	return nil
}

func (r *memAttempt) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.Attempt, 0)
	for _, a := range r.sorted() {
		if filters.StudentID != nil && a.StudentID != *filters.StudentID {
			continue
		}
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		out = append(out, a)
	}
	total := int64(len(out))
	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			out = nil
		} else {
			out = out[filters.Offset:]
		}
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, total, nil
}

func (r *memAttempt) GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.Attempt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, a := range r.sorted() {
		if a.StudentID == studentID && a.AssessmentID == assessmentID && a.Status == models.AttemptInProgress {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAttempt) GetByStudentAndAssessment(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) ([]*models.Attempt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.Attempt, 0)
	for _, a := range r.sorted() {
		if a.StudentID == studentID && a.AssessmentID == assessmentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAttempt) HasSubmittedAttempt(ctx context.Context, tx *gorm.DB, assessmentID uint) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, a := range r.m.attempts {
		if a.AssessmentID == assessmentID && a.Status == models.AttemptSubmitted {
			return true, nil
		}
	}
	return false, nil
}

func (r *memAttempt) GetSubmittedByAssessments(ctx context.Context, tx *gorm.DB, assessmentIDs []uint) ([]*models.Attempt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	wanted := make(map[uint]bool, len(assessmentIDs))
	for _, id := range assessmentIDs {
		wanted[id] = true
	}
	out := make([]*models.Attempt, 0)
	for _, a := range r.sorted() {
		if wanted[a.AssessmentID] && a.Status == models.AttemptSubmitted {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAttempt) sorted() []*models.Attempt {
	out := make([]*models.Attempt, 0, len(r.m.attempts))
	for _, a := range r.m.attempts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ===== ANALYSES =====

type memAnalysis struct{ m *memoryRepository }

func (r *memAnalysis) Create(ctx context.Context, tx *gorm.DB, analysis *models.ExamAnalysis) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if analysis.ID == 0 {
		analysis.ID = r.m.id()
	}
	r.m.analyses[analysis.ID] = analysis
	return nil
}

func (r *memAnalysis) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAnalysis, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if a, ok := r.m.analyses[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAnalysis) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.ExamAnalysis, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, a := range r.m.analyses {
		if a.AttemptID == attemptID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAnalysis) GetLatest(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.ExamAnalysis, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var latest *models.ExamAnalysis
	for _, a := range r.m.analyses {
		if a.StudentID != studentID || a.CompanyName != company {
			continue
		}
		if latest == nil || a.ID > latest.ID {
			latest = a
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (r *memAnalysis) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AnalysisFilters) ([]*models.ExamAnalysis, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.ExamAnalysis, 0)
	for _, a := range r.m.analyses {
		if a.StudentID != studentID {
			continue
		}
		if filters.CompanyName != nil && a.CompanyName != *filters.CompanyName {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

// ===== PRACTICE STATES =====

type memPracticeState struct{ m *memoryRepository }

func (r *memPracticeState) Create(ctx context.Context, tx *gorm.DB, state *models.PracticeState) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if state.ID == 0 {
		state.ID = r.m.id()
	}
	r.m.practiceStates[state.ID] = state
	return nil
}

func (r *memPracticeState) Update(ctx context.Context, tx *gorm.DB, state *models.PracticeState) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.practiceStates[state.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.m.practiceStates[state.ID] = state
	return nil
}

func (r *memPracticeState) GetByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.PracticeState, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.practiceStates {
		if s.StudentID == studentID && s.CompanyName == company {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memPracticeState) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.PracticeState, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.PracticeState, 0)
	for _, s := range r.sorted() {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memPracticeState) ListActiveByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.PracticeState, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.PracticeState, 0)
	for _, s := range r.sorted() {
		if s.StudentID == studentID && s.QualificationStatus == models.QualificationActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memPracticeState) sorted() []*models.PracticeState {
	out := make([]*models.PracticeState, 0, len(r.m.practiceStates))
	for _, s := range r.m.practiceStates {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ===== TOPIC PRACTICE STATES =====

type memTopicState struct{ m *memoryRepository }

func (r *memTopicState) Create(ctx context.Context, tx *gorm.DB, state *models.TopicPracticeState) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if state.ID == 0 {
		state.ID = r.m.id()
	}
	r.m.topicStates[state.ID] = state
	return nil
}

func (r *memTopicState) Update(ctx context.Context, tx *gorm.DB, state *models.TopicPracticeState) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.topicStates[state.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.m.topicStates[state.ID] = state
	return nil
}

func (r *memTopicState) GetByKey(ctx context.Context, tx *gorm.DB, studentID, company, topic string) (*models.TopicPracticeState, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.topicStates {
		if s.StudentID == studentID && s.CompanyName == company && s.Topic == topic {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memTopicState) ListByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) ([]*models.TopicPracticeState, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.TopicPracticeState, 0)
	for _, s := range r.m.topicStates {
		if s.StudentID == studentID && s.CompanyName == company {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== LEARNING PATHS =====

type memLearningPath struct{ m *memoryRepository }

func (r *memLearningPath) Create(ctx context.Context, tx *gorm.DB, path *models.LearningPath) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if path.ID == 0 {
		path.ID = r.m.id()
	}
	r.m.learningPaths[path.ID] = path
	return nil
}

func (r *memLearningPath) Update(ctx context.Context, tx *gorm.DB, path *models.LearningPath) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.learningPaths[path.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.m.learningPaths[path.ID] = path
	return nil
}

func (r *memLearningPath) GetByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.LearningPath, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.learningPaths {
		if p.StudentID == studentID && p.CompanyName == company {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memLearningPath) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.LearningPath, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.LearningPath, 0)
	for _, p := range r.m.learningPaths {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== QUESTION HISTORIES =====

type memQuestionHistory struct{ m *memoryRepository }

func (r *memQuestionHistory) Create(ctx context.Context, tx *gorm.DB, history *models.QuestionHistory) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if history.ID == 0 {
		history.ID = r.m.id()
	}
	r.m.questionHistories[history.ID] = history
	return nil
}

func (r *memQuestionHistory) Update(ctx context.Context, tx *gorm.DB, history *models.QuestionHistory) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.questionHistories[history.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.m.questionHistories[history.ID] = history
	return nil
}

func (r *memQuestionHistory) GetByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.QuestionHistory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, h := range r.m.questionHistories {
		if h.StudentID == studentID && h.CompanyName == company {
			return h, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ===== QUESTION BANKS =====

type memQuestionBank struct{ m *memoryRepository }

func (r *memQuestionBank) Create(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if bank.ID == 0 {
		bank.ID = r.m.id()
	}
	r.m.questionBanks[bank.ID] = bank
	return nil
}

func (r *memQuestionBank) Update(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.questionBanks[bank.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.m.questionBanks[bank.ID] = bank
	return nil
}

func (r *memQuestionBank) GetByKey(ctx context.Context, tx *gorm.DB, company, topic, subtopic string) (*models.QuestionBank, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, b := range r.m.questionBanks {
		if b.CompanyName == company && b.Topic == topic && b.Subtopic == subtopic {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memQuestionBank) ListByCompany(ctx context.Context, tx *gorm.DB, company string) ([]*models.QuestionBank, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.QuestionBank, 0)
	for _, b := range r.m.questionBanks {
		if b.CompanyName == company {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== EXAM FORMATS =====

type memExamFormat struct{ m *memoryRepository }

func (r *memExamFormat) Create(ctx context.Context, tx *gorm.DB, format *models.ExamFormat) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if format.ID == 0 {
		format.ID = r.m.id()
	}
	r.m.examFormats[format.ID] = format
	return nil
}

func (r *memExamFormat) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamFormat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if f, ok := r.m.examFormats[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memExamFormat) ListActiveByCompany(ctx context.Context, tx *gorm.DB, company string) ([]*models.ExamFormat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.ExamFormat, 0)
	for _, f := range r.m.examFormats {
		if f.CompanyName == company && f.IsActive {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
