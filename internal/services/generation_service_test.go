package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/placement-prep/learning-service/internal/events"
	"github.com/placement-prep/learning-service/internal/models"
	"github.com/placement-prep/learning-service/internal/questions"
	"github.com/placement-prep/learning-service/internal/validator"
)

// fakeSource serves canned question pools keyed by topic, subtopic and
// difficulty.
type fakeSource struct {
	pools map[string][]models.Question
	err   error
}

func poolKey(topic, subtopic string, difficulty models.Difficulty) string {
	return fmt.Sprintf("%s|%s|%s", topic, subtopic, difficulty)
}

func (f *fakeSource) Fetch(ctx context.Context, company, topic, subtopic string, difficulty models.Difficulty) ([]models.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pools[poolKey(topic, subtopic, difficulty)], nil
}

type fakeGenerator struct {
	questions []models.Question
	err       error
	calls     int
	lastCount int
}

func (f *fakeGenerator) Generate(ctx context.Context, topic string, count int, difficulty models.Difficulty) ([]models.Question, error) {
	f.calls++
	f.lastCount = count
	if f.err != nil {
		return nil, f.err
	}
	return f.questions, nil
}

func questionPool(prefix string, n int) []models.Question {
	out := make([]models.Question, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, question(fmt.Sprintf("%s%d", prefix, i), "A"))
	}
	return out
}

func newGenerationFixture(t *testing.T, source *fakeSource, generator *fakeGenerator) (*memoryRepository, *events.MockEventPublisher, GenerationService) {
	t.Helper()
	repo := newMemoryRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	// A typed nil pointer would defeat the service's nil generator check.
	var g questions.Generator
	if generator != nil {
		g = generator
	}
	svc := NewGenerationService(repo, source, g, publisher, testLogger(), validator.New(), testThresholds(), testGeneration())
	return repo, publisher, svc
}

// seedWeakAnalysis stores an analysis with the given sections and the practice
// state pointing at it.
func seedWeakAnalysis(t *testing.T, repo *memoryRepository, studentID, company string, sections []models.SectionResult) (*models.PracticeState, *models.ExamAnalysis) {
	t.Helper()
	ctx := context.Background()

	analysis := &models.ExamAnalysis{
		StudentID:    studentID,
		CompanyName:  company,
		AttemptID:    500,
		AssessmentID: 501,
		Sections:     sections,
		CycleNumber:  1,
		AnalyzedAt:   time.Now(),
	}
	if err := repo.Analysis().Create(ctx, nil, analysis); err != nil {
		t.Fatalf("seed analysis: %v", err)
	}

	state := &models.PracticeState{
		StudentID:           studentID,
		CompanyName:         company,
		QualificationStatus: models.QualificationActive,
		CurrentDifficulty:   models.DifficultyEasy,
		LatestAnalysisID:    analysis.ID,
	}
	if err := repo.PracticeState().Create(ctx, nil, state); err != nil {
		t.Fatalf("seed practice state: %v", err)
	}
	return state, analysis
}

func weakSection(name, topic, subtopic string, pct int) models.SectionResult {
	status := models.SectionWeak
	if pct >= 50 {
		status = models.SectionAverage
	}
	return models.SectionResult{
		SectionName: name,
		Topic:       topic,
		Subtopic:    subtopic,
		Difficulty:  models.DifficultyEasy,
		Percentage:  pct,
		Status:      status,
	}
}

func TestGenerateTargetedAssessmentRequiresPracticeState(t *testing.T) {
	_, _, svc := newGenerationFixture(t, &fakeSource{}, nil)

	_, err := svc.GenerateTargetedAssessment(context.Background(), &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme"})
	if !errors.Is(err, ErrAnalysisNotFound) {
		t.Errorf("expected ErrAnalysisNotFound, got %v", err)
	}
}

func TestGenerateTargetedAssessmentRejectsQualified(t *testing.T) {
	repo, _, svc := newGenerationFixture(t, &fakeSource{}, nil)
	state, _ := seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{weakSection("Quant", "Quant", "Algebra", 30)})
	state.QualificationStatus = models.QualificationQualified
	if err := repo.PracticeState().Update(context.Background(), nil, state); err != nil {
		t.Fatalf("update state: %v", err)
	}

	_, err := svc.GenerateTargetedAssessment(context.Background(), &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme"})
	if !errors.Is(err, ErrAlreadyQualified) {
		t.Errorf("expected ErrAlreadyQualified, got %v", err)
	}
}

func TestGenerateTargetedAssessmentNoWeakAreas(t *testing.T) {
	repo, _, svc := newGenerationFixture(t, &fakeSource{}, nil)
	seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{
		{SectionName: "Quant", Topic: "Quant", Percentage: 90, Status: models.SectionStrong},
	})

	_, err := svc.GenerateTargetedAssessment(context.Background(), &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme"})
	if !errors.Is(err, ErrNoWeakAreas) {
		t.Errorf("expected ErrNoWeakAreas, got %v", err)
	}
}

func TestGenerateTargetedAssessmentHappyPath(t *testing.T) {
	source := &fakeSource{pools: map[string][]models.Question{
		poolKey("Arrays", "Sorting", models.DifficultyEasy): questionPool("q", 8),
	}}
	repo, publisher, svc := newGenerationFixture(t, source, nil)
	ctx := context.Background()

	state, analysis := seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{
		weakSection("Arrays", "Arrays", "Sorting", 30),
	})
	if err := repo.LearningPath().Create(ctx, nil, &models.LearningPath{
		StudentID: "s1", CompanyName: "Acme", Status: models.QualificationActive, CurrentCycle: 1, RetakeEligible: true,
	}); err != nil {
		t.Fatalf("seed learning path: %v", err)
	}

	assessment, err := svc.GenerateTargetedAssessment(ctx, &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("GenerateTargetedAssessment: %v", err)
	}

	if assessment.Title != "Arrays - Sorting #1" {
		t.Errorf("Title = %q, want %q", assessment.Title, "Arrays - Sorting #1")
	}
	if assessment.AssessmentType != models.TypePractice || !assessment.IsSystemGenerated {
		t.Error("expected a system-generated practice assessment")
	}
	if assessment.AssignedStudent == nil || *assessment.AssignedStudent != "s1" {
		t.Errorf("AssignedStudent = %v, want s1", assessment.AssignedStudent)
	}
	if got := assessment.QuestionCount(); got != 5 {
		t.Errorf("QuestionCount = %d, want 5 per weak area", got)
	}
	if assessment.Duration != 10 {
		t.Errorf("Duration = %d, want 10 minutes", assessment.Duration)
	}
	if assessment.TotalMarks != 5 {
		t.Errorf("TotalMarks = %d, want 5", assessment.TotalMarks)
	}
	if len(assessment.Sections) != 1 || assessment.Sections[0].SectionName != "Targeted Practice" {
		t.Errorf("Sections = %v, want one Targeted Practice section", assessment.Sections)
	}
	if assessment.SourceAssessmentID == nil || *assessment.SourceAssessmentID != analysis.AssessmentID {
		t.Errorf("SourceAssessmentID = %v, want %d", assessment.SourceAssessmentID, analysis.AssessmentID)
	}
	for _, q := range assessment.Sections[0].Questions {
		if q.Marks != 1 {
			t.Errorf("question %s Marks = %d, want default 1", q.ID, q.Marks)
		}
	}

	got, err := repo.PracticeState().GetByStudentAndCompany(ctx, nil, "s1", "Acme")
	if err != nil {
		t.Fatalf("practice state: %v", err)
	}
	if got.ID != state.ID || !got.AssessmentsGenerated {
		t.Error("expected AssessmentsGenerated = true on the same state")
	}
	if len(got.GeneratedAssessmentIDs) != 1 || got.GeneratedAssessmentIDs[0] != assessment.ID {
		t.Errorf("GeneratedAssessmentIDs = %v, want [%d]", got.GeneratedAssessmentIDs, assessment.ID)
	}
	if len(got.AttemptedQuestionIDs) != 5 {
		t.Errorf("AttemptedQuestionIDs = %v, want the 5 served ids", got.AttemptedQuestionIDs)
	}

	path, err := repo.LearningPath().GetByStudentAndCompany(ctx, nil, "s1", "Acme")
	if err != nil {
		t.Fatalf("learning path: %v", err)
	}
	if len(path.ActiveAssessments) != 1 || path.ActiveAssessments[0] != assessment.ID {
		t.Errorf("ActiveAssessments = %v, want [%d]", path.ActiveAssessments, assessment.ID)
	}
	if path.RetakeEligible {
		t.Error("RetakeEligible should reset while a generated assessment is open")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventAssessmentGenerated {
		t.Errorf("expected one %s event, got %v", events.EventAssessmentGenerated, published)
	}
}

func TestGenerateTargetedAssessmentExcludesAttemptedQuestions(t *testing.T) {
	source := &fakeSource{pools: map[string][]models.Question{
		poolKey("Arrays", "Sorting", models.DifficultyEasy): questionPool("q", 10),
	}}
	repo, _, svc := newGenerationFixture(t, source, nil)
	ctx := context.Background()

	state, _ := seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{
		weakSection("Arrays", "Arrays", "Sorting", 30),
	})
	state.AttemptedQuestionIDs = []string{"q1", "q2", "q3"}
	if err := repo.PracticeState().Update(ctx, nil, state); err != nil {
		t.Fatalf("update state: %v", err)
	}

	assessment, err := svc.GenerateTargetedAssessment(ctx, &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("GenerateTargetedAssessment: %v", err)
	}

	if got := assessment.QuestionCount(); got != 5 {
		t.Fatalf("QuestionCount = %d, want 5", got)
	}
	for _, q := range assessment.Sections[0].Questions {
		for _, seen := range []string{"q1", "q2", "q3"} {
			if q.ID == seen {
				t.Errorf("previously served question %s was selected again", seen)
			}
		}
	}
}

func TestGenerateTargetedAssessmentRelaxesExclusionWhenPoolIsSmall(t *testing.T) {
	source := &fakeSource{pools: map[string][]models.Question{
		poolKey("Arrays", "Sorting", models.DifficultyEasy): questionPool("q", 3),
	}}
	repo, _, svc := newGenerationFixture(t, source, nil)
	ctx := context.Background()

	state, _ := seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{
		weakSection("Arrays", "Arrays", "Sorting", 30),
	})
	state.AttemptedQuestionIDs = []string{"q1", "q2", "q3"}
	if err := repo.PracticeState().Update(ctx, nil, state); err != nil {
		t.Fatalf("update state: %v", err)
	}

	assessment, err := svc.GenerateTargetedAssessment(ctx, &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("GenerateTargetedAssessment: %v", err)
	}
	if got := assessment.QuestionCount(); got != 3 {
		t.Errorf("QuestionCount = %d, want the full relaxed pool of 3", got)
	}
}

func TestGenerateTargetedAssessmentResumeGeneratorFallback(t *testing.T) {
	source := &fakeSource{pools: map[string][]models.Question{
		poolKey("Go", "Concurrency", models.DifficultyEasy): questionPool("q", 2),
	}}
	generator := &fakeGenerator{questions: questionPool("gen", 3)}
	repo, _, svc := newGenerationFixture(t, source, generator)
	ctx := context.Background()

	seedWeakAnalysis(t, repo, "s1", resumeCompany, []models.SectionResult{
		weakSection("Go", "Go", "Concurrency", 30),
	})

	assessment, err := svc.GenerateTargetedAssessment(ctx, &GenerateAssessmentRequest{StudentID: "s1", CompanyName: resumeCompany})
	if err != nil {
		t.Fatalf("GenerateTargetedAssessment: %v", err)
	}
	if generator.calls != 1 {
		t.Errorf("generator calls = %d, want 1", generator.calls)
	}
	if generator.lastCount != 3 {
		t.Errorf("generator asked for %d questions, want 3", generator.lastCount)
	}
	if got := assessment.QuestionCount(); got != 5 {
		t.Errorf("QuestionCount = %d, want 5 after generator fill", got)
	}
}

func TestGenerateTargetedAssessmentToleratesGeneratorFailure(t *testing.T) {
	source := &fakeSource{pools: map[string][]models.Question{
		poolKey("Go", "Concurrency", models.DifficultyEasy): questionPool("q", 2),
	}}
	generator := &fakeGenerator{err: errors.New("generator down")}
	repo, _, svc := newGenerationFixture(t, source, generator)

	seedWeakAnalysis(t, repo, "s1", resumeCompany, []models.SectionResult{
		weakSection("Go", "Go", "Concurrency", 30),
	})

	assessment, err := svc.GenerateTargetedAssessment(context.Background(), &GenerateAssessmentRequest{StudentID: "s1", CompanyName: resumeCompany})
	if err != nil {
		t.Fatalf("GenerateTargetedAssessment: %v", err)
	}
	if got := assessment.QuestionCount(); got != 2 {
		t.Errorf("QuestionCount = %d, want the 2 bank questions", got)
	}
}

func TestGenerateTargetedAssessmentNoQuestionsAvailable(t *testing.T) {
	repo, _, svc := newGenerationFixture(t, &fakeSource{}, nil)
	seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{
		weakSection("Arrays", "Arrays", "Sorting", 30),
	})

	_, err := svc.GenerateTargetedAssessment(context.Background(), &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme"})
	if !errors.Is(err, ErrNoQuestionsAvailable) {
		t.Errorf("expected ErrNoQuestionsAvailable, got %v", err)
	}
}

func TestGenerateTargetedAssessmentCapsTotal(t *testing.T) {
	pools := make(map[string][]models.Question)
	sections := make([]models.SectionResult, 0, 5)
	for i := 1; i <= 5; i++ {
		sub := fmt.Sprintf("Sub%d", i)
		pools[poolKey("Quant", sub, models.DifficultyEasy)] = questionPool(fmt.Sprintf("s%dq", i), 5)
		sections = append(sections, weakSection(sub, "Quant", sub, 30))
	}
	repo, _, svc := newGenerationFixture(t, &fakeSource{pools: pools}, nil)
	seedWeakAnalysis(t, repo, "s1", "Acme", sections)

	assessment, err := svc.GenerateTargetedAssessment(context.Background(), &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("GenerateTargetedAssessment: %v", err)
	}
	if got := assessment.QuestionCount(); got != 20 {
		t.Errorf("QuestionCount = %d, want the 20 question cap", got)
	}
}

func TestGenerateTargetedAssessmentPicksWeakestTopic(t *testing.T) {
	source := &fakeSource{pools: map[string][]models.Question{
		poolKey("Verbal", "Grammar", models.DifficultyEasy): questionPool("v", 6),
		poolKey("Quant", "Algebra", models.DifficultyEasy):  questionPool("q", 6),
	}}
	repo, _, svc := newGenerationFixture(t, source, nil)
	seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{
		weakSection("Quant", "Quant", "Algebra", 45),
		weakSection("Verbal", "Verbal", "Grammar", 20),
	})

	assessment, err := svc.GenerateTargetedAssessment(context.Background(), &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("GenerateTargetedAssessment: %v", err)
	}
	if assessment.Sections[0].Topic != "Verbal" {
		t.Errorf("picked topic %q, want the lowest-scoring Verbal", assessment.Sections[0].Topic)
	}
}

func TestGenerateTargetedAssessmentHonorsRequestedTopic(t *testing.T) {
	source := &fakeSource{pools: map[string][]models.Question{
		poolKey("Quant", "Algebra", models.DifficultyEasy): questionPool("q", 6),
	}}
	repo, _, svc := newGenerationFixture(t, source, nil)
	seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{
		weakSection("Quant", "Quant", "Algebra", 45),
		weakSection("Verbal", "Verbal", "Grammar", 20),
	})

	assessment, err := svc.GenerateTargetedAssessment(context.Background(), &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme", Topic: "Quant"})
	if err != nil {
		t.Fatalf("GenerateTargetedAssessment: %v", err)
	}
	if assessment.Sections[0].Topic != "Quant" {
		t.Errorf("picked topic %q, want requested Quant", assessment.Sections[0].Topic)
	}

	// A topic with no weak sections has nothing to target.
	_, err = svc.GenerateTargetedAssessment(context.Background(), &GenerateAssessmentRequest{StudentID: "s2", CompanyName: "Acme", Topic: "Coding"})
	if !errors.Is(err, ErrAnalysisNotFound) {
		t.Errorf("expected ErrAnalysisNotFound for unknown student, got %v", err)
	}
}

func TestGenerateTargetedAssessmentUnknownTopicIsNoWeakAreas(t *testing.T) {
	repo, _, svc := newGenerationFixture(t, &fakeSource{}, nil)
	seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{
		weakSection("Quant", "Quant", "Algebra", 45),
	})

	_, err := svc.GenerateTargetedAssessment(context.Background(), &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme", Topic: "Coding"})
	if !errors.Is(err, ErrNoWeakAreas) {
		t.Errorf("expected ErrNoWeakAreas, got %v", err)
	}
}

func TestGenerateTargetedAssessmentTitleCounts(t *testing.T) {
	source := &fakeSource{pools: map[string][]models.Question{
		poolKey("Arrays", "Sorting", models.DifficultyEasy): questionPool("q", 20),
	}}
	repo, _, svc := newGenerationFixture(t, source, nil)
	ctx := context.Background()
	seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{
		weakSection("Arrays", "Arrays", "Sorting", 30),
	})

	first, err := svc.GenerateTargetedAssessment(ctx, &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("first generation: %v", err)
	}
	second, err := svc.GenerateTargetedAssessment(ctx, &GenerateAssessmentRequest{StudentID: "s1", CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("second generation: %v", err)
	}

	if first.Title != "Arrays - Sorting #1" || second.Title != "Arrays - Sorting #2" {
		t.Errorf("titles = %q, %q; want #1 then #2", first.Title, second.Title)
	}
}

func TestGetRecommendedAssessments(t *testing.T) {
	repo, _, svc := newGenerationFixture(t, &fakeSource{}, nil)
	ctx := context.Background()

	seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{
		weakSection("Quant A", "Quant", "Algebra", 30),
		weakSection("Quant B", "Quant", "Geometry", 50),
		weakSection("Verbal", "Verbal", "Grammar", 60),
	})
	if err := repo.TopicPracticeState().Create(ctx, nil, &models.TopicPracticeState{
		StudentID: "s1", CompanyName: "Acme", Topic: "Quant",
		Difficulty: models.DifficultyMedium, LastPracticeScore: 75, ImprovementPct: 35,
	}); err != nil {
		t.Fatalf("seed topic state: %v", err)
	}

	recs, err := svc.GetRecommendedAssessments(ctx, "s1")
	if err != nil {
		t.Fatalf("GetRecommendedAssessments: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}

	quant := recs[0]
	if quant.Topic != "Quant" {
		t.Fatalf("first recommendation topic = %q, want Quant", quant.Topic)
	}
	if quant.WeakAreasCount != 2 {
		t.Errorf("WeakAreasCount = %d, want 2", quant.WeakAreasCount)
	}
	if quant.AveragePercentage != 40 {
		t.Errorf("AveragePercentage = %d, want 40", quant.AveragePercentage)
	}
	if quant.LastPracticeScore != 75 || quant.Improvement != 35 {
		t.Errorf("topic overlay = %d/%d, want 75/35", quant.LastPracticeScore, quant.Improvement)
	}
	if quant.Difficulty != models.DifficultyMedium {
		t.Errorf("Difficulty = %q, want Medium from the topic state", quant.Difficulty)
	}
	if quant.HasActiveAssessment {
		t.Error("no generated assessment is outstanding")
	}

	if recs[1].Topic != "Verbal" || recs[1].AveragePercentage != 60 {
		t.Errorf("second recommendation = %+v, want Verbal at 60", recs[1])
	}
}

func TestGetRecommendedAssessmentsFlagsOutstandingAssessment(t *testing.T) {
	repo, _, svc := newGenerationFixture(t, &fakeSource{}, nil)
	ctx := context.Background()

	state, _ := seedWeakAnalysis(t, repo, "s1", "Acme", []models.SectionResult{
		weakSection("Quant", "Quant", "Algebra", 30),
	})

	student := "s1"
	assessment := &models.Assessment{
		Title: "Quant - Algebra #1", CompanyName: "Acme", AssessmentType: models.TypePractice,
		Duration: 10, TotalMarks: 5, IsSystemGenerated: true,
		AssignedStudent: &student, AllowedStudents: []string{"s1"},
	}
	if err := repo.Assessment().Create(ctx, nil, assessment); err != nil {
		t.Fatalf("seed assessment: %v", err)
	}
	state.GeneratedAssessmentIDs = []uint{assessment.ID}
	if err := repo.PracticeState().Update(ctx, nil, state); err != nil {
		t.Fatalf("update state: %v", err)
	}

	recs, err := svc.GetRecommendedAssessments(ctx, "s1")
	if err != nil {
		t.Fatalf("GetRecommendedAssessments: %v", err)
	}
	if len(recs) != 1 || !recs[0].HasActiveAssessment {
		t.Fatalf("expected an outstanding assessment flag, got %+v", recs)
	}
	if recs[0].ActiveAssessmentID == nil || *recs[0].ActiveAssessmentID != assessment.ID {
		t.Errorf("ActiveAssessmentID = %v, want %d", recs[0].ActiveAssessmentID, assessment.ID)
	}

	// A submitted attempt closes the outstanding window.
	now := time.Now()
	if err := repo.Attempt().Create(ctx, nil, &models.Attempt{
		AssessmentID: assessment.ID, StudentID: "s1", Status: models.AttemptSubmitted, SubmittedAt: &now,
	}); err != nil {
		t.Fatalf("seed attempt: %v", err)
	}
	recs, err = svc.GetRecommendedAssessments(ctx, "s1")
	if err != nil {
		t.Fatalf("GetRecommendedAssessments: %v", err)
	}
	if recs[0].HasActiveAssessment {
		t.Error("submitted attempt should clear the outstanding flag")
	}
}

func TestGetTargetedAssessmentsGroupsBySource(t *testing.T) {
	repo, _, svc := newGenerationFixture(t, &fakeSource{}, nil)
	ctx := context.Background()

	student := "s1"
	sourceA := uint(100)
	sourceB := uint(200)
	seedTargeted := func(title string, source *uint) *models.Assessment {
		a := &models.Assessment{
			Title: title, CompanyName: "Acme", AssessmentType: models.TypePractice,
			Duration: 10, TotalMarks: 5, IsSystemGenerated: true,
			AssignedStudent: &student, AllowedStudents: []string{"s1"},
			Sections: []models.Section{{
				SectionName: "Targeted Practice", Topic: "Arrays", Questions: questionPool("q", 5),
			}},
			SourceAssessmentID: source,
		}
		if err := repo.Assessment().Create(ctx, nil, a); err != nil {
			t.Fatalf("seed assessment: %v", err)
		}
		return a
	}

	first := seedTargeted("Arrays - Sorting #1", &sourceA)
	seedTargeted("Arrays - Sorting #2", &sourceA)
	seedTargeted("Arrays - Search #1", &sourceB)

	now := time.Now()
	for _, pct := range []float64{60, 80} {
		if err := repo.Attempt().Create(ctx, nil, &models.Attempt{
			AssessmentID: first.ID, StudentID: "s1", Status: models.AttemptSubmitted, Percentage: pct, SubmittedAt: &now,
		}); err != nil {
			t.Fatalf("seed attempt: %v", err)
		}
	}

	groups, err := svc.GetTargetedAssessments(ctx, "s1")
	if err != nil {
		t.Fatalf("GetTargetedAssessments: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if len(groups[0].Assessments) != 2 || len(groups[1].Assessments) != 1 {
		t.Fatalf("group sizes = %d/%d, want 2/1", len(groups[0].Assessments), len(groups[1].Assessments))
	}

	view := groups[0].Assessments[0]
	if !view.Attempted {
		t.Error("expected first assessment marked attempted")
	}
	if view.AverageScore != 70 {
		t.Errorf("AverageScore = %v, want 70", view.AverageScore)
	}
	if view.Topic != "Arrays" || view.QuestionCount != 5 {
		t.Errorf("view = %+v, want Arrays with 5 questions", view)
	}
	if groups[0].Assessments[1].Attempted {
		t.Error("second assessment has no attempts")
	}
}

func TestGetTargetedAssessmentsEmpty(t *testing.T) {
	_, _, svc := newGenerationFixture(t, &fakeSource{}, nil)

	groups, err := svc.GetTargetedAssessments(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetTargetedAssessments: %v", err)
	}
	if groups == nil || len(groups) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", groups)
	}
}
