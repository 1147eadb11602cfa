package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateAnalysisCache drops cached analyses and downstream reads after a
// new analysis or practice update lands for a (student, company) pair.
func InvalidateAnalysisCache(ctx context.Context, cm *CacheManager, studentID, company string) {
	if err := cm.InvalidateStudentCompany(ctx, studentID, company); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate student caches",
			"error", err,
			"student_id", studentID,
			"company", company)
	}
}

// InvalidateQuestionBankCache drops cached pools for one bank key.
func InvalidateQuestionBankCache(ctx context.Context, cm *CacheManager, company, topic, subtopic string) {
	if err := cm.InvalidateQuestionBank(ctx, company, topic, subtopic); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate question bank cache",
			"error", err,
			"company", company,
			"topic", topic,
			"subtopic", subtopic)
	}
}
