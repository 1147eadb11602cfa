package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/placement-prep/learning-service/internal/cache"
	"github.com/placement-prep/learning-service/internal/config"
	"github.com/placement-prep/learning-service/internal/events"
	"github.com/placement-prep/learning-service/internal/questions"
	"github.com/placement-prep/learning-service/internal/repositories"
	"github.com/placement-prep/learning-service/internal/validator"
)

// serviceManager implements ServiceManager. Services are wired once in
// Initialize; getters panic when called before that.
type serviceManager struct {
	cfg            *config.Config
	repo           repositories.Repository
	cacheManager   *cache.CacheManager
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator

	analysisService   AnalysisService
	generationService GenerationService
	progressService   ProgressService
	attemptService    AttemptService
	placementService  PlacementService
	exportService     ExportService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(
	cfg *config.Config,
	repo repositories.Repository,
	cacheManager *cache.CacheManager,
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) ServiceManager {
	return &serviceManager{
		cfg:            cfg,
		repo:           repo,
		cacheManager:   cacheManager,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
	}
}

// Initialize wires up all services and their shared question sources.
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	source := questions.NewBankSource(sm.repo.QuestionBank(), sm.logger)

	var generator questions.Generator
	if sm.cfg.QuestionGeneratorURL != "" {
		generator = questions.NewGeneratorClient(sm.cfg.QuestionGeneratorURL, sm.cfg.QuestionGeneratorTimeout, sm.logger)
		sm.logger.Info("Question generator client initialized", "base_url", sm.cfg.QuestionGeneratorURL)
	}

	sm.analysisService = NewAnalysisService(sm.repo, sm.eventPublisher, sm.logger, sm.validator, sm.cfg.Thresholds)
	sm.logger.Info("Analysis service initialized")

	sm.generationService = NewGenerationService(sm.repo, source, generator, sm.eventPublisher, sm.logger, sm.validator, sm.cfg.Thresholds, sm.cfg.Generation)
	sm.logger.Info("Generation service initialized")

	sm.progressService = NewProgressService(sm.repo, sm.cacheManager, sm.logger)
	sm.logger.Info("Progress service initialized")

	sm.attemptService = NewAttemptService(sm.repo, sm.analysisService, sm.eventPublisher, sm.logger, sm.validator)
	sm.logger.Info("Attempt service initialized")

	sm.placementService = NewPlacementService(sm.repo, source, generator, sm.logger, sm.validator, sm.cfg.Thresholds)
	sm.logger.Info("Placement service initialized")

	sm.exportService = NewExportService(sm.progressService, sm.logger)
	sm.logger.Info("Export service initialized")

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// ===== SERVICE GETTERS =====

func (sm *serviceManager) Analysis() AnalysisService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.analysisService
}

func (sm *serviceManager) Generation() GenerationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.generationService
}

func (sm *serviceManager) Progress() ProgressService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.progressService
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.attemptService
}

func (sm *serviceManager) Placement() PlacementService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.placementService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.exportService
}

// ===== HEALTH AND LIFECYCLE =====

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.eventPublisher != nil {
		if err := sm.eventPublisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
