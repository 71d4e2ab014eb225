// Package mlops manages the lifecycle of ML use cases and their trained
// models: persistence, simulated training runs, and deployment scaffolds.
package mlops

import (
	"database/sql"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"appforge/internal/spec"
)

// Store persists use cases and models to either a JSON file or Postgres.
// The Postgres backend is selected when a DSN is configured; the file
// backend is the zero-setup default.
type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	useCases map[string]spec.MLUseCase
	models   map[string]spec.MLModel

	schemaOnce sync.Once
	schemaErr  error

	modelCache *lru.Cache[string, []spec.MLModel]
}

func New(path string) *Store {
	return &Store{
		path:     path,
		useCases: make(map[string]spec.MLUseCase),
		models:   make(map[string]spec.MLModel),
	}
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, []spec.MLModel](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		db:         db,
		modelCache: cache,
	}, nil
}

// NewFromEnv picks Postgres when MLOPS_STORE_PG_DSN is set and reachable,
// the file backend otherwise.
func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("MLOPS_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

func (s *Store) GetUseCase(id string) (spec.MLUseCase, bool) {
	if s == nil {
		return spec.MLUseCase{}, false
	}
	if s.db != nil {
		return s.getUseCaseDB(id)
	}
	return s.getUseCaseFile(id)
}

func (s *Store) PutUseCase(uc spec.MLUseCase) {
	if s == nil {
		return
	}
	if s.db != nil {
		s.putUseCaseDB(uc)
		return
	}
	s.putUseCaseFile(uc)
}

// ListUseCases returns the use cases bound to an application, every use
// case when appID is empty.
func (s *Store) ListUseCases(appID string) []spec.MLUseCase {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.listUseCasesDB(appID)
	}
	return s.listUseCasesFile(appID)
}

func (s *Store) GetModel(id string) (spec.MLModel, bool) {
	if s == nil {
		return spec.MLModel{}, false
	}
	if s.db != nil {
		return s.getModelDB(id)
	}
	return s.getModelFile(id)
}

func (s *Store) PutModel(m spec.MLModel) {
	if s == nil {
		return
	}
	if s.db != nil {
		s.putModelDB(m)
		if s.modelCache != nil {
			s.modelCache.Remove(m.UseCaseID)
		}
		return
	}
	s.putModelFile(m)
}

func (s *Store) ListModels(useCaseID string) []spec.MLModel {
	if s == nil {
		return nil
	}
	if s.db != nil {
		if s.modelCache != nil {
			if cached, ok := s.modelCache.Get(useCaseID); ok {
				return cached
			}
		}
		models := s.listModelsDB(useCaseID)
		if s.modelCache != nil {
			s.modelCache.Add(useCaseID, models)
		}
		return models
	}
	return s.listModelsFile(useCaseID)
}

// Save flushes the file backend to disk. A no-op on Postgres, where every
// write is already durable.
func (s *Store) Save() {
	if s == nil || s.db != nil {
		return
	}
	s.saveFile()
}
