package mlops

import (
	"database/sql"
	"encoding/json"
	"strings"

	"appforge/internal/spec"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS ml_use_cases (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT 'custom',
  app_id TEXT NOT NULL DEFAULT '',
  config JSONB NOT NULL DEFAULT '{}',
  status TEXT NOT NULL DEFAULT 'configuring',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ml_use_cases_app_id ON ml_use_cases (app_id);

CREATE TABLE IF NOT EXISTS ml_models (
  id TEXT PRIMARY KEY,
  use_case_id TEXT NOT NULL,
  family TEXT NOT NULL DEFAULT '',
  metrics JSONB NOT NULL DEFAULT '{}',
  status TEXT NOT NULL DEFAULT 'trained',
  trained_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ml_models_use_case_id ON ml_models (use_case_id);
`)
	})
	return s.schemaErr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUseCase(row rowScanner) (spec.MLUseCase, bool) {
	var (
		uc     spec.MLUseCase
		config []byte
	)
	err := row.Scan(&uc.ID, &uc.Name, &uc.Category, &uc.AppID, &config, &uc.Status, &uc.CreatedAt, &uc.UpdatedAt)
	if err != nil {
		return spec.MLUseCase{}, false
	}
	if len(config) > 0 {
		_ = json.Unmarshal(config, &uc.Config)
	}
	return uc, true
}

const useCaseColumns = `id, name, category, app_id, config, status, created_at, updated_at`

func (s *Store) getUseCaseDB(id string) (spec.MLUseCase, bool) {
	if err := s.ensureSchema(); err != nil {
		return spec.MLUseCase{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return spec.MLUseCase{}, false
	}
	row := s.db.QueryRow(`SELECT `+useCaseColumns+` FROM ml_use_cases WHERE id = $1`, id)
	return scanUseCase(row)
}

func (s *Store) putUseCaseDB(uc spec.MLUseCase) {
	if err := s.ensureSchema(); err != nil {
		return
	}
	if strings.TrimSpace(uc.ID) == "" {
		return
	}
	config, err := json.Marshal(uc.Config)
	if err != nil {
		return
	}
	_, _ = s.db.Exec(`
INSERT INTO ml_use_cases (id, name, category, app_id, config, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id)
DO UPDATE SET name=EXCLUDED.name,
  category=EXCLUDED.category,
  app_id=EXCLUDED.app_id,
  config=EXCLUDED.config,
  status=EXCLUDED.status,
  updated_at=EXCLUDED.updated_at`,
		uc.ID, uc.Name, string(uc.Category), uc.AppID, config, string(uc.Status), uc.CreatedAt, uc.UpdatedAt)
}

func (s *Store) listUseCasesDB(appID string) []spec.MLUseCase {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	appID = strings.TrimSpace(appID)
	var (
		rows *sql.Rows
		err  error
	)
	if appID == "" {
		rows, err = s.db.Query(`SELECT ` + useCaseColumns + ` FROM ml_use_cases ORDER BY id`)
	} else {
		rows, err = s.db.Query(`SELECT `+useCaseColumns+` FROM ml_use_cases WHERE app_id = $1 ORDER BY id`, appID)
	}
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]spec.MLUseCase, 0, 16)
	for rows.Next() {
		if uc, ok := scanUseCase(rows); ok {
			out = append(out, uc)
		}
	}
	return out
}

func scanModel(row rowScanner) (spec.MLModel, bool) {
	var (
		m       spec.MLModel
		metrics []byte
	)
	err := row.Scan(&m.ID, &m.UseCaseID, &m.Family, &metrics, &m.Status, &m.TrainedAt)
	if err != nil {
		return spec.MLModel{}, false
	}
	if len(metrics) > 0 {
		_ = json.Unmarshal(metrics, &m.Metrics)
	}
	return m, true
}

const modelColumns = `id, use_case_id, family, metrics, status, trained_at`

func (s *Store) getModelDB(id string) (spec.MLModel, bool) {
	if err := s.ensureSchema(); err != nil {
		return spec.MLModel{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return spec.MLModel{}, false
	}
	row := s.db.QueryRow(`SELECT `+modelColumns+` FROM ml_models WHERE id = $1`, id)
	return scanModel(row)
}

func (s *Store) putModelDB(m spec.MLModel) {
	if err := s.ensureSchema(); err != nil {
		return
	}
	if strings.TrimSpace(m.ID) == "" {
		return
	}
	metrics, err := json.Marshal(m.Metrics)
	if err != nil {
		return
	}
	_, _ = s.db.Exec(`
INSERT INTO ml_models (id, use_case_id, family, metrics, status, trained_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id)
DO UPDATE SET family=EXCLUDED.family,
  metrics=EXCLUDED.metrics,
  status=EXCLUDED.status,
  trained_at=EXCLUDED.trained_at`,
		m.ID, m.UseCaseID, m.Family, metrics, m.Status, m.TrainedAt)
}

func (s *Store) listModelsDB(useCaseID string) []spec.MLModel {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	useCaseID = strings.TrimSpace(useCaseID)
	var (
		rows *sql.Rows
		err  error
	)
	if useCaseID == "" {
		rows, err = s.db.Query(`SELECT ` + modelColumns + ` FROM ml_models ORDER BY id`)
	} else {
		rows, err = s.db.Query(`SELECT `+modelColumns+` FROM ml_models WHERE use_case_id = $1 ORDER BY id`, useCaseID)
	}
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]spec.MLModel, 0, 8)
	for rows.Next() {
		if m, ok := scanModel(rows); ok {
			out = append(out, m)
		}
	}
	return out
}
