package mlops

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"appforge/internal/spec"
)

type fileSnapshot struct {
	UseCases []spec.MLUseCase `json:"use_cases"`
	Models   []spec.MLModel   `json:"models"`
}

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var snap fileSnapshot
		if err := json.Unmarshal(b, &snap); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, uc := range snap.UseCases {
			if strings.TrimSpace(uc.ID) == "" {
				continue
			}
			s.useCases[uc.ID] = uc
		}
		for _, m := range snap.Models {
			if strings.TrimSpace(m.ID) == "" {
				continue
			}
			s.models[m.ID] = m
		}
	})
}

func (s *Store) saveFile() {
	s.ensureLoadedFile()
	s.mu.RLock()
	snap := fileSnapshot{
		UseCases: make([]spec.MLUseCase, 0, len(s.useCases)),
		Models:   make([]spec.MLModel, 0, len(s.models)),
	}
	for _, uc := range s.useCases {
		snap.UseCases = append(snap.UseCases, uc)
	}
	for _, m := range s.models {
		snap.Models = append(snap.Models, m)
	}
	s.mu.RUnlock()

	sort.Slice(snap.UseCases, func(i, j int) bool { return snap.UseCases[i].ID < snap.UseCases[j].ID })
	sort.Slice(snap.Models, func(i, j int) bool { return snap.Models[i].ID < snap.Models[j].ID })

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, b, 0o644)
}

func (s *Store) getUseCaseFile(id string) (spec.MLUseCase, bool) {
	s.ensureLoadedFile()
	id = strings.TrimSpace(id)
	if id == "" {
		return spec.MLUseCase{}, false
	}
	s.mu.RLock()
	uc, ok := s.useCases[id]
	s.mu.RUnlock()
	return uc, ok
}

func (s *Store) putUseCaseFile(uc spec.MLUseCase) {
	s.ensureLoadedFile()
	if strings.TrimSpace(uc.ID) == "" {
		return
	}
	s.mu.Lock()
	s.useCases[uc.ID] = uc
	s.mu.Unlock()
}

func (s *Store) listUseCasesFile(appID string) []spec.MLUseCase {
	s.ensureLoadedFile()
	appID = strings.TrimSpace(appID)
	s.mu.RLock()
	out := make([]spec.MLUseCase, 0, len(s.useCases))
	for _, uc := range s.useCases {
		if appID != "" && uc.AppID != appID {
			continue
		}
		out = append(out, uc)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) getModelFile(id string) (spec.MLModel, bool) {
	s.ensureLoadedFile()
	id = strings.TrimSpace(id)
	if id == "" {
		return spec.MLModel{}, false
	}
	s.mu.RLock()
	m, ok := s.models[id]
	s.mu.RUnlock()
	return m, ok
}

func (s *Store) putModelFile(m spec.MLModel) {
	s.ensureLoadedFile()
	if strings.TrimSpace(m.ID) == "" {
		return
	}
	s.mu.Lock()
	s.models[m.ID] = m
	s.mu.Unlock()
}

func (s *Store) listModelsFile(useCaseID string) []spec.MLModel {
	s.ensureLoadedFile()
	useCaseID = strings.TrimSpace(useCaseID)
	s.mu.RLock()
	out := make([]spec.MLModel, 0, 8)
	for _, m := range s.models {
		if useCaseID != "" && m.UseCaseID != useCaseID {
			continue
		}
		out = append(out, m)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
