package mlops

import (
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"appforge/internal/spec"
	"appforge/internal/synth"
)

var (
	ErrUseCaseNotFound = errors.New("mlops: use case not found")
	ErrModelNotFound   = errors.New("mlops: model not found")
)

// TransitionError reports an illegal lifecycle move.
type TransitionError struct {
	From, To spec.UseCaseStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("mlops: cannot transition use case from %s to %s", e.From, e.To)
}

// Service drives the use-case lifecycle. Training is simulated: no real
// model is fitted, the run produces deterministic placeholder metrics that
// are always flagged simulated.
type Service struct {
	store *Store

	// Now is the clock for created/trained timestamps. Swappable in tests.
	Now func() time.Time
}

func NewService(store *Store) *Service {
	return &Service{store: store, Now: time.Now}
}

// CreateUseCase builds a use case from a request, filling gaps from the
// category template, and persists it in the configuring state.
func (s *Service) CreateUseCase(appID string, req synth.UseCaseRequest) (spec.MLUseCase, error) {
	uc := synth.BuildUseCase(req, appID, s.Now())
	s.store.PutUseCase(uc)
	s.store.Save()
	return uc, nil
}

func (s *Service) GetUseCase(id string) (spec.MLUseCase, error) {
	uc, ok := s.store.GetUseCase(id)
	if !ok {
		return spec.MLUseCase{}, ErrUseCaseNotFound
	}
	return uc, nil
}

func (s *Service) ListUseCases(appID string) []spec.MLUseCase {
	return s.store.ListUseCases(appID)
}

// TrainModel runs one simulated training pass: the use case moves to
// training and a model with placeholder metrics is recorded.
func (s *Service) TrainModel(useCaseID string) (spec.MLModel, error) {
	uc, ok := s.store.GetUseCase(useCaseID)
	if !ok {
		return spec.MLModel{}, ErrUseCaseNotFound
	}
	if err := s.transition(&uc, spec.StatusTraining); err != nil {
		return spec.MLModel{}, err
	}

	now := s.Now()
	model := spec.MLModel{
		ID:        fmt.Sprintf("%s-run-%d", uc.ID, len(s.store.ListModels(uc.ID))+1),
		UseCaseID: uc.ID,
		Family:    uc.Config.ModelFamily,
		Metrics:   simulateMetrics(uc),
		Status:    "trained",
		TrainedAt: now,
	}
	s.store.PutModel(model)
	s.store.PutUseCase(uc)
	s.store.Save()
	return model, nil
}

// DeployModel marks a trained model as deployed and moves its use case to
// the deployed state with a serving endpoint.
func (s *Service) DeployModel(modelID string) (spec.MLModel, error) {
	model, ok := s.store.GetModel(modelID)
	if !ok {
		return spec.MLModel{}, ErrModelNotFound
	}
	uc, ok := s.store.GetUseCase(model.UseCaseID)
	if !ok {
		return spec.MLModel{}, ErrUseCaseNotFound
	}
	if err := s.transition(&uc, spec.StatusDeployed); err != nil {
		return spec.MLModel{}, err
	}

	model.Status = "deployed"
	uc.Config.Deployment.Endpoint = "/api/ml/" + uc.ID + "/predict"
	s.store.PutModel(model)
	s.store.PutUseCase(uc)
	s.store.Save()
	return model, nil
}

// ArchiveUseCase retires a use case. Legal from every state except archived.
func (s *Service) ArchiveUseCase(useCaseID string) (spec.MLUseCase, error) {
	uc, ok := s.store.GetUseCase(useCaseID)
	if !ok {
		return spec.MLUseCase{}, ErrUseCaseNotFound
	}
	if err := s.transition(&uc, spec.StatusArchived); err != nil {
		return spec.MLUseCase{}, err
	}
	s.store.PutUseCase(uc)
	s.store.Save()
	return uc, nil
}

func (s *Service) ListModels(useCaseID string) []spec.MLModel {
	return s.store.ListModels(useCaseID)
}

func (s *Service) transition(uc *spec.MLUseCase, to spec.UseCaseStatus) error {
	if !spec.CanTransition(uc.Status, to) {
		return &TransitionError{From: uc.Status, To: to}
	}
	uc.Status = to
	uc.UpdatedAt = s.Now()
	return nil
}

// simulateMetrics derives placeholder evaluation numbers from the use case
// id so repeated runs report the same figures. Values land in [0.70, 0.95).
func simulateMetrics(uc spec.MLUseCase) spec.ModelMetrics {
	return spec.ModelMetrics{
		Accuracy:  simValue(uc.ID, "accuracy"),
		Precision: simValue(uc.ID, "precision"),
		Recall:    simValue(uc.ID, "recall"),
		F1:        simValue(uc.ID, "f1"),
		Simulated: true,
	}
}

func simValue(id, metric string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	_, _ = h.Write([]byte{'/'})
	_, _ = h.Write([]byte(metric))
	frac := float64(h.Sum64()%1000) / 1000
	v := 0.70 + 0.25*frac
	return float64(int(v*1000)) / 1000
}
