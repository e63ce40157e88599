package services

import (
	"fmt"

	"go.uber.org/atomic"

	"trwlexporter/internal/models"
	"trwlexporter/internal/structures"
)

// ExporterServiceInterface is the seam between the poll side (merge, status
// transitions, persistence) and the read-only render side (snapshots).
type ExporterServiceInterface interface {
	Accounts() []*models.AccountState
	Account(id string) (*models.AccountState, bool)
	Merge(id string, batch []models.CheckIn) (models.MergeResult, error)
	MarkErrored(id string, reason string)
	ErroredCount() int
	MergedTotal() int64
	GetSnapshot() *models.Storage
	PutSnapshot(storage *models.Storage)
}

type ExporterService struct {
	store       *models.AccountStore
	mergedTotal atomic.Int64
}

func NewExporterService(conf *structures.Config) ExporterServiceInterface {
	store := models.NewAccountStore()
	for _, acc := range conf.Accounts {
		store.Add(acc.ID, acc.Label)
	}
	return &ExporterService{store: store}
}

func (es *ExporterService) Accounts() []*models.AccountState {
	return es.store.All()
}

func (es *ExporterService) Account(id string) (*models.AccountState, bool) {
	return es.store.Get(id)
}

// Merge folds one fetched page into the account's aggregate. Same-account
// calls serialize on the aggregate's write lock; different accounts do not
// contend.
func (es *ExporterService) Merge(id string, batch []models.CheckIn) (models.MergeResult, error) {
	state, ok := es.store.Get(id)
	if !ok {
		return models.MergeResult{}, fmt.Errorf("merge: unknown account %q", id)
	}
	res := state.Aggregate.Merge(batch)
	es.mergedTotal.Add(int64(res.Merged))
	return res, nil
}

func (es *ExporterService) MarkErrored(id string, reason string) {
	if state, ok := es.store.Get(id); ok {
		state.MarkErrored(reason)
	}
}

func (es *ExporterService) ErroredCount() int {
	n := 0
	for _, state := range es.store.All() {
		if !state.Up() {
			n++
		}
	}
	return n
}

// MergedTotal is the number of records merged since startup (restores not
// included), read lock-free by the health endpoint.
func (es *ExporterService) MergedTotal() int64 {
	return es.mergedTotal.Load()
}

// GetSnapshot builds the persistence form of the whole store.
func (es *ExporterService) GetSnapshot() *models.Storage {
	storage := &models.Storage{Accounts: make(map[string]*models.AccountData, es.store.Len())}
	for _, state := range es.store.All() {
		seen, err := state.Aggregate.ExportSeen()
		if err != nil {
			continue
		}
		storage.Accounts[state.ID] = &models.AccountData{
			Aggregate: state.Aggregate.Snapshot(),
			Seen:      seen,
		}
	}
	return storage
}

// PutSnapshot restores persisted aggregates into the configured accounts.
// Data for accounts no longer configured is dropped.
func (es *ExporterService) PutSnapshot(storage *models.Storage) {
	if storage == nil || storage.Accounts == nil {
		return
	}
	for id, data := range storage.Accounts {
		state, ok := es.store.Get(id)
		if !ok || data == nil {
			continue
		}
		_ = state.Aggregate.Restore(data.Aggregate, data.Seen)
	}
}
