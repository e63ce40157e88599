package controllers

import (
	"net/http"

	json "github.com/goccy/go-json"

	"trwlexporter/internal/models"
	"trwlexporter/internal/providers"
	"trwlexporter/internal/services"
)

// AccountsController exposes the aggregate state as JSON for debugging and
// dashboards. Read-only, like the scrape path.
type AccountsController struct {
	logger  providers.Logger
	service services.ExporterServiceInterface
	cache   providers.CacheProviderInterface
}

func NewAccountsController(logger providers.Logger, service services.ExporterServiceInterface, cache providers.CacheProviderInterface) *AccountsController {
	return &AccountsController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

type accountView struct {
	ID        string                   `json:"id"`
	Label     string                   `json:"label"`
	Up        bool                     `json:"up"`
	LastError string                   `json:"last_error,omitempty"`
	Aggregate models.AggregateSnapshot `json:"aggregate"`
}

func (ac *AccountsController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (ac *AccountsController) GetAccounts(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "accounts", func() (any, error) {
		states := ac.service.Accounts()
		views := make([]accountView, 0, len(states))
		for _, state := range states {
			views = append(views, accountView{
				ID:        state.ID,
				Label:     state.Label,
				Up:        state.Up(),
				LastError: state.LastError(),
				Aggregate: state.Aggregate.Snapshot(),
			})
		}
		return views, nil
	})
}

func (ac *AccountsController) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("u")
	state, ok := ac.service.Account(id)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	ac.serveFromCacheOrCompute(w, "account:"+id, func() (any, error) {
		return accountView{
			ID:        state.ID,
			Label:     state.Label,
			Up:        state.Up(),
			LastError: state.LastError(),
			Aggregate: state.Aggregate.Snapshot(),
		}, nil
	})
}
