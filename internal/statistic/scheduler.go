package statistic

import (
	"context"
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"trwlexporter/internal/providers"
	"trwlexporter/internal/services"
	"trwlexporter/internal/statistic/interfaces"
	"trwlexporter/internal/structures"
	"trwlexporter/internal/upstream"
)

// PollOutcome summarizes one poll cycle for a single account.
type PollOutcome struct {
	Pages      int
	Merged     int
	Duplicates int
	// NextCursor is the resume point for the next cycle. Empty when the
	// cycle caught up; otherwise it points at the first page that was not
	// successfully merged (failed fetch or max-pages bound).
	NextCursor string
	CaughtUp   bool
}

// Scheduler runs one poll loop per configured account plus an optional
// fixed-interval persistence job. Account loops are independent: a failing
// or backed-off account never delays another.
type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	service     services.ExporterServiceInterface
	client      upstream.ClientInterface
	metrics     providers.MetricsProviderInterface
	fileManager *FileManager
	cron        *gron.Cron
	opsMu       sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewScheduler(config *structures.Config, logger providers.Logger, service services.ExporterServiceInterface, client upstream.ClientInterface, metrics providers.MetricsProviderInterface, fileManager *FileManager) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		service:     service,
		client:      client,
		metrics:     metrics,
		fileManager: fileManager,
	}
}

func (s *Scheduler) Init() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	for i := range s.config.Accounts {
		acc := s.config.Accounts[i]
		s.wg.Add(1)
		go s.runAccount(acc)
	}

	s.cron = gron.New()
	if s.config.Persistence.FilePath != "" && s.config.Persistence.SaveInterval > 0 {
		s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
			s.opsMu.Lock()
			defer s.opsMu.Unlock()

			err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
			if err != nil {
				s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
				return
			}
			s.logger.Infof(providers.TypeApp, "Persisted data to file %s", s.config.Persistence.FilePath)
		})
	}
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// runAccount is one account's poll loop. It polls immediately on start, then
// waits the configured interval after each successful cycle, or the backoff
// delay after a transient failure. A permanent upstream error ends the loop
// and freezes the account's metrics at their last values.
func (s *Scheduler) runAccount(acc structures.Account) {
	defer s.wg.Done()

	interval := s.config.IntervalFor(&acc)
	bo := newBackoff(s.config.Poll.BackoffBase, s.config.Poll.BackoffMax)
	cursor := ""

	for {
		outcome, err := s.pollOnce(s.ctx, &acc, cursor)
		if s.ctx.Err() != nil {
			return
		}

		var wait time.Duration
		switch {
		case err != nil:
			kind := upstream.KindOf(err)
			s.metrics.IncPollFailures(acc.Label, kind.String())
			if kind == upstream.KindPermanent {
				s.service.MarkErrored(acc.ID, err.Error())
				s.logger.Errorf(providers.TypePoll, "Polling halted for account %s: %s", acc.ID, err)
				return
			}
			cursor = outcome.NextCursor
			if ra := upstream.RetryAfterOf(err); ra > 0 {
				wait = ra
			} else {
				wait = bo.Next()
			}
			s.logger.Warnf(providers.TypePoll, "Poll failed for account %s (%s), retrying in %s: %s", acc.ID, kind, wait, err)
		default:
			bo.Reset()
			cursor = outcome.NextCursor
			wait = interval
			if outcome.Merged > 0 {
				s.logger.Infof(providers.TypePoll, "Account %s: merged %d new check-ins over %d pages", acc.ID, outcome.Merged, outcome.Pages)
			} else {
				s.logger.Debugf(providers.TypePoll, "Account %s: caught up, %d duplicates over %d pages", acc.ID, outcome.Duplicates, outcome.Pages)
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// pollOnce walks pages from the cursor, merging each page before fetching
// the next so partial progress survives a later failure. It stops on an
// all-duplicate page, on upstream end-of-history, or at the per-cycle page
// bound.
func (s *Scheduler) pollOnce(ctx context.Context, acc *structures.Account, cursor string) (PollOutcome, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObservePollDuration(acc.Label, time.Since(start))
	}()

	out := PollOutcome{NextCursor: cursor}
	for page := 0; page < s.config.Poll.MaxPagesPerCycle; page++ {
		fetchCtx, cancel := context.WithTimeout(ctx, s.config.Upstream.FetchTimeout)
		fetched, err := s.client.FetchPage(fetchCtx, acc, out.NextCursor)
		cancel()
		if err != nil {
			// NextCursor still names the failed page, so the next cycle
			// resumes without skipping it.
			return out, err
		}
		out.Pages++

		res, err := s.service.Merge(acc.ID, fetched.CheckIns)
		if err != nil {
			return out, err
		}
		out.Merged += res.Merged
		out.Duplicates += res.Duplicates

		if res.AllDuplicates() || fetched.NextCursor == "" {
			out.CaughtUp = true
			out.NextCursor = ""
			return out, nil
		}
		out.NextCursor = fetched.NextCursor
	}
	// Page bound reached with history left; the cursor carries over so the
	// next tick continues the catch-up instead of restarting at the top.
	return out, nil
}

func (s *Scheduler) Restore() error {
	if s.config.Persistence.FilePath == "" {
		return nil
	}
	return s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
}

func (s *Scheduler) Persist() error {
	if s.config.Persistence.FilePath == "" {
		return nil
	}
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting aggregate state to file...")
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}
