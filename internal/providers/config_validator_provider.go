package providers

import (
	"errors"
	"fmt"

	"github.com/gookit/validate"

	"trwlexporter/internal/structures"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate runs the struct tag rules plus the cross-field checks the tags
// cannot express.
func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return v.Errors
	}

	if len(cv.conf.Accounts) == 0 {
		return errors.New("config: at least one account must be configured")
	}
	seen := make(map[string]struct{}, len(cv.conf.Accounts))
	labels := make(map[string]struct{}, len(cv.conf.Accounts))
	for _, acc := range cv.conf.Accounts {
		if acc.ID == "" {
			return errors.New("config: account with empty id")
		}
		if _, dup := seen[acc.ID]; dup {
			return fmt.Errorf("config: duplicate account id %q", acc.ID)
		}
		seen[acc.ID] = struct{}{}

		// Labels become the user dimension on every series; two accounts
		// sharing one would collide in the registry and fail every scrape.
		label := acc.Label
		if label == "" {
			label = acc.ID
		}
		if _, dup := labels[label]; dup {
			return fmt.Errorf("config: duplicate account label %q", label)
		}
		labels[label] = struct{}{}

		if acc.PollInterval < 0 {
			return fmt.Errorf("config: account %q has a negative poll interval", acc.ID)
		}
	}

	if cv.conf.Poll.MaxPagesPerCycle <= 0 {
		return errors.New("config: poll.maxPagesPerCycle must be positive")
	}
	if cv.conf.Poll.BackoffBase <= 0 {
		return errors.New("config: poll.backoffBase must be positive")
	}
	if cv.conf.Poll.BackoffMax < cv.conf.Poll.BackoffBase {
		return errors.New("config: poll.backoffMax must be >= poll.backoffBase")
	}
	if cv.conf.Persistence.FilePath != "" && cv.conf.Persistence.SaveInterval <= 0 {
		return errors.New("config: persistence.saveInterval must be positive when a file path is set")
	}
	return nil
}
