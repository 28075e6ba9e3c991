package domain

import (
	"errors"
	"time"

	"github.com/alexmarder/hloc/internal/core/blacklist"
	perr "github.com/alexmarder/hloc/internal/platform/errors"
	domdom "github.com/alexmarder/hloc/internal/services/domains/domain"

	"github.com/go-playground/validator/v10"
)

// Defaults for Options
const (
	DefaultCooldown      = 7 * 24 * time.Hour
	DefaultDebugCooldown = time.Hour
	DefaultFlushEvery    = 10000
	DefaultCommitEvery   = 10
	DefaultPageSize      = 1000
	DefaultPollInterval  = 250 * time.Millisecond
)

// Options configures one run
type Options struct {
	Workers          int           `validate:"min=1,max=512"`
	Amount           int           `validate:"gte=0"`
	ExcludeSLD       bool
	PageSize         int           `validate:"min=1,max=100000"`
	IncludeIPEncoded bool
	IPVersion        string
	Cooldown         time.Duration `validate:"gte=0"`
	Debug            bool
	DebugCooldown    time.Duration `validate:"gte=0"`
	FlushEvery       int           `validate:"min=1"`
	CommitEvery      int           `validate:"min=1"`
	QueueSize        int           `validate:"gte=0"`
	PollInterval     time.Duration `validate:"gt=0"`
	DryRun           bool
	Blacklists       blacklist.Paths
}

// DefaultOptions returns the options of a plain run
func DefaultOptions() Options {
	return Options{
		Workers:       1,
		PageSize:      DefaultPageSize,
		Cooldown:      DefaultCooldown,
		DebugCooldown: DefaultDebugCooldown,
		FlushEvery:    DefaultFlushEvery,
		CommitEvery:   DefaultCommitEvery,
		PollInterval:  DefaultPollInterval,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects options a run cannot start with
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return perr.WithField(
				perr.InvalidArgf("option %s fails %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()),
				fe.Field(),
			)
		}
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "invalid options")
	}
	return domdom.ValidateIPVersion(o.IPVersion)
}

// EffectiveCooldown is the re-scan window in force
func (o Options) EffectiveCooldown() time.Duration {
	if o.Debug {
		return o.DebugCooldown
	}
	return o.Cooldown
}

// Classes is the search population
func (o Options) Classes() []domdom.Classification {
	if o.IncludeIPEncoded {
		return []domdom.Classification{domdom.Valid, domdom.IPEncoded}
	}
	return []domdom.Classification{domdom.Valid}
}
