package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/services"
	"github.com/desertthunder/gestaopro/internal/shared"
)

// DefaultPollInterval is how often on-order mode checks for new orders.
const DefaultPollInterval = 30 * time.Second

// OrdersEntity is the backend entity watched in on-order mode.
var OrdersEntity = models.EntityForPermission(models.PermMarketplaceOrders)

// AlertEvent describes one alert to play.
type AlertEvent struct {
	Mode      models.AlertMode `json:"mode"`
	AudioName string           `json:"audio_name"`
	AudioURL  string           `json:"audio_url"`
	At        time.Time        `json:"at"`
	Orders    int              `json:"orders,omitempty"`
	NewOrders int              `json:"new_orders,omitempty"`
}

// Notifier plays or displays an alert.
type Notifier interface {
	Notify(ctx context.Context, event AlertEvent) error
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(ctx context.Context, event AlertEvent) error

func (f NotifierFunc) Notify(ctx context.Context, event AlertEvent) error {
	return f(ctx, event)
}

// TickerFunc starts a ticker and returns its channel and a stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// AlertWatcherOpts contains the dependencies of an [AlertWatcher].
type AlertWatcherOpts struct {
	Backend      services.Backend
	Notifier     Notifier
	Logger       *log.Logger
	PollInterval time.Duration // on-order polling period (default: 30s)
	Ticker       TickerFunc    // defaults to [time.NewTicker]
	Progress     chan<- ProgressUpdate
}

// AlertWatcher fires sound alerts according to [models.AlertSettings].
type AlertWatcher struct {
	backend  services.Backend
	notifier Notifier
	logger   *log.Logger
	poll     time.Duration
	ticker   TickerFunc
	progress chan<- ProgressUpdate
}

// NewAlertWatcher creates an [AlertWatcher].
func NewAlertWatcher(opts AlertWatcherOpts) *AlertWatcher {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Ticker == nil {
		opts.Ticker = realTicker
	}
	return &AlertWatcher{
		backend:  opts.Backend,
		notifier: opts.Notifier,
		logger:   shared.WithLogger(opts.Logger, "component", "alerts"),
		poll:     opts.PollInterval,
		ticker:   opts.Ticker,
		progress: opts.Progress,
	}
}

// Run watches until ctx is canceled. Disabled settings return immediately.
//
// Interval mode fires every IntervalMinutes. On-order mode lists the orders every poll interval
// and fires when the count grows; a failed poll is logged and the next tick tries again.
func (w *AlertWatcher) Run(ctx context.Context, settings models.AlertSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if w.notifier == nil {
		return fmt.Errorf("%w: notifier not configured", shared.ErrInvalidConfig)
	}

	switch settings.Mode {
	case models.AlertInterval:
		return w.runInterval(ctx, settings)
	case models.AlertOnOrder:
		if w.backend == nil {
			return fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
		}
		return w.runOnOrder(ctx, settings)
	default:
		w.logger.Info("sound alerts are disabled")
		return nil
	}
}

func (w *AlertWatcher) runInterval(ctx context.Context, settings models.AlertSettings) error {
	ticks, stop := w.ticker(settings.Interval())
	defer stop()

	w.logger.Info("watching", "mode", settings.Mode, "every", settings.Interval())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			w.fire(ctx, w.event(settings))
		}
	}
}

func (w *AlertWatcher) runOnOrder(ctx context.Context, settings models.AlertSettings) error {
	last, ok := w.countOrders(ctx)

	ticks, stop := w.ticker(w.poll)
	defer stop()

	w.logger.Info("watching", "mode", settings.Mode, "entity", OrdersEntity, "every", w.poll)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
		}

		count, polled := w.countOrders(ctx)
		if !polled {
			continue
		}
		if ok && count > last {
			event := w.event(settings)
			event.Orders = count
			event.NewOrders = count - last
			w.fire(ctx, event)
		}
		last, ok = count, true
	}
}

func (w *AlertWatcher) countOrders(ctx context.Context) (int, bool) {
	orders, err := w.backend.List(ctx, OrdersEntity)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("failed to poll orders", "error", err)
		}
		return 0, false
	}
	return len(orders), true
}

func (w *AlertWatcher) event(settings models.AlertSettings) AlertEvent {
	var url string
	if w.backend != nil {
		url = w.backend.ResolveAudioURL(settings.AudioName)
	}
	return AlertEvent{
		Mode:      settings.Mode,
		AudioName: settings.AudioName,
		AudioURL:  url,
		At:        time.Now(),
	}
}

func (w *AlertWatcher) fire(ctx context.Context, event AlertEvent) {
	sendProgress(w.progress, alertUpdate(event))
	if err := w.notifier.Notify(ctx, event); err != nil {
		w.logger.Warn("failed to play alert", "audio", event.AudioName, "error", err)
	}
}
