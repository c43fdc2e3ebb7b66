package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/interpret"
	bt "github.com/fwojciec/interpret/bubbletea"
	"github.com/fwojciec/interpret/dashboard"
	"github.com/fwojciec/interpret/kube"
	"github.com/fwojciec/interpret/metrics"
	"github.com/fwojciec/interpret/sanitize"
	"github.com/prometheus/client_golang/prometheus"
)

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// job describes one interpretation to run.
type job[P interpret.Payload] struct {
	title   string
	feature string
	path    string
	payload P
	// reload rebuilds the payload after a watched file changes.
	reload func() (P, error)
	watch  []string
}

// interpretPayload runs j in the panel or in plain mode.
func interpretPayload[P interpret.Payload](ctx context.Context, a *app, j job[P]) error {
	panel := a.usePanel()
	log := a.logger
	if panel {
		log = a.panelLogger()
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	if addr := a.cfg.Metrics.Listen; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, reg); err != nil {
				log.Error("metrics server stopped", "addr", addr, "error", err)
			}
		}()
	}

	client := dashboard.New(a.cfg.Server.BaseURL,
		dashboard.WithToken(a.cfg.Server.Token),
		dashboard.WithLogger(log),
	)
	opts := []interpret.Option{
		interpret.WithEnabled(a.cfg.Interpret.Enabled),
		interpret.WithLogger(log),
		interpret.WithObserver(recorder.Observer(j.feature)),
	}

	if panel {
		feed := bt.NewFeed()
		session := interpret.NewSession[P](client, j.path, append(opts, interpret.WithObserver(feed.Observe))...)
		run := func() error {
			watchInBackground(ctx, log, session, j)
			return session.Start(ctx, j.payload)
		}
		m := bt.New(j.title, session, run, feed, bt.WithMarkdown(a.cfg.Interpret.Markdown))
		return bt.Run(ctx, m)
	}

	p := newPrinter(a.stdout, a.stderr)
	session := interpret.NewSession[P](client, j.path, append(opts, interpret.WithObserver(p.observe))...)

	if len(j.watch) > 0 {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		watchInBackground(ctx, log, session, j)
		if err := session.Start(ctx, j.payload); errors.Is(err, interpret.ErrDisabled) {
			return err
		}
		<-ctx.Done()
		session.Close()
		return nil
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigc:
			session.Cancel()
		case <-done:
		}
	}()

	if err := session.Start(ctx, j.payload); err != nil {
		if errors.Is(err, interpret.ErrDisabled) {
			return err
		}
		// The printer already showed the user-facing message.
		return reported{err}
	}
	return nil
}

// reported is an error the user has already been shown. main exits
// non-zero without printing it again.
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }

// watchInBackground restarts the interpretation whenever a watched file
// changes. Each restart supersedes the run before it.
func watchInBackground[P interpret.Payload](ctx context.Context, log *slog.Logger, session *interpret.Session[P], j job[P]) {
	if len(j.watch) == 0 || j.reload == nil {
		return
	}
	go func() {
		err := kube.Watch(ctx, j.watch, watchDebounce, func(path string) {
			payload, err := j.reload()
			if err != nil {
				log.Warn("not re-interpreting", "path", path, "error", err)
				return
			}
			log.Debug("manifest changed, re-interpreting", "path", path)
			go func() { _ = session.Start(ctx, payload) }()
		})
		if err != nil {
			log.Error("watch stopped", "error", err)
		}
	}()
}

// printer writes sanitized content to w as it grows. A new run ID starts a
// new block; error messages go to errw.
type printer struct {
	w, errw io.Writer

	mu      sync.Mutex
	id      string
	printed int
	ended   bool
}

func newPrinter(w, errw io.Writer) *printer {
	return &printer{w: w, errw: errw}
}

func (p *printer) observe(s interpret.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.ID != p.id {
		if p.printed > 0 && !p.ended {
			fmt.Fprintln(p.w)
		}
		if p.id != "" && s.ID != "" {
			fmt.Fprintln(p.w, "---")
		}
		p.id, p.printed, p.ended = s.ID, 0, false
	}
	text := sanitize.Text(s.Content)
	if n := len(text); n > p.printed {
		_, _ = io.WriteString(p.w, text[p.printed:])
		p.printed = n
	}
	if !s.Status.Terminal() || p.ended {
		return
	}
	p.ended = true
	if p.printed > 0 && !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(p.w)
	}
	if s.Status == interpret.StatusError {
		fmt.Fprintln(p.errw, sanitize.Text(s.ErrorMessage))
	}
}
