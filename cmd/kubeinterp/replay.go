package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fwojciec/interpret/config"
	"github.com/fwojciec/interpret/replay"
	"github.com/spf13/cobra"
)

const replayLongDesc string = `Serve scripted interpretations for offline demos and tests.

The server answers both interpretation endpoints with the same transcript.
--text streams a file as chunk events of --chunk-size characters; --frames
sends a raw wire transcript verbatim, split into --chunk-size byte writes.
Point kubeinterp at it with --server http://localhost:8089.

Examples:
  kubeinterp replay --text testdata/answer.md --delay 80ms
  kubeinterp replay --fail "model unavailable"`

const demoText = `## Summary

This Deployment runs **3 replicas** of ` + "`nginx:1.27`" + ` behind a rolling update
strategy, so at most one pod is unavailable during a rollout.

- The readiness probe gates traffic until port 80 answers.
- No resource limits are set; consider adding them.
`

type replayCommander struct {
	app    *app
	text   string
	frames string
	fail   string
}

func newReplayCmd(a *app) *cobra.Command {
	c := &replayCommander{app: a}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run a local server that streams scripted interpretations",
		Long:  replayLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return c.run(ctx)
		},
	}

	cmd.Flags().StringVar(&c.text, "text", "", "file whose text is streamed as chunks")
	cmd.Flags().StringVar(&c.frames, "frames", "", "file with a raw event-stream transcript")
	cmd.Flags().StringVar(&c.fail, "fail", "", "end every stream with this error message")
	config.AddFlag(cmd.Flags(), config.FlagListen)
	config.AddFlag(cmd.Flags(), config.FlagDelay)
	config.AddFlag(cmd.Flags(), config.FlagChunkSize)
	cmd.MarkFlagsMutuallyExclusive("text", "frames")
	cmd.MarkFlagsMutuallyExclusive("fail", "frames")

	return cmd
}

func (c *replayCommander) script() (replay.Script, error) {
	size := c.app.cfg.Replay.ChunkSize
	switch {
	case c.frames != "":
		data, err := os.ReadFile(c.frames)
		if err != nil {
			return replay.Script{}, fmt.Errorf("reading frames: %w", err)
		}
		return replay.Script{Raw: data}, nil
	case c.text != "":
		data, err := os.ReadFile(c.text)
		if err != nil {
			return replay.Script{}, fmt.Errorf("reading text: %w", err)
		}
		s := replay.TextScript(string(data), size)
		s.Fail = c.fail
		return s, nil
	case c.fail != "":
		return replay.Script{Fail: c.fail}, nil
	default:
		return replay.TextScript(demoText, size), nil
	}
}

func (c *replayCommander) run(ctx context.Context) error {
	cfg := c.app.cfg
	script, err := c.script()
	if err != nil {
		return err
	}
	delay, err := cfg.Replay.DelayDuration()
	if err != nil {
		return err
	}

	srv := replay.New(script,
		replay.WithDelay(delay),
		replay.WithWriteSize(cfg.Replay.ChunkSize),
		replay.WithToken(cfg.Server.Token),
		replay.WithPaths(cfg.Interpret.YAMLPath, cfg.Interpret.IssuesPath),
		replay.WithLogger(c.app.logger),
	)
	return srv.Run(ctx, cfg.Replay.Listen)
}
