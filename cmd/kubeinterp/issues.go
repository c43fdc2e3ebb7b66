package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fwojciec/interpret"
	"github.com/fwojciec/interpret/config"
	"github.com/fwojciec/interpret/kube"
	"github.com/spf13/cobra"
)

const issuesLongDesc string = `Analyse the cluster's top warning issues.

Warning events are grouped by reason and object, ranked by how often they
occurred, and the top entries are sent for analysis. An audit file in the
same JSON shape can be given instead of querying the cluster.

Examples:
  kubeinterp issues
  kubeinterp issues -n shop --limit 3
  kubeinterp issues --file audit.json`

type issuesCommander struct {
	app  *app
	file string
}

func newIssuesCmd(a *app) *cobra.Command {
	c := &issuesCommander{app: a}

	cmd := &cobra.Command{
		Use:   "issues",
		Short: "Interpret the top cluster issues",
		Long:  issuesLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&c.file, "file", "f", "", "audit JSON file to send instead of querying the cluster")
	config.AddFlag(cmd.Flags(), config.FlagNamespace)
	config.AddFlag(cmd.Flags(), config.FlagLimit)

	return cmd
}

func (c *issuesCommander) run(ctx context.Context) error {
	data, err := c.auditData(ctx)
	if err != nil {
		return err
	}
	return interpretPayload(ctx, c.app, job[interpret.AuditPayload]{
		title:   "Top issues",
		feature: "issues",
		path:    c.app.cfg.Interpret.IssuesPath,
		payload: interpret.AuditPayload{AuditData: data, Language: c.app.cfg.Interpret.Language},
	})
}

func (c *issuesCommander) auditData(ctx context.Context) (json.RawMessage, error) {
	cfg := c.app.cfg
	if c.file != "" {
		data, err := os.ReadFile(c.file)
		if err != nil {
			return nil, fmt.Errorf("reading audit file: %w", err)
		}
		if err := kube.ValidateAudit(data); err != nil {
			return nil, fmt.Errorf("%s: %w", c.file, err)
		}
		return data, nil
	}

	restCfg, err := kube.LoadConfig(cfg.Kube.Kubeconfig)
	if err != nil {
		return nil, err
	}
	clients, err := kube.NewClients(restCfg)
	if err != nil {
		return nil, err
	}
	issues, err := kube.TopIssues(ctx, clients.Core, cfg.Kube.Namespace, cfg.Kube.IssueLimit)
	if err != nil {
		return nil, err
	}
	c.app.logger.Debug("collected issues", "count", len(issues), "namespace", cfg.Kube.Namespace)
	return kube.AuditData(issues)
}
