package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/interpret"
	"github.com/fwojciec/interpret/config"
	"github.com/fwojciec/interpret/kube"
	"github.com/spf13/cobra"
)

const yamlLongDesc string = `Explain a Kubernetes manifest.

The manifest comes either from local files or from the cluster. Files are
matched with a doublestar glob and sent as one multi-document stream. With
--watch the interpretation restarts whenever a matched file changes.

Secret data is redacted before anything is sent.

Examples:
  kubeinterp yaml --file deploy/web.yaml
  kubeinterp yaml --file 'deploy/**/*.yaml' --watch
  kubeinterp yaml --resource deploy --name web -n shop`

type yamlCommander struct {
	app      *app
	file     string
	watch    bool
	resource string
	name     string
}

func newYAMLCmd(a *app) *cobra.Command {
	c := &yamlCommander{app: a}

	cmd := &cobra.Command{
		Use:   "yaml",
		Short: "Interpret a resource manifest",
		Long:  yamlLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&c.file, "file", "f", "", "manifest file or doublestar glob")
	cmd.Flags().BoolVarP(&c.watch, "watch", "w", false, "re-interpret when a matched file changes")
	cmd.Flags().StringVarP(&c.resource, "resource", "r", "", "resource type, e.g. deploy or deployments.v1.apps")
	cmd.Flags().StringVar(&c.name, "name", "", "resource name")
	config.AddFlag(cmd.Flags(), config.FlagNamespace)
	cmd.MarkFlagsMutuallyExclusive("file", "resource")
	cmd.MarkFlagsRequiredTogether("resource", "name")
	cmd.MarkFlagsMutuallyExclusive("watch", "resource")

	return cmd
}

func (c *yamlCommander) run(ctx context.Context) error {
	cfg := c.app.cfg
	j := job[interpret.YAMLPayload]{
		title:   "YAML interpretation",
		feature: "yaml",
		path:    cfg.Interpret.YAMLPath,
	}

	switch {
	case c.file != "":
		base, pattern := doublestar.SplitPattern(filepath.ToSlash(c.file))
		load := func() (interpret.YAMLPayload, error) {
			text, err := kube.LoadManifests(os.DirFS(base), pattern)
			if err != nil {
				return interpret.YAMLPayload{}, err
			}
			return c.payload(text), nil
		}
		payload, err := load()
		if err != nil {
			return err
		}
		j.payload = payload
		if c.watch {
			matches, err := kube.MatchManifests(os.DirFS(base), pattern)
			if err != nil {
				return err
			}
			for _, m := range matches {
				j.watch = append(j.watch, filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m)))
			}
			j.reload = load
		}

	case c.resource != "":
		text, err := c.fetch(ctx)
		if err != nil {
			return err
		}
		j.payload = c.payload(text)
		j.title = fmt.Sprintf("%s/%s", c.resource, c.name)

	default:
		return errors.New("one of --file or --resource is required")
	}

	return interpretPayload(ctx, c.app, j)
}

func (c *yamlCommander) fetch(ctx context.Context) (string, error) {
	cfg := c.app.cfg
	res, err := kube.ParseResource(c.resource)
	if err != nil {
		return "", err
	}
	restCfg, err := kube.LoadConfig(cfg.Kube.Kubeconfig)
	if err != nil {
		return "", err
	}
	clients, err := kube.NewClients(restCfg)
	if err != nil {
		return "", err
	}
	ns := cfg.Kube.Namespace
	if ns == "" {
		ns = kube.CurrentNamespace(cfg.Kube.Kubeconfig)
	}
	return kube.ResourceYAML(ctx, clients.Dynamic, res, ns, c.name)
}

func (c *yamlCommander) payload(text string) interpret.YAMLPayload {
	return interpret.YAMLPayload{YAML: text, Language: c.app.cfg.Interpret.Language}
}
