package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag ties a CLI flag to the config key it overrides.
type Flag struct {
	Name        string
	Shorthand   string
	ViperKey    string
	Description string
}

// Flag names. Commands register flags through AddFlag so the same logical
// flag carries the same name, default, and help everywhere.
const (
	FlagServer        = "server"
	FlagToken         = "token"
	FlagLanguage      = "language"
	FlagEnabled       = "enabled"
	FlagMarkdown      = "markdown"
	FlagDebug         = "debug"
	FlagJSONLogs      = "json-logs"
	FlagLogFile       = "log-file"
	FlagMetricsListen = "metrics-listen"
	FlagKubeconfig    = "kubeconfig"
	FlagNamespace     = "namespace"
	FlagLimit         = "limit"
	FlagListen        = "listen"
	FlagDelay         = "delay"
	FlagChunkSize     = "chunk-size"
)

// Flags is the registry of every flag that maps onto a config key.
var Flags = map[string]Flag{
	FlagServer:        {Name: FlagServer, ViperKey: "server.base_url", Description: "dashboard base URL"},
	FlagToken:         {Name: FlagToken, ViperKey: "server.token", Description: "bearer token for the dashboard"},
	FlagLanguage:      {Name: FlagLanguage, ViperKey: "interpret.language", Description: "language of the interpretation"},
	FlagEnabled:       {Name: FlagEnabled, ViperKey: "interpret.enabled", Description: "enable AI interpretation"},
	FlagMarkdown:      {Name: FlagMarkdown, ViperKey: "interpret.markdown", Description: "render content as markdown"},
	FlagDebug:         {Name: FlagDebug, ViperKey: "log.debug", Description: "enable debug logging"},
	FlagJSONLogs:      {Name: FlagJSONLogs, ViperKey: "log.json", Description: "log as JSON"},
	FlagLogFile:       {Name: FlagLogFile, ViperKey: "log.file", Description: "also write JSON logs to this file"},
	FlagMetricsListen: {Name: FlagMetricsListen, ViperKey: "metrics.listen", Description: "serve Prometheus metrics on this address"},
	FlagKubeconfig:    {Name: FlagKubeconfig, ViperKey: "kube.kubeconfig", Description: "path to kubeconfig"},
	FlagNamespace:     {Name: FlagNamespace, Shorthand: "n", ViperKey: "kube.namespace", Description: "namespace"},
	FlagLimit:         {Name: FlagLimit, ViperKey: "kube.issue_limit", Description: "number of issues to interpret"},
	FlagListen:        {Name: FlagListen, ViperKey: "replay.listen", Description: "address to listen on"},
	FlagDelay:         {Name: FlagDelay, ViperKey: "replay.delay", Description: "delay between frames"},
	FlagChunkSize:     {Name: FlagChunkSize, ViperKey: "replay.chunk_size", Description: "characters per chunk frame"},
}

// AddFlag registers the named flag on fs with its default taken from
// NewDefaultConfig. The flag type follows the default's type.
func AddFlag(fs *pflag.FlagSet, name string) {
	def, ok := Flags[name]
	if !ok {
		panic(fmt.Sprintf("config: unknown flag %q", name))
	}
	v := viper.New()
	setViperDefaults(v)

	switch v.Get(def.ViperKey).(type) {
	case bool:
		fs.BoolP(def.Name, def.Shorthand, v.GetBool(def.ViperKey), def.Description)
	case int:
		fs.IntP(def.Name, def.Shorthand, v.GetInt(def.ViperKey), def.Description)
	default:
		fs.StringP(def.Name, def.Shorthand, v.GetString(def.ViperKey), def.Description)
	}
}

// BindFlags binds every registered flag present in fs to v, so a flag set
// on the command line wins over env, file, and default.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, def := range Flags {
		f := fs.Lookup(def.Name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(def.ViperKey, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", def.Name, err)
		}
	}
	return nil
}
