// Command router synthesizes Gen-Z style fabric routing tables: it reads a
// fabric configuration, builds the Fabric Model, runs the configured
// routing algorithms across it, and writes the resulting LPRT/MPRT/SSDT/
// MSDT/VCAT artifact to the path given by --route.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/memfabric/frouter/internal/apply"
	"github.com/memfabric/frouter/internal/fabric"
	"github.com/memfabric/frouter/internal/fabricio"
	"github.com/memfabric/frouter/internal/ferrors"
	"github.com/memfabric/frouter/internal/router"
	"github.com/memfabric/frouter/internal/serialize"
	"github.com/memfabric/frouter/internal/xlog"
)

// app holds the CLI's flag values.
type app struct {
	configPath        string
	routePath         string
	debug             bool
	jsonLog           bool
	algorithmOverride string
}

var a = &app{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:           "router",
	Short:         "Synthesize Gen-Z fabric routing tables",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if a.debug {
			xlog.SetDebug()
		}
		if a.jsonLog {
			xlog.SetJSONFormat()
		}
		return run(a)
	},
}

func init() {
	rootCmd.Flags().StringVar(&a.configPath, "config", "", "fabric configuration file (required)")
	rootCmd.Flags().StringVar(&a.routePath, "route", "", "output path for the computed routing artifact (required)")
	rootCmd.Flags().BoolVar(&a.debug, "debug", false, "verbose logging and a _meta.digest field on the output artifact")
	rootCmd.Flags().BoolVar(&a.jsonLog, "json-log", false, "emit JSON-formatted log lines instead of text")
	rootCmd.Flags().StringVar(&a.algorithmOverride, "algorithm-override", "", "force DOR/DOAL/VDAL for every traffic class, ignoring Parameters.Algorithm")
	_ = rootCmd.MarkFlagRequired("config")
	_ = rootCmd.MarkFlagRequired("route")
}

// run is the whole pipeline: load config, build the Fabric Model, resolve
// the routing policy into a Controller, apply both passes, serialize, write.
func run(a *app) error {
	xlog.WithField("config", a.configPath).Info("loading fabric configuration")

	input, tcInputs, err := fabricio.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.algorithmOverride != "" {
		xlog.WithField("algorithm", a.algorithmOverride).Info("overriding Parameters.Algorithm for every traffic class")
		tcInputs = applyAlgorithmOverride(tcInputs, a.algorithmOverride)
	}

	m, err := fabric.Build(input)
	if err != nil {
		return err
	}
	xlog.WithFields(map[string]interface{}{
		"switches": len(m.LogicalSwitches()),
		"nodes":    len(m.EndpointNodes()),
	}).Info("fabric model built")

	controller, err := router.NewController(tcInputs)
	if err != nil {
		return err
	}

	if err := apply.Apply(m, controller); err != nil {
		return err
	}
	xlog.Info("routing tables applied")

	artifact := serialize.Build(m)
	out, err := serialize.Marshal(artifact)
	if err != nil {
		return err
	}

	if a.debug {
		digest := serialize.Digest(out)
		xlog.WithField("digest", digest).Debug("artifact digest")
		out, err = serialize.WithDebugMeta(out, digest)
		if err != nil {
			return err
		}
		out, err = withTCIntrospection(out, controller)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(a.routePath, out, 0o644); err != nil {
		return ferrors.NewConfigError("route", a.routePath, err.Error())
	}

	xlog.WithField("route", a.routePath).Info("routing artifact written")
	return nil
}

// applyAlgorithmOverride forces every TC's Parameters.Algorithm to alg,
// letting an operator smoke-test a different routing algorithm without
// editing the policy document (--algorithm-override).
func applyAlgorithmOverride(tcs []router.TCInput, alg string) []router.TCInput {
	for i := range tcs {
		tcs[i].Parameters.Algorithm = alg
	}
	return tcs
}

// withTCIntrospection patches per-TC algorithm name and VC map onto the
// debug artifact's _meta section, one sjson.SetBytes call per TC — useful
// for confirming which algorithm and policy actually drove a given run
// without re-parsing the config file by hand.
func withTCIntrospection(out []byte, c *router.Controller) ([]byte, error) {
	var err error
	for _, tc := range c.TCs {
		base := "_meta.traffic_classes." + tc.Name
		out, err = sjson.SetBytes(out, base+".algorithm", tc.Engine.Name())
		if err != nil {
			return nil, err
		}
		out, err = sjson.SetBytes(out, base+".vc_map", tc.Engine.VCMap())
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// exitCodeFor maps an error's kind to the process exit code: 1 for
// configuration and policy errors (bad or unsatisfiable input), 2 for a
// contradiction detected during VCAT synthesis, 1 for anything else that
// escaped the pipeline unclassified.
func exitCodeFor(err error) int {
	if errors.Is(err, ferrors.ErrContradiction) {
		return 2
	}
	return 1
}
