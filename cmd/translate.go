/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/booktran/internal/config"
	"github.com/valpere/booktran/internal/detector"
	"github.com/valpere/booktran/internal/docengine"
	"github.com/valpere/booktran/internal/engine"
	"github.com/valpere/booktran/internal/lang"
	"github.com/valpere/booktran/internal/orchestrator"
	"github.com/valpere/booktran/internal/outpath"
	"github.com/valpere/booktran/internal/submit"
	"github.com/valpere/booktran/internal/validator"
)

var (
	inputFile   string
	outputFile  string
	sessionDir  string
	targetName  string
	modeLabel   string
	prompt      string
	validate    bool
	noHistory   bool
	metricsFile string
)

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"timeout":          config.KeyTimeout,
	"temperature":      config.KeyTemperature,
	"top-p":            config.KeyTopP,
	"retries":          config.KeyRetries,
	"retry-interval":   config.KeyRetryInterval,
	"max-group-tokens": config.KeyMaxGroupTokens,
	"concurrency":      config.KeyConcurrency,
	"service":          config.KeyService,
	"model":            config.KeyModel,
	"base-url":         config.KeyBaseURL,
	"api-key":          config.KeyAPIKey,
	"credentials":      config.KeyCredentials,
	"db":               config.KeyDB,
}

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a document",
	Long: `Translate a plain-text or Markdown document into one of the supported
languages (see "booktran languages").

Submit modes (see "booktran modes"):
  - Replace original   the translation replaces the source text
  - Append as block    the translation follows each paragraph as its own block
  - Append inline      the translation is appended to each single-line paragraph

When the chosen mode cannot be applied to the document, the remaining modes
are tried in priority order. Service failures abort the job immediately.

Without --output the result is written next to the source (or into
--session-dir) as <name>_<Language><ext>, adding _2, _3, ... if taken.`,
	RunE: runTranslate,
}

func runTranslate(cmd *cobra.Command, args []string) error {
	target, err := lang.Parse(targetName)
	if err != nil {
		return err
	}
	seq, err := submit.BuildSequence(modeLabel)
	if err != nil {
		return err
	}

	v, err := config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	overrides, svcCfg, err := config.Load(v)
	if err != nil {
		return err
	}
	settings, err := config.Resolve(overrides)
	if err != nil {
		return err
	}

	svc, serviceConfig, err := buildService(svcCfg)
	if err != nil {
		return err
	}

	outPath, err := outpath.Resolve(inputFile, target, outpath.Options{Explicit: outputFile, Dir: sessionDir})
	if err != nil {
		return err
	}
	if samePath(inputFile, outPath) {
		return fmt.Errorf("input file and output file cannot be the same")
	}

	logger := slog.Default()
	det := detector.New()
	opts := docengine.Options{
		Service:       svc,
		ServiceConfig: serviceConfig,
		Detector:      det,
		Logger:        logger,
	}
	if validate {
		opts.Checker = validator.NewWithDetector(det)
	}

	orchCfg := orchestrator.Config{Logger: logger}
	if !noHistory {
		db, err := openStore(v.GetString(config.KeyDB))
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Memory = db
		orchCfg.Recorder = db
	}

	var reg *prometheus.Registry
	if metricsFile != "" {
		reg = prometheus.NewRegistry()
		orchCfg.Metrics = orchestrator.NewMetrics(reg)
	}

	orch := orchestrator.New(docengine.New(opts), orchCfg)
	job := orchestrator.NewJob(engine.Request{
		SourcePath:     inputFile,
		TargetPath:     outPath,
		TargetLanguage: target,
		Instructions:   prompt,
		Settings:       settings,
	}, seq)

	logger.Debug("starting job",
		"job", job.ID,
		"service", svc.Name(),
		"sequence", seq.String(),
		"output", outPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, runErr := orch.Run(ctx, job, func(p int) {
		fmt.Fprintf(os.Stderr, "\rProgress: %3d%%", p)
	})
	fmt.Fprintln(os.Stderr)

	if reg != nil {
		if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
			logger.Warn("failed to write metrics", "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	fmt.Printf("Translated %s to %s\n", inputFile, target)
	fmt.Printf("Output: %s\n", res.OutputPath)
	fmt.Printf("Mode:   %s\n", res.Mode.Label())
	if len(res.Attempts) > 1 {
		fmt.Printf("Attempts: %d\n", len(res.Attempts))
	}
	return nil
}

// bindFlags makes the config flags of cmd visible to v under their config keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	f := translateCmd.Flags()
	f.StringVarP(&inputFile, "input", "i", "", "Document to translate (.txt, .md, .markdown) (required)")
	f.StringVarP(&targetName, "target", "t", "", "Target language name or code (required)")
	f.StringVarP(&modeLabel, "mode", "m", submit.ReplaceOriginal.Label(), "Initial submit mode")
	f.StringVarP(&outputFile, "output", "o", "", "Output path (default <name>_<Language><ext>)")
	f.StringVar(&sessionDir, "session-dir", "", "Directory for the default output path")
	f.StringVar(&prompt, "prompt", "", "Custom instructions for the translator")

	d := config.Defaults()
	f.Float64("timeout", d.Timeout.Seconds(), "Per-request timeout in seconds")
	f.Float64("temperature", d.Temperature, "Sampling temperature")
	f.Float64("top-p", d.TopP, "Nucleus sampling top_p")
	f.Int("retries", d.RetryCount, "Retries per request after the first try")
	f.Float64("retry-interval", d.RetryInterval.Seconds(), "Seconds between retries")
	f.Int("max-group-tokens", d.MaxGroupTokens, "Token budget of one translation request")
	f.Int("concurrency", d.Concurrency, "Parallel translation requests")

	f.String("service", "ollama", "Translation service: ollama, openrouter, google")
	f.String("model", "", "Model name (ollama, openrouter)")
	f.String("base-url", "", "Service base URL (ollama, openrouter)")
	f.String("api-key", "", "Service API key (openrouter, google)")
	f.String("credentials", "", "Google Cloud credentials file")
	f.BoolVar(&validate, "validate", false, "Reject translations not detected as the target language")

	f.String("db", "./data/booktran.db", "Database path for job history and translation memory")
	f.BoolVar(&noHistory, "no-history", false, "Do not record job history or use translation memory")
	f.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the job")

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("target")
}
