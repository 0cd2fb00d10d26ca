// Command logscreen runs the windowed screening engine over a YAML project
// file and prints a per-logger summary. Result encoding is left to the
// export layer; this entry point reports what the engine produced.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/metocean-tools/logscreen/config"
	"github.com/metocean-tools/logscreen/logging"
	"github.com/metocean-tools/logscreen/pipeline"
	"github.com/metocean-tools/logscreen/sink"
)

func main() {
	projectPath := flag.String("project", "project.yaml", "YAML project configuration")
	flag.Parse()

	engineCfg, err := config.EngineFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.SetLevel(logging.ParseLevel(engineCfg.LogLevel))
	log := logging.GetGlobalLogger()

	project, err := config.LoadProject(*projectPath)
	if err != nil {
		log.Error(err, "cannot load project")
		os.Exit(1)
	}
	if len(project.Loggers) == 0 {
		log.Warn("project has no loggers configured")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := sink.NewMemory()
	runner := pipeline.NewRunner(project.Loggers, out, engineCfg.Workers)

	log.Info("starting batch", logging.Fields{
		"loggers": len(project.Loggers), "workers": engineCfg.Workers,
	})

	batch := runner.Run(ctx)

	failed := 0
	for _, src := range project.Loggers {
		res := batch.Results[src.ID]
		if err := batch.Errors[src.ID]; err != nil {
			failed++
			fmt.Printf("%s: FAILED: %v\n", src.ID, err)
			if res == nil {
				continue
			}
		}
		if res == nil {
			continue
		}

		fmt.Printf("%s: %d/%d files", src.ID, res.FilesProcessed, res.FilesTotal)
		if res.Stats != nil {
			fmt.Printf(", %d statistics windows", len(res.Stats.Rows))
		}
		if len(res.Spectra) > 0 {
			fmt.Printf(", %d spectral windows", len(res.Spectra))
		}
		if len(res.Integrations) > 0 {
			fmt.Printf(", %d files integrated", len(res.Integrations))
		}
		fmt.Println()

		for _, file := range res.BadFiles.Files() {
			reason, _ := res.BadFiles.Reason(file)
			fmt.Printf("  bad file: %s (%s)\n", file, reason)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
