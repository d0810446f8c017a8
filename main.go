package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"varconf/app/client/console"
	"varconf/app/config"
	"varconf/app/kb"
	"varconf/app/model"
	"varconf/app/service/engine"
	"varconf/app/service/queue"
	"varconf/app/service/session"
	"varconf/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "varconf",
	Short: "Incremental product configuration resolver",
	Long:  "varconf reads decisions from stdin and resolves each session's configuration tree against a knowledge base.",
	RunE:  runService,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve decisions read from stdin",
	RunE:  runService,
}

var validateCmd = &cobra.Command{
	Use:   "validate [knowledge-base]",
	Short: "Check a knowledge base and print every problem found",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "config file")
	rootCmd.AddCommand(runCmd, validateCmd)
}

func main() {
	mylog.Preinit()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runService(_ *cobra.Command, _ []string) error {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	base, err := kb.Load(cfg.KnowledgeBase.Path)
	if err != nil {
		log.Fatalf("knowledge base load failed: %v", err)
	}
	do.ProvideValue(di, base)

	do.Provide(di, console.NewClient)
	do.Provide(di, session.New)
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)

	slog.Info("Service started", "knowledge_base", cfg.KnowledgeBase.Path)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	queueSvc := do.MustInvoke[*queue.Service](di)
	consoleClient := do.MustInvoke[*console.Client](di)
	engineSvc := do.MustInvoke[*engine.Service](di)

	consoleClient.SetListener(func(ctx context.Context, sessionID string, decision model.Decision) {
		queueSvc.Add(ctx, sessionID, decision)
	})

	g, ctx := errgroup.WithContext(appCtx)
	g.Go(func() error {
		defer queueSvc.Close()
		return consoleClient.Run(ctx)
	})
	g.Go(func() error {
		return engineSvc.Run(ctx)
	})

	return g.Wait()
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		path = cfg.KnowledgeBase.Path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read knowledge base: %w", err)
	}

	_, diags, err := kb.ParseUnchecked(data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, d := range diags {
		fmt.Fprintln(out, d.String())
	}

	if len(diags) > 0 {
		return fmt.Errorf("%s: %d problems", path, len(diags))
	}

	fmt.Fprintf(out, "%s: ok\n", path)
	return nil
}
