package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/mtgrules/pkg/explorer"
	"github.com/coolbeans/mtgrules/pkg/navigate"
	"github.com/coolbeans/mtgrules/pkg/render"
	"github.com/coolbeans/mtgrules/pkg/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rules over a JSON API",
		Long: `Serve the rules over HTTP.

With --watch the rules document is reloaded whenever it changes on disk;
a document that fails to load leaves the previous one in service.

Example:
  mtgrules serve --addr :8080
  mtgrules serve --data rules.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := cfg.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}
			watch := cfg.Server.Watch
			if cmd.Flags().Changed("watch") {
				watch, _ = cmd.Flags().GetBool("watch")
			}

			registry, err := openRegistry()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, ctx := errgroup.WithContext(ctx)

			srv := server.New(registry, logger)
			g.Go(func() error {
				return srv.Run(ctx, addr)
			})

			if watch {
				if registry.Path() == "" {
					logger.Warn("--watch ignored: serving the bundled rules document")
				} else {
					g.Go(func() error {
						return registry.Watch(ctx)
					})
				}
			}

			return g.Wait()
		},
	}
	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().Bool("watch", false, "Reload the rules document when it changes")
	return cmd
}

func exploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse the rules interactively",
		Long: `Browse the rules in a full-screen terminal explorer.

Keys:
  ↑/↓ j/k   move in the sidebar, results or content
  enter     open a section, subsection, result or reference
  tab       cycle the rule references of the shown subsection
  1-9       follow a related rule
  /         search, esc to clear
  v         switch edition
  g         home
  q         quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			style, _ := cmd.Flags().GetString("style")
			width, _ := cmd.Flags().GetInt("width")

			registry, err := openRegistry()
			if err != nil {
				return err
			}
			store := registry.Store()

			renderer, err := render.NewTerminal(width, style)
			if err != nil {
				return err
			}

			state := navigate.NewState()
			if store.HasVersion(versionKey) {
				state.Version = versionKey
			}

			model := explorer.New(navigate.New(store, logger), explorer.Options{
				Renderer: renderer,
				Logger:   logger,
				State:    state,
			})
			if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
				logger.Error("explorer failed", zap.Error(err))
				return fmt.Errorf("running explorer: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("style", "", "Content style (dark, light, notty; default: detect)")
	cmd.Flags().Int("width", 80, "Content word wrap width")
	return cmd
}
