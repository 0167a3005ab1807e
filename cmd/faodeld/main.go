// Command faodeld runs a single FAODEL node: it loads a flat configuration
// file, wires up the transport/localkv/dirman/pool object graph (Runtime),
// and serves the whookie introspection endpoint until it's killed.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandialabs/faodel-sub005/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagConfigFile string
	flagRole       string
	flagListen     string
	flagWhookie    string
	flagRootNode   string
)

func init() {
	flags := rootCommand.Flags()
	flags.StringVarP(&flagConfigFile, "config", "c", "", "path to a faodel configuration file")
	flags.StringVar(&flagRole, "role", "", "override node_role (e.g. root, server, client)")
	flags.StringVar(&flagListen, "listen", "", "override node.listen (host:port this node answers to)")
	flags.StringVar(&flagWhookie, "whookie", "127.0.0.1:8080", "address the introspection/metrics server binds to")
	flags.StringVar(&flagRootNode, "root-node", "", "override dirman.root_node (required unless role is root)")
}

var rootCommand = &cobra.Command{
	Use:   "faodeld",
	Short: "Run a FAODEL node",
	Long: `
faodeld starts a single node of a FAODEL runtime: it hosts (or attaches to)
a centralized directory manager, a local key/value store, and the pools
and IOMs described by its configuration, and answers whookie introspection
requests over HTTP.`,
	RunE: func(command *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		applyFlagOverrides(cfg)

		rt, err := NewRuntime(cfg)
		if err != nil {
			return fmt.Errorf("starting runtime: %w", err)
		}
		rt.Info("faodeld node " + rt.Self.String() + " starting, role=" + cfg.GetRole())

		errc := make(chan error, 1)
		go func() { errc <- rt.ServeWhookie(flagWhookie) }()

		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errc:
			return fmt.Errorf("whookie server exited: %w", err)
		case sig := <-sigc:
			rt.Info("received " + sig.String() + ", shutting down")
			rt.Dispatcher.Close()
			return nil
		}
	},
}

func loadConfig() (*config.Configuration, error) {
	cfg := config.New()
	if flagConfigFile != "" {
		if err := cfg.AppendFromFile(flagConfigFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.AppendFromReferences(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlagOverrides(cfg *config.Configuration) {
	if flagRole != "" {
		_ = cfg.AppendKV("node_role", flagRole)
	}
	if flagListen != "" {
		_ = cfg.AppendKV("node.listen", flagListen)
	}
	if flagRootNode != "" {
		_ = cfg.AppendKV("dirman.root_node", flagRootNode)
	}
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "faodeld:", err)
		os.Exit(1)
	}
}
