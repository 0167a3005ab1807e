package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sandialabs/faodel-sub005/internal/config"
	"github.com/spf13/cobra"
)

func TestRootCommandHelp(t *testing.T) {
	if rootCommand.Use != "faodeld" {
		t.Errorf("Command Use string doesn't match expected format: %s", rootCommand.Use)
	}

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.AddCommand(rootCommand)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"faodeld", "--help"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("failed to execute help command: %v", err)
	}

	helpOutput := buf.String()
	if !strings.Contains(helpOutput, "--whookie") {
		t.Errorf("help output doesn't mention the --whookie flag:\n%s", helpOutput)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	oldRole, oldListen, oldRootNode := flagRole, flagListen, flagRootNode
	defer func() { flagRole, flagListen, flagRootNode = oldRole, oldListen, oldRootNode }()

	flagRole = "root"
	flagListen = "127.0.0.1:1234"
	flagRootNode = ""

	cfg := config.New()
	applyFlagOverrides(cfg)

	if v, _ := cfg.GetString("node_role"); v != "root" {
		t.Errorf("node_role = %q, want root", v)
	}
	if v, _ := cfg.GetString("node.listen"); v != "127.0.0.1:1234" {
		t.Errorf("node.listen = %q, want 127.0.0.1:1234", v)
	}
	if _, ok := cfg.GetString("dirman.root_node"); ok {
		t.Errorf("dirman.root_node should be unset when --root-node is empty")
	}
}
