package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/BaSui01/agentweave/config"
	"github.com/BaSui01/agentweave/harness"
	"github.com/BaSui01/agentweave/persistence"
	"github.com/BaSui01/agentweave/registry"
	"github.com/BaSui01/agentweave/types"
	"go.uber.org/zap"
)

// =============================================================================
// ✅ validate 命令
// =============================================================================

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	dir := fs.String("dir", "", "Definitions directory (defaults to storage.dir)")
	format := fs.String("format", "", "Definition file format: yaml or json (defaults to storage.format)")
	_ = fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dir == "" {
		*dir = cfg.Storage.Dir
	}
	if *format == "" {
		*format = cfg.Storage.Format
	}

	problems, err := validateDefinitions(context.Background(), *dir, *format, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}
	if problems > 0 {
		os.Exit(1)
	}
}

// validateDefinitions 加载目录中的全部定义并静态校验每个 workflow，
// 返回发现的问题数。读取或解码失败时返回 error。
func validateDefinitions(ctx context.Context, dir, format string, out io.Writer) (int, error) {
	codec, err := persistence.CodecByName(format)
	if err != nil {
		return 0, err
	}
	reg := registry.New(zap.NewNop())
	defer reg.Close()

	if err := reg.Load(ctx, persistence.NewFileStore(dir, codec, nil)); err != nil {
		var verr *types.ValidationError
		if !errors.As(err, &verr) {
			return 0, err
		}
		for _, v := range verr.Violations {
			fmt.Fprintf(out, "INVALID %s\n", v)
		}
		return len(verr.Violations), nil
	}

	agents, workflows := reg.Len()
	problems := 0
	validator := harness.WorkflowValidator{}
	for def := range reg.Workflows() {
		vs := validator.Check(def, reg)
		if len(vs) == 0 {
			fmt.Fprintf(out, "OK      workflow %s (%s)\n", def.ID, def.Kind())
			continue
		}
		problems += len(vs)
		for _, v := range vs {
			fmt.Fprintf(out, "INVALID workflow %s: %s\n", def.ID, v)
		}
	}
	fmt.Fprintf(out, "%d agents, %d workflows, %d problems\n", agents, workflows, problems)
	return problems, nil
}
