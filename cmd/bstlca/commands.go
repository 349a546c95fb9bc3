package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/bstlca/bootstrap"
	"github.com/wyfcoding/bstlca/config"
	"github.com/wyfcoding/bstlca/engine"
	"github.com/wyfcoding/bstlca/lca"
	"github.com/wyfcoding/bstlca/tree"
	"github.com/wyfcoding/bstlca/xerrors"
)

type cli struct {
	boot       *bootstrap.Bootstrapper
	configPath string
	treeSeq    string
	out        io.Writer
	shutdown   []func()
}

// newCLI 命令结果写入 out，日志写入 logOut.
func newCLI(out, logOut io.Writer) *cli {
	c := &cli{boot: bootstrap.New("bstlca", version), out: out}
	c.boot.LogOutput = logOut
	return c
}

// execute 运行命令；无论命令成功与否都会执行追踪与指标的关闭函数。
func (c *cli) execute(ctx context.Context, args []string) error {
	defer c.close()
	root := c.rootCmd()
	root.SetOut(c.out)
	root.SetErr(c.boot.LogOutput)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (c *cli) close() {
	for _, fn := range c.shutdown {
		fn()
	}
	c.shutdown = nil
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bstlca",
		Short:         "Lowest common ancestor queries on a binary search tree",
		Long:          `bstlca builds a binary search tree from a level-order sequence and answers LCA queries with several strategies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.boot.Initialize(c.configPath); err != nil {
				return err
			}
			c.shutdown = append(c.shutdown, c.boot.SetupTracing(), c.boot.SetupMetrics())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&c.treeSeq, "tree", "", `level-order sequence, e.g. "6,2,8,0,4,7,9,null,null,3,5"`)

	rootCmd.AddCommand(c.queryCmd(), c.pathCmd(), c.validateCmd(), c.configCmd())
	return rootCmd
}

func (c *cli) queryCmd() *cobra.Command {
	var p, q int
	var strategy string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Find the lowest common ancestor of two values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strategy != "all" {
				if _, err := lca.New(strategy); err != nil {
					return err
				}
				c.boot.Config.LCA.Strategies = []string{strategy}
			}
			eng, t, err := c.load(cmd)
			if err != nil {
				return err
			}
			defer eng.Close()

			report, err := eng.Evaluate(cmd.Context(), t, p, q)
			if report != nil {
				for _, r := range report.Results {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.Strategy, display(r.Value))
				}
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&p, "p", "p", 0, "first value")
	cmd.Flags().IntVarP(&q, "q", "q", 0, "second value")
	cmd.Flags().StringVar(&strategy, "strategy", "all", "memoized|constructive|bruteforce|all")
	_ = cmd.MarkFlagRequired("p")
	_ = cmd.MarkFlagRequired("q")
	return cmd
}

func (c *cli) pathCmd() *cobra.Command {
	var value int

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the root-to-node search path for a value",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, t, err := c.load(cmd)
			if err != nil {
				return err
			}
			defer eng.Close()

			path := lca.NewBruteForce().PathTo(t.Root(), value)
			if len(path) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "none")
				return nil
			}
			parts := make([]string, len(path))
			for i, n := range path {
				parts[i] = strconv.Itoa(n.Value())
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " -> "))
			return nil
		},
	}
	cmd.Flags().IntVar(&value, "value", 0, "value to locate")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the sequence forms a strict binary search tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.boot.Config.Validation.RequireBST = true
			eng, t, err := c.load(cmd)
			if err != nil {
				return err
			}
			defer eng.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "valid: %d nodes, height %d, in-order %v\n",
				t.Len(), t.Height(), tree.InOrder(t.Root()))
			return nil
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with sensitive fields masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.WriteMasked(cmd.OutOrStdout(), c.boot.Config)
		},
	}
}

func (c *cli) load(cmd *cobra.Command) (*engine.Engine, *tree.Tree, error) {
	if strings.TrimSpace(c.treeSeq) == "" {
		return nil, nil, xerrors.EmptySequence()
	}
	eng, err := c.boot.Engine()
	if err != nil {
		return nil, nil, err
	}
	t, err := eng.LoadString(cmd.Context(), c.treeSeq)
	if err != nil {
		_ = eng.Close()
		return nil, nil, err
	}
	return eng, t, nil
}

func display(v *int) string {
	if v == nil {
		return "none"
	}
	return strconv.Itoa(*v)
}
