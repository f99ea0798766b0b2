package main

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	redis "gopkg.in/redis.v5"

	"github.com/local-minima-lab/arbor/build"
	"github.com/local-minima-lab/arbor/build/mongostore"
	"github.com/local-minima-lab/arbor/build/redisstore"
	"github.com/local-minima-lab/arbor/client"
	"github.com/local-minima-lab/arbor/tree"
)

type buildCmdConfig struct {
	*rootCmdConfig
	treeInput  string
	treeOutput string
	dataset    string
	storeURL   string
	sessionID  string
}

func buildCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &buildCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a tree node by node, interactively",
		Long: `Build a decision tree interactively: select nodes by path, inspect
server-computed feature statistics, pick thresholds and split or seal nodes,
with whole-tree metrics re-evaluated after every change. Sessions can be kept
in memory or persisted to redis or mongodb and resumed by id`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			cfg, err := rootConfig.loadConfig()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			if config.dataset != "" {
				cfg.Dataset = config.dataset
			}
			ctx := context.Background()
			store, err := config.sessionStore()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			defer store.Close(ctx)

			backend := rootConfig.backendClient(cfg)
			session, err := config.openSession(ctx, store, backend, cfg.Dataset, cfg.Criterion, cfg.MaxThresholds)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			fmt.Printf("session %s on dataset %q (criterion %s)\n", session.ID(), cfg.Dataset, cfg.Criterion)
			err = config.repl(ctx, session, store)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
		},
	}
	cmd.Flags().StringVarP(&(config.treeInput), "tree", "t", "", "path to a file from which the starting tree will be read and parsed as JSON (defaults to a single root leaf)")
	cmd.Flags().StringVarP(&(config.treeOutput), "output", "o", "", "path to a file to which the built tree will be written as JSON on save (required)")
	cmd.Flags().StringVarP(&(config.dataset), "dataset", "d", "", "name of the backend dataset to build against (defaults to the configured dataset)")
	cmd.Flags().StringVar(&(config.storeURL), "session-store", "", "URL of the session store: empty for in-memory, redis:// or mongodb://")
	cmd.Flags().StringVar(&(config.sessionID), "session", "", "id of a stored session to resume")
	return cmd
}

func (bcc *buildCmdConfig) Validate() error {
	if bcc.treeOutput == "" {
		return fmt.Errorf("required output flag was not set")
	}
	if bcc.sessionID != "" && bcc.storeURL == "" {
		return fmt.Errorf("resuming a session requires a persistent session-store")
	}
	return nil
}

func (bcc *buildCmdConfig) sessionStore() (build.SessionStore, error) {
	switch {
	case bcc.storeURL == "":
		return build.NewMemorySessionStore(), nil
	case strings.HasPrefix(bcc.storeURL, "redis://"):
		opts, err := redisOptions(bcc.storeURL)
		if err != nil {
			return nil, fmt.Errorf("parsing session-store URL: %v", err)
		}
		return redisstore.New(redis.NewClient(opts), "arbor:sessions", nil), nil
	case strings.HasPrefix(bcc.storeURL, "mongodb://"):
		return mongostore.Open(bcc.storeURL)
	}
	return nil, fmt.Errorf("unsupported session-store URL %q", bcc.storeURL)
}

func redisOptions(rawURL string) (*redis.Options, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	opts := &redis.Options{Addr: u.Host}
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	if u.User != nil {
		if password, ok := u.User.Password(); ok {
			opts.Password = password
		}
	}
	if len(u.Path) > 1 {
		db, err := strconv.Atoi(strings.TrimPrefix(u.Path, "/"))
		if err != nil {
			return nil, fmt.Errorf("invalid redis database %q: %v", u.Path, err)
		}
		opts.DB = db
	}
	return opts, nil
}

func (bcc *buildCmdConfig) openSession(ctx context.Context, store build.SessionStore, backend build.Backend, dataset, criterion string, maxThresholds int) (*build.Session, error) {
	logger := bcc.logger()
	opts := []build.Option{
		build.WithDataset(&client.DatasetRef{Name: dataset}),
		build.WithCriterion(criterion),
		build.WithMaxThresholds(maxThresholds),
		build.WithLogger(logger),
	}
	if bcc.sessionID != "" {
		st, err := store.Get(ctx, bcc.sessionID)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, fmt.Errorf("no session %q in the session store", bcc.sessionID)
		}
		return build.Resume(st, backend, build.WithLogger(logger)), nil
	}

	root := tree.Node(&tree.Leaf{})
	if bcc.treeInput != "" {
		var err error
		root, err = loadTree(bcc.treeInput)
		if err != nil {
			return nil, err
		}
	}
	session := build.NewSession(root, backend, opts...)
	st := session.Snapshot()
	err := store.Create(ctx, st)
	if err != nil {
		return nil, err
	}
	// Create assigned the id the store chose.
	session.SetID(st.ID)
	return session, nil
}

func (bcc *buildCmdConfig) repl(ctx context.Context, session *build.Session, store build.SessionStore) error {
	scanner := bufio.NewScanner(os.Stdin)
	printTree(session)
	for {
		fmt.Print("arbor> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		command, args := fields[0], fields[1:]
		switch command {
		case "quit", "exit":
			return nil
		case "help":
			printHelp()
		case "show":
			printTree(session)
		case "select":
			if len(args) != 1 {
				fmt.Println("usage: select <path> (e.g. select root, select LR)")
				continue
			}
			arg := args[0]
			if arg == "root" {
				arg = ""
			}
			p, err := tree.ParsePath(arg)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := session.SelectNode(p); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("selected %s\n", p)
		case "deselect":
			session.Deselect()
		case "feature":
			if len(args) != 1 {
				fmt.Println("usage: feature <name>")
				continue
			}
			if err := session.LoadFeatureStats(ctx, args[0]); err != nil {
				fmt.Println(err)
				continue
			}
			printFeatureStats(session)
		case "threshold":
			if len(args) != 1 {
				fmt.Println("usage: threshold <value>")
				continue
			}
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				fmt.Printf("invalid threshold %q: %v\n", args[0], err)
				continue
			}
			if err := session.UpdateThreshold(v); err != nil {
				fmt.Println(err)
			}
		case "split":
			if !session.CanSplit() {
				fmt.Println("cannot split: select a non-terminal leaf and choose a feature and threshold first")
				continue
			}
			if err := session.SplitNode(ctx); err != nil {
				fmt.Println(err)
				continue
			}
			printTree(session)
			printMetrics(session)
		case "leaf":
			if err := session.MarkAsLeaf(ctx); err != nil {
				fmt.Println(err)
				continue
			}
			printTree(session)
			printMetrics(session)
		case "metrics":
			if err := session.Evaluate(ctx); err != nil {
				fmt.Println(err)
				continue
			}
			printMetrics(session)
		case "save":
			if err := store.Store(ctx, session.Snapshot()); err != nil {
				fmt.Println(err)
				continue
			}
			if err := saveTree(bcc.treeOutput, session.Tree()); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("saved session %s and tree %s\n", session.ID(), bcc.treeOutput)
		default:
			fmt.Printf("unknown command %q, try help\n", command)
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  show                 print the tree
  select <path>        select the node at a path (root, L, R, LR, ...)
  deselect             clear the selection
  feature <name>       load threshold statistics for a feature at the selected node
  threshold <value>    choose a candidate threshold
  split                split the selected leaf at the chosen feature/threshold
  leaf                 seal the selected node as a terminal leaf
  metrics              re-evaluate whole-tree metrics
  save                 store the session and write the tree JSON
  quit                 leave`)
}

func printTree(session *build.Session) {
	var classNames []string
	if stats := session.FeatureStats(); stats != nil {
		classNames = stats.ClassNames
	}
	fmt.Println(tree.Sprint(session.Tree(), classNames))
	if p, ok := session.Selection(); ok {
		fmt.Printf("selected: %s (phase %s)\n", p, session.Phase())
	}
}

func printFeatureStats(session *build.Session) {
	stats := session.FeatureStats()
	if stats == nil {
		return
	}
	fmt.Printf("%s in [%s]\n", stats.Feature, formatRange(stats.FeatureRange))
	for _, t := range stats.Thresholds {
		marker := " "
		if t.Threshold == session.Threshold() {
			marker = "*"
		}
		fmt.Printf(" %s threshold %-10g gain %.4f\n", marker, t.Threshold, t.InformationGain)
	}
	fmt.Printf("threshold defaults to the best candidate %g\n", stats.BestThreshold)
}

func printMetrics(session *build.Session) {
	m := session.Metrics()
	if m == nil {
		return
	}
	fmt.Printf("accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f\n", m.Accuracy, m.Precision, m.Recall, m.F1)
	for _, row := range m.ConfusionMatrix {
		fmt.Printf("  %v\n", row)
	}
}

func formatRange(r []float64) string {
	if len(r) != 2 {
		return "?"
	}
	return fmt.Sprintf("%g, %g", r[0], r[1])
}
