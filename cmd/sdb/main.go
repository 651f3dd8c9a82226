// Command sdb is the CLI surface of spec.md §6.6: play a single match, or
// run a tournament from a schedule file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sdbench/sdb/internal/agentimpl"
	"github.com/sdbench/sdb/internal/authz"
	"github.com/sdbench/sdb/internal/config"
	"github.com/sdbench/sdb/internal/logger"
	"github.com/sdbench/sdb/internal/match"
	"github.com/sdbench/sdb/internal/registry"
	"github.com/sdbench/sdb/internal/repository/postgres"
	"github.com/sdbench/sdb/internal/repository/rediscache"
	"github.com/sdbench/sdb/internal/tournament"
	"github.com/sdbench/sdb/pkg/sdb"
)

func main() {
	logger.Init()

	root := &cobra.Command{
		Use:   "sdb",
		Short: "Benchmark harness for hidden-information multiplayer deduction games",
	}
	root.AddCommand(newPlayCmd(), newTournamentCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newPlayCmd() *cobra.Command {
	var (
		game        string
		numPlayers  int
		agentType   string
		agentURL    string
		model       string
		temperature float64
		outputDir   string
		seed        int64
		maxSteps    int
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a single match and write its event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			spec, err := registry.Get(game)
			if err != nil {
				return fmt.Errorf("unknown game %q (known: %v): %w", game, registry.Names(), err)
			}
			if ok, warning := spec.ValidatePlayerCount(numPlayers); !ok {
				return fmt.Errorf("invalid player count: %s", warning)
			} else if warning != "" {
				log.Warn().Msg(warning)
			}

			if agentType == "http" {
				if err := cfg.RequireAgentCredentials(); err != nil {
					return err
				}
			}

			matchID := logger.NewMatchID()
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			engine, err := spec.New(matchID, seed, numPlayers, registry.Options{})
			if err != nil {
				return fmt.Errorf("construct engine: %w", err)
			}

			jwtMgr := authz.NewJWTManager(cfg.JWTSigningSecret, time.Hour)
			oauth := oauthProviderFromConfig(cfg)
			agents := make(map[sdb.PlayerID]sdb.Agent, numPlayers)
			for i := 0; i < numPlayers; i++ {
				agents[sdb.PlayerID(i)] = buildAgent(agentType, agentURL, matchID, i, numPlayers, game, model, temperature, jwtMgr, oauth)
			}

			bound := maxSteps
			if bound <= 0 {
				bound = cfg.MaxSteps
			}
			driver := match.NewDriver(bound, time.Duration(cfg.AgentTimeoutSecs)*time.Second, log.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result := driver.Run(ctx, matchID, engine, agents)

			if outputDir != "" {
				if err := writeMatchOutput(outputDir, matchID, engine.Events(), result); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			}

			fmt.Printf("match %s: winner=%s reason=%q outcome=%s rounds=%d\n",
				matchID, result.Winner, result.WinReason, result.Outcome, result.Rounds)
			return nil
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "game to play (required): "+joinNames(registry.Names()))
	cmd.Flags().IntVar(&numPlayers, "players", 0, "number of players (required)")
	cmd.Flags().StringVar(&agentType, "agent-type", "random", "agent implementation: random|http")
	cmd.Flags().StringVar(&agentURL, "agent-url", "", "webhook URL for agent-type=http")
	cmd.Flags().StringVar(&model, "model", "", "model identifier passed through to http agents")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.7, "sampling temperature passed through to http agents")
	cmd.Flags().StringVar(&outputDir, "output", "", "directory to write the match's event log and result")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (0 = derived from current time)")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "override the safety-bound step count")
	_ = cmd.MarkFlagRequired("game")
	_ = cmd.MarkFlagRequired("players")

	return cmd
}

func newTournamentCmd() *cobra.Command {
	var (
		scheduleFile string
		outputDir    string
		concurrency  int
		persist      bool
		liveCache    bool
		postgresURL  string
		redisURL     string
	)

	cmd := &cobra.Command{
		Use:   "tournament",
		Short: "Run a tournament from a schedule file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			sched, err := tournament.LoadSchedule(scheduleFile)
			if err != nil {
				return err
			}
			for _, m := range sched.Matches {
				for _, p := range m.Players {
					if p.Type == "http" {
						if err := cfg.RequireAgentCredentials(); err != nil {
							return err
						}
						break
					}
				}
			}

			raw, _ := os.ReadFile(scheduleFile)

			concurrencyCap := concurrency
			if concurrencyCap <= 0 {
				concurrencyCap = sched.MaxConcurrentGames
			}
			if concurrencyCap <= 0 {
				concurrencyCap = cfg.MaxConcurrentGames
			}
			bound := sched.MaxSteps
			if bound <= 0 {
				bound = cfg.MaxSteps
			}

			sch := &tournament.Scheduler{
				MaxConcurrentGames: concurrencyCap,
				MaxSteps:           bound,
				AgentTimeout:       time.Duration(cfg.AgentTimeoutSecs) * time.Second,
				OutputDir:          outputDir,
				JWTMgr:             authz.NewJWTManager(cfg.JWTSigningSecret, time.Hour),
				OAuth:              oauthProviderFromConfig(cfg),
				Log:                log.Logger,
			}

			if persist {
				dsn := postgresURL
				if dsn == "" {
					dsn = cfg.DatabaseURL
				}
				db, err := postgres.Connect(dsn)
				if err != nil {
					return fmt.Errorf("--persist: %w", err)
				}
				defer db.Close()
				sch.Results = postgres.NewResultsRepo(db)
			}

			if liveCache {
				url := redisURL
				if url == "" {
					url = cfg.RedisURL
				}
				cache, err := rediscache.NewClient(url)
				if err != nil {
					return fmt.Errorf("--live-cache: %w", err)
				}
				defer cache.Close()
				sch.Cache = cache
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := sch.Run(ctx, sched, string(raw))
			if err != nil {
				return err
			}

			fmt.Printf("tournament %s: %d/%d matches successful\n",
				sched.TournamentID, report.SuccessfulMatches, report.TotalMatches)
			return nil
		},
	}

	cmd.Flags().StringVar(&scheduleFile, "config", "", "tournament schedule file (required)")
	cmd.Flags().StringVar(&outputDir, "output", "./sdb-output", "directory to write per-match event logs and the aggregate report")
	cmd.Flags().IntVar(&concurrency, "max-concurrent-games", 0, "override the schedule's/config's concurrency cap")
	cmd.Flags().BoolVar(&persist, "persist", false, "persist match results and the tournament report to Postgres")
	cmd.Flags().BoolVar(&liveCache, "live-cache", false, "cache live match state in Redis and subscribe to operator cancellation")
	cmd.Flags().StringVar(&postgresURL, "postgres-url", "", "Postgres DSN (default: config's DATABASE_URL)")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL (default: config's REDIS_URL)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// buildAgent constructs one player's agent. model/temperature are carried
// through only as far as the HTTP agent's request payload — the core never
// interprets them.
func buildAgent(agentType, url, matchID string, player, numPlayers int, game, model string, temperature float64, jwtMgr *authz.JWTManager, oauth *authz.ProviderTokenSource) sdb.Agent {
	switch agentType {
	case "http":
		opts := []agentimpl.HTTPAgentOption{
			agentimpl.WithModelParams(model, temperature),
			agentimpl.WithFallback(agentimpl.NewRandomAgent(numPlayers, int64(player))),
		}
		if oauth != nil {
			opts = append(opts, agentimpl.WithOAuthProvider(oauth))
		} else {
			opts = append(opts, agentimpl.WithAuth(jwtMgr))
		}
		return agentimpl.NewHTTPAgent(url, matchID, player, game, opts...)
	default:
		return agentimpl.NewRandomAgent(numPlayers, int64(player)+time.Now().UnixNano())
	}
}

// oauthProviderFromConfig builds an OAuth2 client-credentials token source
// for the configured agent provider, or nil if none is configured.
func oauthProviderFromConfig(cfg *config.Config) *authz.ProviderTokenSource {
	if cfg.OAuthTokenURL == "" {
		return nil
	}
	return authz.NewProviderTokenSource(cfg.OAuthProviderName, cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthTokenURL, cfg.OAuthScopes)
}

func writeMatchOutput(dir, matchID string, events []sdb.Event, result sdb.GameResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	logPath := dir + "/" + matchID + ".jsonl"
	f, err := os.Create(logPath)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}

	resultPath := dir + "/" + matchID + ".result.json"
	rf, err := os.Create(resultPath)
	if err != nil {
		return err
	}
	defer rf.Close()
	return json.NewEncoder(rf).Encode(result)
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
