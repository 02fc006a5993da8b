package main

import (
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/racevault/market-server/internal/chain"
	"github.com/racevault/market-server/internal/codestore"
	"github.com/racevault/market-server/internal/database"
	"github.com/racevault/market-server/internal/events"
	"github.com/racevault/market-server/internal/model"
	"github.com/racevault/market-server/internal/redis"
	"github.com/racevault/market-server/internal/repository"
	"github.com/racevault/market-server/internal/service"
	"github.com/racevault/market-server/internal/sse"
)

var codesCmd = &cobra.Command{
	Use:     "codes",
	Short:   "Inspect and maintain pairing codes",
	GroupID: "codes",
}

// codeEnv holds the connections a codes subcommand opened.
type codeEnv struct {
	db    *database.DB
	redis *redis.Client
	store codestore.Store
}

func (e *codeEnv) Close() {
	if e.redis != nil {
		e.redis.Close()
	}
	if e.db != nil {
		e.db.Close()
	}
}

func openCodeEnv(cmd *cobra.Command) (*codeEnv, error) {
	env := &codeEnv{}

	db, err := openDB(cmd.Context())
	if err != nil {
		return nil, err
	}
	env.db = db

	rdb, err := openRedis()
	if err != nil {
		env.Close()
		return nil, err
	}
	env.redis = rdb

	var client *goredis.Client
	if rdb != nil {
		client = rdb.Client
	}
	store, err := codestore.New(cfg.CodeStore, db, client)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.store = store
	return env, nil
}

func (e *codeEnv) syncService() *service.SyncService {
	return service.NewSyncService(
		e.store,
		repository.NewUserRepository(e.db.DB),
		sse.NewWaiters(),
		&events.NoopPublisher{},
		chain.NewClient(cfg.RPCURL, cfg.TokenAddress, cfg.NFTContract),
		cfg.SyncCodeTTL(),
	)
}

var codesSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired pairing codes now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openCodeEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		expirer, ok := env.store.(codestore.Expirer)
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "The %s code store expires codes on its own\n", cfg.CodeStore)
			return nil
		}

		removed, err := expirer.DeleteExpired(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweeping codes: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{"removed": removed})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired codes\n", removed)
		return nil
	},
}

var codesNewCmd = &cobra.Command{
	Use:   "new <wallet>",
	Short: "Register a pairing code for a wallet",
	Long: `Register a pairing code for a wallet.

Without --balance the balance and vehicles are read from chain and the code is
generated. With --balance the given snapshot is stored under --code.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wallet := args[0]
		code, _ := cmd.Flags().GetString("code")
		vehicles, _ := cmd.Flags().GetStringSlice("vehicle")

		env, err := openCodeEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		svc := env.syncService()

		var pc *model.PairingCode
		if cmd.Flags().Changed("balance") {
			if code == "" {
				return fmt.Errorf("--code is required with --balance")
			}
			balance, _ := cmd.Flags().GetFloat64("balance")
			pc, err = svc.Register(cmd.Context(), service.RegisterInput{
				Code:     code,
				Wallet:   wallet,
				Balance:  &balance,
				Vehicles: vehicles,
			})
		} else {
			pc, err = svc.IssueCode(cmd.Context(), wallet)
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, pc)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  wallet=%s balance=%g expires=%s\n",
			pc.Code, pc.Wallet, pc.Balance, pc.ExpiresAt.Format(time.RFC3339))
		return nil
	},
}

var codesStatusCmd = &cobra.Command{
	Use:   "status <code>",
	Short: "Show whether a pairing code is pending or completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openCodeEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		status, err := env.syncService().Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{"code": args[0], "status": status})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], status)
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	codesNewCmd.Flags().String("code", "", "code to register (required with --balance)")
	codesNewCmd.Flags().Float64("balance", 0, "token balance snapshot; skips the chain read")
	codesNewCmd.Flags().StringSlice("vehicle", nil, "vehicle NFT id (repeatable)")

	codesCmd.AddCommand(codesSweepCmd)
	codesCmd.AddCommand(codesNewCmd)
	codesCmd.AddCommand(codesStatusCmd)
}
