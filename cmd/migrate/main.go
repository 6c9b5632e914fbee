// Command migrate applies the versioned SQL files under migrations/ through
// the atlas CLI. Database settings come from the same DB_* variables the
// server reads.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"villa-booking/internal/handler/middleware"
	"villa-booking/internal/pkg/config"

	"ariga.io/atlas-go-sdk/atlasexec"
)

func main() {
	dir := flag.String("dir", "migrations", "migration directory")
	atlasBin := flag.String("atlas", "atlas", "path to the atlas binary")
	dryRun := flag.Bool("dry-run", false, "print pending statements without executing them")
	statusOnly := flag.Bool("status", false, "report migration status and exit")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("設定の読み込みに失敗しました", "error", err)
		os.Exit(1)
	}
	logger := middleware.NewLogger(cfg.Log).GetSlogLogger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := atlasexec.NewClient(".", *atlasBin)
	if err != nil {
		logger.Error("atlasクライアントの初期化に失敗しました", "error", err)
		os.Exit(1)
	}

	dsn := cfg.DB.BuildDSN()
	dirURL := "file://" + *dir

	if *statusOnly {
		status, err := client.MigrateStatus(ctx, &atlasexec.MigrateStatusParams{
			URL:    dsn,
			DirURL: dirURL,
		})
		if err != nil {
			logger.Error("マイグレーション状態の取得に失敗しました", "error", err)
			os.Exit(1)
		}
		logger.Info("Migration status",
			"status", status.Status,
			"current", status.Current,
			"next", status.Next,
			"pending", len(status.Pending),
		)
		return
	}

	res, err := client.MigrateApply(ctx, &atlasexec.MigrateApplyParams{
		URL:    dsn,
		DirURL: dirURL,
		DryRun: *dryRun,
	})
	if err != nil {
		logger.Error("マイグレーションの適用に失敗しました", "error", err)
		os.Exit(1)
	}

	for _, f := range res.Applied {
		logger.Info("Migration applied", "file", f.Name, "version", f.Version)
	}
	logger.Info("マイグレーションが完了しました",
		"from", res.Current,
		"to", res.Target,
		"applied", len(res.Applied),
		"dry_run", *dryRun,
	)
}
