// Package cleanup は失効した編集ロックの定期掃除ジョブを提供する。
// ロックの失効判定は読み取り時にも行われるため、このジョブは放置された行の削除のみを担う。
package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval は掃除ジョブのデフォルトの実行間隔。
const DefaultInterval = time.Minute

// LockSweeper は失効ロックを一括削除するインターフェース。
type LockSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// LockSweepJob は失効ロックを定期的に削除するジョブ。
// 冪等であり、複数プロセスから同時に実行しても結果は変わらない。
type LockSweepJob struct {
	locks    LockSweeper
	logger   *slog.Logger
	interval time.Duration
}

// NewLockSweepJob はLockSweepJobを生成する。
// intervalが0以下の場合はDefaultIntervalを使用する。
func NewLockSweepJob(locks LockSweeper, logger *slog.Logger, interval time.Duration) *LockSweepJob {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LockSweepJob{
		locks:    locks,
		logger:   logger,
		interval: interval,
	}
}

// Interval は実行間隔を返す。
func (j *LockSweepJob) Interval() time.Duration {
	return j.interval
}

// Start はティッカーでジョブを起動し、コンテキストがキャンセルされるまで実行を継続する。
func (j *LockSweepJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("ロック掃除ジョブを開始しました",
		slog.Duration("interval", j.interval),
	)

	// 起動直後に1回実行
	j.runAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("ロック掃除ジョブを停止しました")
			return
		case <-ticker.C:
			j.runAndLog(ctx)
		}
	}
}

func (j *LockSweepJob) runAndLog(ctx context.Context) {
	if _, err := j.Run(ctx); err != nil {
		j.logger.Error("ロック掃除ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// Run は失効ロックを1回削除し、削除件数を返す。
// 削除対象がない場合でもエラーにならない。
func (j *LockSweepJob) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	deleted, err := j.locks.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		j.logger.Info("失効ロックを削除しました",
			slog.Int64("deleted_count", deleted),
			slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
		)
	} else {
		j.logger.Debug("削除対象の失効ロックはありません")
	}
	return deleted, nil
}
