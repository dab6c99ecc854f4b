package app

import "strings"

// Command は編集コアの起動モードを表す。
type Command string

const (
	// CommandServe は編集APIサーバーを起動する。
	CommandServe Command = "serve"
	// CommandWorker は失効ロックの掃除ワーカーを起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はスキーママイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中のサーバーの/healthを確認して終了する。
	// distrolessイメージのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// commandAliases はサブコマンド名と別名の対応。
var commandAliases = map[string]Command{
	"serve":        CommandServe,
	"server":       CommandServe,
	"worker":       CommandWorker,
	"lock-sweeper": CommandWorker,
	"migrate":      CommandMigrate,
	"healthcheck":  CommandHealthcheck,
}

// ParseCommand はコマンドライン引数の先頭からサブコマンドを解析する。
// 大文字小文字は区別しない。引数が空またはサポート外の場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := commandAliases[strings.ToLower(strings.TrimSpace(args[0]))]; ok {
		return cmd
	}
	return CommandServe
}

// RequiresDatabase はDATABASE_URLなしでは実行できないモードかを返す。
// serveは縮退モードで起動でき、healthcheckはデータベースに触れない。
func (c Command) RequiresDatabase() bool {
	return c == CommandWorker || c == CommandMigrate
}
