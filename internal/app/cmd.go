package app

// Command はバイナリの起動モード。docker-composeではapi・worker・migrateの各コンテナが
// 同一イメージを異なるサブコマンドで起動する。
type Command string

const (
	CommandServe   Command = "serve"   // APIサーバー（デフォルト）
	CommandWorker  Command = "worker"  // 拒否履歴のクリーンアップ
	CommandMigrate Command = "migrate" // スキーマ適用後に終了
	// CommandHealthcheck はdistrolessイメージにcurlがないため、HEALTHCHECKから自分自身を呼び出すのに使う。
	CommandHealthcheck Command = "healthcheck"
)

var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandWorker):      CommandWorker,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 引数なし・未知のサブコマンドはserveとして扱い、2番目以降の引数は無視する。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
