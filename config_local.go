// config_local.go
// config.go は直接さわらずにここで差し替え

package main

func init() {
	LocalOverride = func(cfg *Config) {

		// コメントアウトでデフォルト値が使われる。

		// 繰り返し回数（1024 点で 10 万回が数秒）
		cfg.MaxIters = int64(100_000)
		// 進行状況表示の更新間隔（多すぎると遅くなる）
		cfg.PrintEvery = int64(1_000)
		// パラメータ表の表示を制限。ファイルには全部保存される。
		cfg.MaxPrint = 20
		// 乱数 seed（0 なら実行時刻ベース）
		cfg.Seed = 0
		// セッションの圧縮（none / zstd / s2 / lz4）
		cfg.Compression = "zstd"
	}
}
