package config

import "time"

const (
	// DataFilePermission は出力ファイルのパーミッション
	DataFilePermission = 0644

	// OutputDirPermission は出力ディレクトリ作成時のパーミッション
	OutputDirPermission = 0755

	// LockTimeout は出力ファイルロック取得の待ち時間
	LockTimeout = 2 * time.Second

	// LockRetryDelay はロック再試行の間隔
	LockRetryDelay = 10 * time.Millisecond
)
