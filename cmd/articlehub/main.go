// Command articlehub は記事プラットフォームのWebサーバーを起動する。
//
// 使い方:
//
//	articlehub [serve]        HTTPサーバーを起動する（既定）
//	articlehub migrate [down] マイグレーションを適用する（downで1つ戻す）
//	articlehub healthcheck    /health を確認する（Dockerヘルスチェック用）
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/articlehub/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "articlehub: %v\n", err)
		os.Exit(1)
	}
}
