// Command queendahyun はQueenDahyunのマーケティングサイトと認証クライアントを提供する。
//
// 使い方:
//
//	queendahyun [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/queendahyun/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "queendahyun: %v\n", err)
		os.Exit(1)
	}
}
