package main

import (
	"fmt"
	"os"

	"github.com/yungbote/quizpages/internal/app"
	"github.com/yungbote/quizpages/internal/cli"
)

func main() {
	err := cli.Execute(func() (cli.Pages, cli.Seeder, func(), error) {
		a, err := app.New()
		if err != nil {
			return nil, nil, nil, err
		}
		return a.Services.Pages, a.Services.Seed, a.Close, nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
