// Copyright 2024 Fantom Foundation
// This file is part of Fiber, an exact test toolkit for contingency tables
//
// Fiber is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Fiber is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Fiber. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"

	"github.com/Fantom-foundation/Fiber/cmd/exact-cli/exact"
	"github.com/Fantom-foundation/Fiber/utils"
	"github.com/urfave/cli/v2"
)

// initExactApp initializes an exact-cli app.
func initExactApp() *cli.App {
	return &cli.App{
		Name:      "Fiber Exact Test",
		HelpName:  "exact-cli",
		Usage:     "Markov chain Monte Carlo exact test for two-way contingency tables",
		Copyright: "(c) 2024 Fantom Foundation",
		Version:   utils.GitCommit,
		Flags:     []cli.Flag{},
		Commands: []*cli.Command{
			&exact.TestCommand,
			&exact.InfoCommand,
			&exact.BasisCommand,
		},
	}
}

// main implements "exact-cli" application.
func main() {
	app := initExactApp()
	if err := app.Run(os.Args); err != nil {
		code := 1
		fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}
