// Comando importctl lê extratos, planilhas de investimento e notas de
// corretagem pela linha de comando, sem servidor nem banco.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"go.uber.org/zap"
)

var verbose = flag.Bool("v", false, "Mostra o log de depuração dos parsers no stderr.")

func newLogger() *zap.Logger {
	if !*verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "importação")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

var commands = []subcommands.Command{
	&parseCmd{},
	&investmentsCmd{},
	&noteCmd{},
	&dedupCmd{},
}
