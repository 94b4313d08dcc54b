package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/adapters/filter"
	"github.com/mikey/phish-guard/internal/core"
	"github.com/mikey/phish-guard/internal/di"
)

func main() {
	flags, err := di.ParseFlags(os.Args[0], os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	cli *filter.CliFilter,
	service *core.AssessmentService,
	mlClient core.MLClient,
) error {
	defer logger.Sync()
	defer func() {
		if closer, ok := mlClient.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close remote classifier", zap.Error(err))
			}
		}
	}()

	ctx := context.Background()

	if flags.CheckAPI {
		if err := service.CheckRemote(ctx); err != nil {
			fmt.Printf("Remote classifier: unavailable (%v)\n", err)
			return err
		}
		fmt.Printf("Remote classifier: healthy\n")
		return nil
	}

	if flags.URL != "" {
		pageText := flags.PageText
		if flags.InputFile != "" {
			data, err := os.ReadFile(flags.InputFile)
			if err != nil {
				return fmt.Errorf("failed to read page text: %w", err)
			}
			pageText = string(data)
		}
		_, err := cli.ProcessURL(ctx, &core.PageSubject{
			URL:       flags.URL,
			PageText:  pageText,
			LinkCount: flags.LinkCount,
		})
		return err
	}

	// Read email from file or stdin
	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	email, err := filter.ParseEmail(emailReader)
	if err != nil {
		return err
	}

	_, err = cli.ProcessEmail(ctx, email)
	return err
}
