package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"github.com/weberc2/fsformat/pkg/builder"
	"github.com/weberc2/fsformat/pkg/logger"
	"github.com/weberc2/fsformat/pkg/objectstore"
	. "github.com/weberc2/fsformat/pkg/types"
)

const (
	exitFailure     = 1
	exitUnsupported = 2

	usage = "fsformat [options] <image-path> <file-or-directory>..."
)

func main() {
	if err := newApp(os.Stderr).Run(os.Args); err != nil {
		// exit codes are handled by the app; this is flag parsing and the like
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
}

func newApp(stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      appName,
		Usage:     "build a disk image from files and directories",
		ArgsUsage: "<image-path> <file-or-directory>...",
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a YAML config file",
			},
			&cli.Uint64Flag{
				Name:  "blocks",
				Usage: "image capacity in 4096-byte blocks",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "one of debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "one of text, json",
			},
			&cli.StringFlag{
				Name:  "s3-bucket",
				Usage: "publish the finished image to this bucket",
			},
			&cli.StringFlag{
				Name:  "s3-prefix",
				Usage: "key prefix for the published image",
			},
			&cli.StringFlag{
				Name:  "s3-region",
				Usage: "region of the publish bucket",
			},
			&cli.BoolFlag{
				Name:  "s3-gzip",
				Usage: "gzip the image before publishing it",
			},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.Args().Len() < 2 {
				return cli.Exit("usage: "+usage, exitFailure)
			}

			config, err := configure(ctx)
			if err != nil {
				return cli.Exit(err.Error(), exitFailure)
			}

			l, err := logger.New(stderr, config.LogLevel, config.LogFormat)
			if err != nil {
				return cli.Exit(err.Error(), exitFailure)
			}
			l = l.With("build", uuid.New().String())

			args := ctx.Args().Slice()
			if err := run(
				logger.Set(ctx.Context, l),
				config,
				args[0],
				args[1:],
			); err != nil {
				if errors.Is(err, builder.UnsupportedTypeErr) {
					return cli.Exit(err.Error(), exitUnsupported)
				}
				return cli.Exit(err.Error(), exitFailure)
			}
			return nil
		},
	}
}

// configure loads the config file and environment, then applies any flags
// that were set explicitly.
func configure(ctx *cli.Context) (*Config, error) {
	config, err := LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, err
	}

	if ctx.IsSet("blocks") {
		blocks := ctx.Uint64("blocks")
		if blocks > math.MaxUint32 {
			return nil, fmt.Errorf(
				"invalid configuration: --blocks `%d` exceeds `%d`",
				blocks,
				uint64(math.MaxUint32),
			)
		}
		config.Blocks = Block(blocks)
	}
	if ctx.IsSet("log-level") {
		config.LogLevel = ctx.String("log-level")
	}
	if ctx.IsSet("log-format") {
		config.LogFormat = ctx.String("log-format")
	}
	if ctx.IsSet("s3-bucket") {
		config.S3.Bucket = ctx.String("s3-bucket")
	}
	if ctx.IsSet("s3-prefix") {
		config.S3.Prefix = ctx.String("s3-prefix")
	}
	if ctx.IsSet("s3-region") {
		config.S3.Region = ctx.String("s3-region")
	}
	if ctx.IsSet("s3-gzip") {
		config.S3.Gzip = ctx.Bool("s3-gzip")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func run(
	ctx context.Context,
	config *Config,
	imagePath string,
	inputs []string,
) error {
	b, err := builder.New(config.Blocks)
	if err != nil {
		return err
	}

	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return fmt.Errorf("resolving `%s`: %w", input, err)
		}
		if err := b.AddPath(
			ctx,
			os.DirFS(filepath.Dir(abs)),
			filepath.Base(abs),
		); err != nil {
			return err
		}
	}

	result, err := b.Finish(ctx, imagePath)
	if err != nil {
		return err
	}

	if config.S3.Bucket == "" {
		return nil
	}
	return publish(ctx, config.S3, result)
}

func publish(
	ctx context.Context,
	config S3Config,
	result builder.Result,
) error {
	s3ObjectStore, err := objectstore.NewS3ObjectStore(config.Region)
	if err != nil {
		return fmt.Errorf("publishing image `%s`: %w", result.Path, err)
	}

	publisher := objectstore.Publisher{
		ObjectStore: s3ObjectStore,
		Bucket:      config.Bucket,
		Prefix:      config.Prefix,
	}
	if config.Gzip {
		publisher.ObjectStore = &objectstore.GzipObjectStore{
			ObjectStore: s3ObjectStore,
		}
	}

	_, err = publisher.Publish(ctx, result.Path, result.Digest)
	return err
}
