package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/korjavin/mensaplan/pkg/archive"
	"github.com/korjavin/mensaplan/pkg/bot"
	"github.com/korjavin/mensaplan/pkg/config"
	"github.com/korjavin/mensaplan/pkg/delivery"
	"github.com/korjavin/mensaplan/pkg/logger"
	"github.com/korjavin/mensaplan/pkg/menu"
	"github.com/korjavin/mensaplan/pkg/messages"
	"github.com/korjavin/mensaplan/pkg/models"
	"github.com/korjavin/mensaplan/pkg/openmensa"
	"github.com/korjavin/mensaplan/pkg/preview"
	"github.com/korjavin/mensaplan/pkg/telegram"
	"github.com/korjavin/mensaplan/pkg/zulip"
)

const gcInterval = 10 * time.Minute

type options struct {
	envFile      string
	once         bool
	date         string
	dryRun       bool
	offline      bool
	preview      string
	listArchived bool
}

func main() {
	if err := run(); err != nil {
		logger.Global.Error("%v", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flagSet := pflag.NewFlagSet("mensabot", pflag.ContinueOnError)
	flagSet.StringVar(&opts.envFile, "env-file", "", "load environment variables from this file instead of .env")
	flagSet.BoolVar(&opts.once, "once", false, "post one announcement now and exit")
	flagSet.StringVar(&opts.date, "date", "", "menu date for --once and --preview (YYYY-MM-DD, default today)")
	flagSet.BoolVar(&opts.dryRun, "dry-run", false, "print messages to stdout instead of posting them")
	flagSet.BoolVar(&opts.offline, "offline", false, "read menus from the archive instead of the menu source")
	flagSet.StringVar(&opts.preview, "preview", "", "write an HTML preview of the messages to this file and exit")
	flagSet.BoolVar(&opts.listArchived, "list-archived", false, "print the archived menu dates of the canteen and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}
	if opts.date != "" && !opts.once && opts.preview == "" {
		return fmt.Errorf("--date requires --once or --preview")
	}

	log := logger.Global
	log.Info("Starting mensa bot...")

	// Dry runs and archive listings need no chat credentials
	var overrides config.Overrides
	if opts.dryRun || opts.listArchived {
		overrides.Delivery = config.DeliveryConsole
	}
	cfg, err := config.Load(opts.envFile, overrides)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	logger.SetGlobal(logger.NewWithWriter(os.Stdout, "", cfg.LogLevel))
	log = logger.Global

	if opts.listArchived {
		return listArchived(cfg, os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, closeArchive, err := newProvider(ctx, stop, cfg, opts.offline)
	if err != nil {
		return err
	}
	defer closeArchive()

	sender, err := newSender(cfg)
	if err != nil {
		return err
	}
	channel := cfg.Channel
	if channel == "" {
		channel = config.DeliveryConsole
	}

	runner := bot.New(bot.Options{
		Location: cfg.Location,
		PostTime: cfg.PostTime,
		Provider: provider,
		Canteen:  cfg.CanteenID,
		Renderer: messages.NewRenderer(cfg.Layout),
		Sender:   sender,
		Channel:  channel,

		WaitThreshold: cfg.WaitThreshold,
	})

	date := models.DateOf(time.Now().In(cfg.Location))
	if opts.date != "" {
		if date, err = models.ParseDate(opts.date); err != nil {
			return errors.Wrap(err, "--date")
		}
	}

	switch {
	case opts.preview != "":
		return writePreview(ctx, runner, date, opts.preview)
	case opts.once:
		return runner.RunCycle(ctx, date)
	}

	log.Info("Bot is now running. Press CTRL-C to exit.")
	if err := runner.Run(ctx); err != nil {
		return errors.Wrap(err, "error running bot")
	}
	log.Info("Shutting down...")
	return nil
}

// newProvider builds the menu source, archiving every fetch when a data
// directory is configured. The returned function calls stop, which ends the
// GC routine, and then closes the archive.
func newProvider(ctx context.Context, stop context.CancelFunc, cfg *config.Config, offline bool) (menu.Provider, func(), error) {
	var provider menu.Provider = openmensa.New(cfg.OpenMensaAPI, cfg.HTTPTimeout, cfg.Layout.SideGroups[:])
	if cfg.DataDir == "" {
		if offline {
			return nil, nil, fmt.Errorf("--offline needs DATA_DIR")
		}
		return provider, func() {}, nil
	}

	store, err := archive.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize archive")
	}
	store.StartGCRoutine(ctx, gcInterval)

	if offline {
		provider = archive.Offline(store)
	} else {
		provider = archive.Archiving(provider, store)
	}
	return provider, func() {
		stop()
		if err := store.Close(); err != nil {
			logger.Global.Error("Failed to close archive: %v", err)
		}
	}, nil
}

// listArchived writes the archived dates of the configured canteen to w, one
// per line.
func listArchived(cfg *config.Config, w io.Writer) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("--list-archived needs DATA_DIR")
	}
	store, err := archive.Open(cfg.DataDir)
	if err != nil {
		return errors.Wrap(err, "failed to initialize archive")
	}
	defer store.Close()

	dates, err := store.Dates(cfg.CanteenID)
	if err != nil {
		return err
	}
	for _, date := range dates {
		fmt.Fprintln(w, date)
	}
	return nil
}

func newSender(cfg *config.Config) (delivery.Sender, error) {
	switch cfg.Delivery {
	case config.DeliveryZulip:
		return zulip.New(cfg.Zulip.Site, cfg.Zulip.Email, cfg.Zulip.APIKey, cfg.HTTPTimeout), nil
	case config.DeliveryTelegram:
		b, err := telegram.New(cfg.BotToken)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return delivery.NewConsole(os.Stdout), nil
	}
}

func writePreview(ctx context.Context, runner *bot.Runner, date models.Date, path string) error {
	msgs, err := runner.Prepare(ctx, date)
	if err != nil {
		return err
	}
	doc, err := preview.HTML(msgs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return errors.Wrap(err, "write preview")
	}
	logger.Global.Info("Preview of %d messages for %s written to %s (%d menu rows)",
		len(msgs), date, path, preview.TableRows(msgs[0].Body))
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `mensabot posts the canteen menu to a chat channel every weekday.

Configuration is read from the environment and an optional .env file:
  DELIVERY        zulip (default), telegram or console
  CHANNEL         Zulip stream, Telegram chat id or @channel
  ZULIP_SITE, ZULIP_EMAIL, ZULIP_API_KEY
  BOT_TOKEN       Telegram bot token
  TIMEZONE        default Europe/Berlin
  POST_TIME       HH:MM[:SS], default 11:25:00
  CANTEEN_ID      OpenMensa canteen, default 187
  OPENMENSA_API   default https://openmensa.org/api/v2
  MENU_LAYOUT     optional YAML layout file
  DATA_DIR        menu archive, default ./data (empty disables)
  LOG_LEVEL       debug, info, warn or error
  HTTP_TIMEOUT    default 30s
  WAIT_THRESHOLD  remaining wait below which sleeping stops halving, default 200ms

Usage:
  mensabot [flags]

Examples:
  # Run the daily loop
  mensabot

  # Print today's announcement without posting it
  mensabot --once --dry-run

  # Check the layout of a past menu from the archive
  mensabot --offline --date 2024-05-06 --preview menu.html

  # Show which days the archive holds
  mensabot --list-archived

Flags:
`)
	flagSet.PrintDefaults()
}
