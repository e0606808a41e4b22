// Package config loads the settings of the solverify command from
// defaults, an optional ini file and the command line, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
	"github.com/twine-labs/solproof/accumulator"
	"github.com/twine-labs/solproof/log"
	"github.com/twine-labs/solproof/solacc"
)

var (
	ErrNoWindow      = errors.New("no window file given")
	ErrNoAnchor      = errors.New("no anchor bank hash given")
	ErrInvalidAnchor = errors.New("invalid anchor bank hash")
	ErrInvalidOption = errors.New("invalid option")
)

func errInvalidAnchor(s string, err error) error {
	return fmt.Errorf("%w %q: %v", ErrInvalidAnchor, s, err)
}

func errInvalidOption(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidOption, fmt.Sprintf(format, args...))
}

// Config is everything solverify can be told.
type Config struct {
	ConfigFile    string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir       string `short:"b" long:"datadir" description:"Directory to store the verdict archive"`
	LogDir        string `long:"logdir" description:"Directory to log output"`
	DebugLevel    string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	Window        string `short:"w" long:"window" description:"Window file to verify"`
	Anchor        string `short:"a" long:"anchor" description:"Base58 bank hash of the slot just before the window"`
	Workers       int    `long:"workers" description:"Goroutines per proof or signature batch (0 picks from the cpu count)"`
	SigCacheSize  int    `long:"sigcachesize" description:"Signature cache size in MiB (0 disables the cache)"`
	BridgeProgram string `long:"bridgeprogram" description:"Only count deposits in accounts owned by this base58 program id"`
	MetricsFile   string `long:"metricsfile" description:"Write verification metrics to this file"`
	NoStore       bool   `long:"nostore" description:"Don't archive the verdict"`

	// Filled in by Load from the options above.
	AnchorHash  accumulator.Hash
	ProgramID   *solacc.Pubkey
	VerdictsDir string
	LogFile     string
}

// Load parses args on top of the defaults and the config file. A config
// file that was never asked for may be missing. The returned error is
// flags.ErrHelp (wrapped in a *flags.Error) when help was requested; the
// help text is then in the error message.
func Load(args []string) (*Config, error) {
	// Pre-parse the command line options to see if an alternative config
	// file was specified. Any errors aside from the help message error can
	// be ignored here since they will be caught by the final parse below.
	preCfg := defaultConfig()
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	if _, err := preParser.ParseArgs(args); err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			return nil, err
		}
	}

	cfg := defaultConfig()
	parser := flags.NewParser(&cfg, flags.HelpFlag)

	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	err := flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) || preCfg.ConfigFile != defaultConfigFile {
			return nil, fmt.Errorf("error parsing config file %s: %w",
				configFile, err)
		}
	}

	// Parse command line options again to ensure they take precedence.
	remaining, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if len(remaining) > 0 {
		return nil, errInvalidOption("unexpected arguments %v", remaining)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks option values and fills in the derived fields.
func (cfg *Config) validate() error {
	if err := log.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return errInvalidOption("%v", err)
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.VerdictsDir = filepath.Join(cfg.DataDir, verdictsDirname)
	cfg.LogFile = filepath.Join(cfg.LogDir, defaultLogFilename)
	cfg.MetricsFile = cleanAndExpandPath(cfg.MetricsFile)

	if cfg.Window == "" {
		return ErrNoWindow
	}
	cfg.Window = cleanAndExpandPath(cfg.Window)

	if cfg.Anchor == "" {
		return ErrNoAnchor
	}
	anchor, err := accumulator.HashFromString(cfg.Anchor)
	if err != nil {
		return errInvalidAnchor(cfg.Anchor, err)
	}
	cfg.AnchorHash = anchor

	if cfg.Workers < 0 {
		return errInvalidOption("workers must not be negative, got %d",
			cfg.Workers)
	}
	if cfg.SigCacheSize < 0 {
		return errInvalidOption("sigcachesize must not be negative, got %d",
			cfg.SigCacheSize)
	}

	if cfg.BridgeProgram != "" {
		pk, err := solacc.PubkeyFromString(cfg.BridgeProgram)
		if err != nil {
			return errInvalidOption("bridgeprogram %q: %v",
				cfg.BridgeProgram, err)
		}
		cfg.ProgramID = &pk
	}
	return nil
}
