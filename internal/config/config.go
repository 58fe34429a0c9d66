// Package config loads the simulation harness configuration: the
// instruments to seed into the engine, optional per-user risk limits,
// and the bot swarm parameters. Values come from a YAML file with
// environment-variable overrides (MMX_* via viper) and an optional
// .env file loaded before anything else.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"marketmaker/engine"
)

// Instrument is the on-disk shape of one tradable instrument.
type Instrument struct {
	ID          uint32  `mapstructure:"id" validate:"required"`
	Symbol      string  `mapstructure:"symbol" validate:"required"`
	Type        string  `mapstructure:"type" validate:"omitempty,oneof=scalar call put"`
	ReferenceID uint32  `mapstructure:"reference_id"`
	Strike      int64   `mapstructure:"strike"`
	TickSize    int64   `mapstructure:"tick_size"`
	LotSize     int64   `mapstructure:"lot_size"`
	TickValue   float64 `mapstructure:"tick_value"`
}

// Spec converts the config entry into an engine InstrumentSpec. Zeroed
// tick/lot/tick-value fields are left zero here; AddInstrument applies
// its own defaults.
func (i Instrument) Spec() (engine.InstrumentSpec, error) {
	var typ engine.InstrumentType
	switch strings.ToLower(i.Type) {
	case "", "scalar":
		typ = engine.Scalar
	case "call":
		typ = engine.Call
	case "put":
		typ = engine.Put
	default:
		return engine.InstrumentSpec{}, fmt.Errorf("unknown instrument type %q", i.Type)
	}
	return engine.InstrumentSpec{
		ID:          engine.InstrumentId(i.ID),
		Symbol:      i.Symbol,
		Type:        typ,
		ReferenceID: engine.InstrumentId(i.ReferenceID),
		Strike:      engine.Price(i.Strike),
		TickSize:    engine.Price(i.TickSize),
		LotSize:     engine.Quantity(i.LotSize),
		TickValue:   i.TickValue,
	}, nil
}

// RiskEntry assigns limits to one user. Zeroed fields fall back to the
// engine's defaults.
type RiskEntry struct {
	UserID          uint32  `mapstructure:"user_id" validate:"required"`
	MaxPosition     int64   `mapstructure:"max_position"`
	MaxNotional     float64 `mapstructure:"max_notional"`
	MaxOrdersPerSec uint32  `mapstructure:"max_orders_per_sec"`
}

// Limits converts the entry to engine RiskLimits, defaulting unset
// fields from DefaultRiskLimits.
func (r RiskEntry) Limits() engine.RiskLimits {
	limits := engine.DefaultRiskLimits()
	if r.MaxPosition > 0 {
		limits.MaxPosition = engine.Quantity(r.MaxPosition)
	}
	if r.MaxNotional > 0 {
		limits.MaxNotional = r.MaxNotional
	}
	if r.MaxOrdersPerSec > 0 {
		limits.MaxOrdersPerSec = r.MaxOrdersPerSec
	}
	return limits
}

// Simulation tunes the bot swarm.
type Simulation struct {
	InstrumentID   uint32        `mapstructure:"instrument_id"`
	Duration       time.Duration `mapstructure:"duration"`
	OrderInterval  time.Duration `mapstructure:"order_interval"`
	QuotersPerSide int           `mapstructure:"quoters_per_side"`
	BasePrice      int64         `mapstructure:"base_price"`
}

// Config is the full harness configuration.
type Config struct {
	Instruments []Instrument `mapstructure:"instruments" validate:"min=1,dive"`
	Risk        []RiskEntry  `mapstructure:"risk" validate:"dive"`
	Simulation  Simulation   `mapstructure:"simulation"`
}

// Default returns the configuration used when no file is supplied: a
// single scalar instrument and a short swarm run.
func Default() *Config {
	return &Config{
		Instruments: []Instrument{{ID: 1, Symbol: "SIM", Type: "scalar", TickSize: 1}},
		Simulation: Simulation{
			InstrumentID:   1,
			Duration:       10 * time.Second,
			OrderInterval:  50 * time.Millisecond,
			QuotersPerSide: 2,
			BasePrice:      10000,
		},
	}
}

// Load reads the configuration from path. An empty path yields
// Default(). A .env file in the working directory, when present, is
// loaded first so MMX_* overrides can live there.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetEnvPrefix("MMX")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	}
	applyDefaults(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Simulation.InstrumentID == 0 && len(cfg.Instruments) > 0 {
		cfg.Simulation.InstrumentID = cfg.Instruments[0].ID
	}
	if cfg.Simulation.Duration <= 0 {
		cfg.Simulation.Duration = def.Simulation.Duration
	}
	if cfg.Simulation.OrderInterval <= 0 {
		cfg.Simulation.OrderInterval = def.Simulation.OrderInterval
	}
	if cfg.Simulation.QuotersPerSide <= 0 {
		cfg.Simulation.QuotersPerSide = def.Simulation.QuotersPerSide
	}
	if cfg.Simulation.BasePrice <= 0 {
		cfg.Simulation.BasePrice = def.Simulation.BasePrice
	}
}

// Seed registers every configured instrument and risk entry on the
// engine. It fails on the first instrument that cannot be converted or
// is already registered.
func (c *Config) Seed(e *engine.Engine) error {
	for _, inst := range c.Instruments {
		spec, err := inst.Spec()
		if err != nil {
			return err
		}
		if !e.AddInstrument(spec) {
			return fmt.Errorf("instrument %d already registered", inst.ID)
		}
	}
	for _, r := range c.Risk {
		e.SetRiskLimits(engine.UserId(r.UserID), r.Limits())
	}
	return nil
}
