package config

import "flag"

// Flags holds the command-line overrides registered on one FlagSet.
// Only flags given explicitly on the command line override the config.
type Flags struct {
	fs *flag.FlagSet

	Config  *string
	Debug   *bool
	Step    *float64
	Workers *int
	Out     *string
	Format  *string
	Key     *string
	Prefix  *string
	Triple  *string
	LogFile *string
}

// RegisterFlags defines the config override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs:      fs,
		Config:  fs.String("config", "", "Path to config file"),
		Debug:   fs.Bool("debug", false, "Enable debug logging"),
		Step:    fs.Float64("step", 0, "Distance between cutting planes"),
		Workers: fs.Int("workers", 0, "Worker pool size"),
		Out:     fs.String("out", "", "Output directory for layer images"),
		Format:  fs.String("format", "", "Layer image format: png, bmp or tiff"),
		Key:     fs.String("key", "", "Name layer files by index or height"),
		Prefix:  fs.String("prefix", "", "Layer file name prefix"),
		Triple:  fs.String("triple", "", "Triangles with three plane hits: loop or drop"),
		LogFile: fs.String("log", "", "Also write logs to this file"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.Config
}

func (f *Flags) visited() map[string]bool {
	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) {
		set[fl.Name] = true
	})
	return set
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	set := f.visited()
	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if set["step"] {
		cfg.Slice.Step = *f.Step
	}
	if set["workers"] {
		cfg.Slice.Workers = *f.Workers
	}
	if set["out"] {
		cfg.Output.Dir = *f.Out
	}
	if set["format"] {
		cfg.Output.Format = *f.Format
	}
	if set["key"] {
		cfg.Output.Key = *f.Key
	}
	if set["prefix"] {
		cfg.Output.Prefix = *f.Prefix
	}
	if set["triple"] {
		cfg.Slice.TriplePoints = *f.Triple
	}
	if set["log"] {
		cfg.Logging.LogFile = *f.LogFile
	}
}
