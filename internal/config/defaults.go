package config

const (
	defaultConfigPath      = "~/.config/aircheq-podcast/config.toml"
	systemConfigPath       = "/etc/aircheq-podcast/config.toml"
	legacyConfigPath       = "/etc/aircheq-podcast/config.json"
	projectConfigName      = "aircheq-podcast.toml"
	defaultURLRoot         = "http://127.0.0.1/"
	defaultLogDir          = "~/.local/share/aircheq-podcast/logs"
	defaultOwner           = "nginx"
	defaultFeedTitle       = "aircheq-podcast"
	defaultFeedDescription = "aircheq podcast server"
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultNotifyTimeout   = 10
)

// defaultQueries seeds a fresh configuration with the programs the recorder
// has historically been pointed at.
var defaultQueries = []string{
	"オードリー",
	"深夜の馬鹿力",
	"カーボーイ",
	"佐久間宣行",
	"ハライチ",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	queries := make([]string, len(defaultQueries))
	copy(queries, defaultQueries)
	return Config{
		Query: queries,
		Paths: Paths{
			URLRoot: defaultURLRoot,
			LogDir:  defaultLogDir,
		},
		Publish: Publish{
			Owner:           defaultOwner,
			FeedTitle:       defaultFeedTitle,
			FeedDescription: defaultFeedDescription,
			PruneStale:      true,
		},
		Convert: Convert{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			VerifyOutput:  true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunSummary:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
