package config

// Config 服务与客户端运行所需的完整配置。
// 功能：承载任务服务监听地址、任务接口地址、轮询参数、存储与日志配置。
type Config struct {
	Listen         string `yaml:"listen"`         // 任务服务监听地址，例如 127.0.0.1:5000
	BaseURL        string `yaml:"baseURL"`        // 客户端访问的服务地址，例如 http://127.0.0.1:5000
	PollIntervalMS int    `yaml:"pollIntervalMS"` // 轮询周期（毫秒）
	AutoRefresh    *bool  `yaml:"autoRefresh"`    // 完成后是否刷新，缺省为 true
	HTTPTimeoutMS  int    `yaml:"httpTimeoutMS"`  // 客户端请求超时（毫秒），0 表示不设

	Log struct {
		Level  string `yaml:"level"`  // debug/info/warn/error
		Format string `yaml:"format"` // text/json
	} `yaml:"log"`

	Storage struct {
		Driver     string `yaml:"driver"` // memory/sqlite/redis
		SQLitePath string `yaml:"sqlitePath"`
		RedisURL   string `yaml:"redisURL"`
	} `yaml:"storage"`

	Jobs struct {
		RetentionMinutes int `yaml:"retentionMinutes"`
		JanitorSeconds   int `yaml:"janitorSeconds"`
	} `yaml:"jobs"`
}

// withDefaults 填充默认值。
func (c *Config) withDefaults() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:5000"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://" + c.Listen
	}
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = 2000
	}
	if c.AutoRefresh == nil {
		on := true
		c.AutoRefresh = &on
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "booklamp.db"
	}
	if c.Jobs.RetentionMinutes <= 0 {
		c.Jobs.RetentionMinutes = 60
	}
	if c.Jobs.JanitorSeconds <= 0 {
		c.Jobs.JanitorSeconds = 60
	}
}
