package configure

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func checkErr(err error) {
	if err != nil {
		zap.S().Fatalw("config",
			"error", err,
		)
	}
}

func New() *Config {
	initLogging("info")

	config := viper.New()

	// Default config
	b, _ := json.Marshal(Config{
		ConfigFile: "config.yaml",
	})
	tmp := viper.New()
	defaultConfig := bytes.NewReader(b)

	tmp.SetConfigType("json")
	checkErr(tmp.ReadConfig(defaultConfig))
	checkErr(config.MergeConfigMap(viper.AllSettings()))

	pflag.String("config", "config.yaml", "Config file location")
	pflag.Bool("noheader", false, "Disable the startup header")

	pflag.Parse()
	checkErr(config.BindPFlags(pflag.CommandLine))

	// File
	config.SetConfigFile(config.GetString("config"))
	config.AddConfigPath(".")

	if err := config.ReadInConfig(); err == nil {
		checkErr(config.MergeInConfig())
	}

	bindEnvs(config, Config{})

	// Environment
	config.AutomaticEnv()
	config.SetEnvPrefix("COLLAB")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AllowEmptyEnv(true)

	// Print final config
	c := &Config{}
	checkErr(config.Unmarshal(&c))

	initLogging(c.Level)

	return c
}

func bindEnvs(config *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)

	for i := 0; i < ift.NumField(); i++ {
		v := ifv.Field(i)
		t := ift.Field(i)

		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}

		switch v.Kind() {
		case reflect.Struct:
			bindEnvs(config, v.Interface(), append(parts, tv)...)
		default:
			_ = config.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

type TransportMode string

const (
	TransportModeRedis TransportMode = "REDIS"
	TransportModeNats  TransportMode = "NATS"
)

type Config struct {
	Level      string `mapstructure:"level" json:"level"`
	ConfigFile string `mapstructure:"config" json:"config"`
	NoHeader   bool   `mapstructure:"noheader" json:"noheader"`

	Collab struct {
		ProjectID   string `mapstructure:"project_id" json:"project_id"`
		ShowViewers bool   `mapstructure:"show_viewers" json:"show_viewers"`
	} `mapstructure:"collab" json:"collab"`

	Backend struct {
		URL         string `mapstructure:"url" json:"url"`
		Token       string `mapstructure:"token" json:"token"`
		TokenSecret string `mapstructure:"token_secret" json:"token_secret"`
	} `mapstructure:"backend" json:"backend"`

	Transport struct {
		Mode TransportMode `mapstructure:"mode" json:"mode"`
	} `mapstructure:"transport" json:"transport"`

	Redis struct {
		Username  string   `mapstructure:"username" json:"username"`
		Password  string   `mapstructure:"password" json:"password"`
		Database  int      `mapstructure:"db" json:"db"`
		Addresses []string `mapstructure:"addresses" json:"addresses"`
	} `mapstructure:"redis" json:"redis"`

	Nats struct {
		URL string `mapstructure:"url" json:"url"`
	} `mapstructure:"nats" json:"nats"`

	Health struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Bind    string `mapstructure:"bind" json:"bind"`
	} `mapstructure:"health" json:"health"`

	Monitoring struct {
		Enabled bool              `mapstructure:"enabled" json:"enabled"`
		Bind    string            `mapstructure:"bind" json:"bind"`
		Labels  map[string]string `mapstructure:"labels" json:"labels"`
	} `mapstructure:"monitoring" json:"monitoring"`

	PProf struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Bind    string `mapstructure:"bind" json:"bind"`
	} `mapstructure:"pprof" json:"pprof"`
}
