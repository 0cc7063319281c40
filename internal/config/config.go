package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host       string     `koanf:"host"`
	Database   Database   `koanf:"db"`
	Distance   Distance   `koanf:"distance"`
	Settlement Settlement `koanf:"settlement"`
}

// Distance configures the external route distance provider.
type Distance struct {
	BaseUrl        string `koanf:"baseurl"`
	ApiKey         string `koanf:"apikey"`
	TimeoutSeconds int    `koanf:"timeoutseconds"`
}

type Settlement struct {
	// RatesDir holds one YAML rate table per calendar year (e.g. 2025.yaml).
	RatesDir string `koanf:"ratesdir"`
	// DefaultEligibilityMode seeds the eligibility mode before an admin sets one.
	DefaultEligibilityMode string `koanf:"defaulteligibilitymode"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Host: "http://localhost:8191",
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "jeongsan",
			Pass:   "",
			Name:   "jeongsan",
			Schema: "jeongsan",
		},
		Distance: Distance{
			TimeoutSeconds: 10,
		},
		Settlement: Settlement{
			RatesDir:               "config/rates",
			DefaultEligibilityMode: "ONLY_CONFIRMED_ENDED",
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "JEONGSAN_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "JEONGSAN_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
