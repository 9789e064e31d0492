package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/fbmeta/database"
	"github.com/ridoystarlord/fbmeta/utils"
)

const DefaultFile = "fbmeta.yaml"

// Config holds the settings used to create and reach a Firebird database.
// New databases always get page size 4096 and SQL dialect 3 from the driver.
type Config struct {
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Charset      string `yaml:"charset"`
	DatabaseFile string `yaml:"database_file"`
}

func Default() Config {
	return Config{
		User:         "SYSDBA",
		Password:     "masterkey",
		Host:         "localhost",
		Port:         3050,
		Charset:      "UTF8",
		DatabaseFile: "new_database.fdb",
	}
}

// Load returns the defaults overlaid with the YAML file at path, when it
// exists, and then with FIREBIRD_* environment variables (.env included).
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("unmarshalling %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	utils.LoadEnv()
	cfg.User = utils.GetEnv("FIREBIRD_USER", cfg.User)
	cfg.Password = utils.GetEnv("FIREBIRD_PASSWORD", cfg.Password)
	cfg.Host = utils.GetEnv("FIREBIRD_HOST", cfg.Host)
	cfg.Port = utils.GetEnvInt("FIREBIRD_PORT", cfg.Port)
	cfg.Charset = utils.GetEnv("FIREBIRD_CHARSET", cfg.Charset)

	return cfg, nil
}

// DSN returns the driver DSN for the database file at dbPath.
func (c Config) DSN(dbPath string) string {
	params := url.Values{}
	if c.Charset != "" {
		params.Set("charset", c.Charset)
	}
	return database.DSN(c.User, c.Password, c.Host, c.Port, dbPath, params)
}

// Save writes c as YAML. An existing file is not overwritten.
func (c Config) Save(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	content := "# fbmeta connection settings. FIREBIRD_* environment variables override them.\n" + string(data)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (c Config) String() string {
	return c.User + "@" + c.Host + ":" + strconv.Itoa(c.Port)
}
