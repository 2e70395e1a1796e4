package postgres

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/utils"
)

type Config struct {
	Connection         *url.URL          `json:"-"`
	Host               string            `json:"host"`
	Port               int               `json:"port"`
	Database           string            `json:"database"`
	Username           string            `json:"username"`
	Password           string            `json:"password"`
	URLParams          map[string]string `json:"url_params"`
	SSLConfiguration   *utils.SSLConfig  `json:"ssl"`
	SSHConfig          *utils.SSHConfig  `json:"ssh_config"`
	RetryCount         int               `json:"retry_count"`
	MaintenanceWorkMem string            `json:"maintenance_work_mem"`
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("empty host name")
	} else if strings.Contains(c.Host, "https") || strings.Contains(c.Host, "http") {
		return fmt.Errorf("host should not contain http or https")
	}

	if c.Port == 0 {
		c.Port = constants.DefaultDBPort
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port number: must be between 1 and 65535")
	}

	if c.Database == "" {
		return fmt.Errorf("empty database name")
	}

	if c.RetryCount <= 0 {
		c.RetryCount = constants.DefaultRetryCount
	}
	if c.MaintenanceWorkMem == "" {
		c.MaintenanceWorkMem = "1GB"
	}

	if c.SSHConfig != nil {
		if err := c.SSHConfig.Validate(); err != nil {
			return fmt.Errorf("failed to validate ssh config: %s", err)
		}
	}

	// Add the connection parameters to the url
	parsed := &url.URL{
		Scheme: "postgres",
		User:   utils.Ternary(c.Password != "", url.UserPassword(c.Username, c.Password), url.User(c.Username)).(*url.Userinfo),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}

	query := parsed.Query()
	for key, value := range c.URLParams {
		query.Add(key, value)
	}

	if c.SSLConfiguration == nil {
		c.SSLConfiguration = &utils.SSLConfig{
			Mode: "disable",
		}
	}

	sslmode := string(c.SSLConfiguration.Mode)
	if sslmode != "" {
		query.Add("sslmode", sslmode)
	}

	if err := c.SSLConfiguration.Validate(); err != nil {
		return fmt.Errorf("failed to validate ssl config: %s", err)
	}

	if c.SSLConfiguration.ServerCA != "" {
		query.Add("sslrootcert", c.SSLConfiguration.ServerCA)
	}
	if c.SSLConfiguration.ClientCert != "" {
		query.Add("sslcert", c.SSLConfiguration.ClientCert)
	}
	if c.SSLConfiguration.ClientKey != "" {
		query.Add("sslkey", c.SSLConfiguration.ClientKey)
	}

	parsed.RawQuery = query.Encode()
	c.Connection = parsed

	return utils.Validate(c)
}
