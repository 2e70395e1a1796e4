package utils

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
)

type SSLMode string

const (
	SSLModeDisable    SSLMode = "disable"
	SSLModeRequire    SSLMode = "require"
	SSLModeVerifyCA   SSLMode = "verify-ca"
	SSLModeVerifyFull SSLMode = "verify-full"
)

type SSLConfig struct {
	Mode       SSLMode `json:"mode,omitempty"`
	ServerCA   string  `json:"server_ca,omitempty"`
	ClientCert string  `json:"client_cert,omitempty"`
	ClientKey  string  `json:"client_key,omitempty"`
}

func (c *SSLConfig) Validate() error {
	switch c.Mode {
	case SSLModeDisable, SSLModeRequire:
		return nil
	case SSLModeVerifyCA, SSLModeVerifyFull:
		if c.ServerCA == "" {
			return fmt.Errorf("ssl mode %s requires a server CA certificate", c.Mode)
		}
		return nil
	case "":
		return nil
	default:
		return fmt.Errorf("unknown ssl mode: %s", c.Mode)
	}
}

// SSHConfig describes an optional bastion hop in front of the database.
type SSHConfig struct {
	Host       string `json:"host,omitempty"`
	Port       int    `json:"port,omitempty"`
	Username   string `json:"username,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
	Password   string `json:"password,omitempty"`
}

func (c *SSHConfig) Validate() error {
	if c.Host == "" {
		return errors.New("ssh host is required")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("invalid ssh port number: must be between 1 and 65535")
	}

	if c.Username == "" {
		return errors.New("ssh username is required")
	}

	if c.PrivateKey == "" && c.Password == "" {
		return errors.New("private key or password is required")
	}

	return nil
}

// Connect dials the bastion and returns a client whose Dial method reaches
// hosts visible from the bastion's network.
func (c *SSHConfig) Connect() (*ssh.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate ssh config: %s", err)
	}

	var authMethods []ssh.AuthMethod
	if c.Password != "" {
		authMethods = append(authMethods, ssh.Password(c.Password))
	}
	if c.PrivateKey != "" {
		signer, err := parsePrivateKey(c.PrivateKey, c.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH private key: %s", err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	sshCfg := &ssh.ClientConfig{
		User: c.Username,
		Auth: authMethods,
		// TODO: Add proper host key verification
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // #nosec G106
		Timeout:         30 * time.Second,
	}

	bastionAddr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	sshClient, err := ssh.Dial("tcp", bastionAddr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("ssh dial bastion: %s", err)
	}

	return sshClient, nil
}

func parsePrivateKey(pemText, passphrase string) (ssh.Signer, error) {
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase([]byte(pemText), []byte(passphrase))
	}

	signer, err := ssh.ParsePrivateKey([]byte(pemText))
	if err == nil {
		return signer, nil
	}
	if _, ok := err.(*ssh.PassphraseMissingError); ok {
		return nil, fmt.Errorf("SSH private key appears encrypted, enter the passphrase")
	}
	return nil, err
}
