package config

import (
	"context"
	"os"
	"strings"

	vault "github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
)

type VaultConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"VAULT_ENABLED"`
	Address   string `yaml:"address" envconfig:"VAULT_ADDR"`
	Token     string `yaml:"token" envconfig:"VAULT_TOKEN"`
	TokenPath string `yaml:"token_path" envconfig:"VAULT_TOKEN_PATH"`
	Namespace string `yaml:"namespace" envconfig:"VAULT_NAMESPACE"`
	Mount     string `yaml:"mount" envconfig:"VAULT_MOUNT"`
}

func (c VaultConfig) GetVaultToken() (string, error) {
	if c.Token != "" {
		return c.Token, nil
	}

	if c.TokenPath != "" {
		token, err := os.ReadFile(c.TokenPath)
		if err != nil {
			return "", errors.WithMessage(err, "read vault token file")
		}
		return strings.TrimSpace(string(token)), nil
	}

	return "", errors.New("vault token is not configured")
}

// SecretReader reads a KV secret. *VaultClient implements it.
type SecretReader interface {
	GetSecret(ctx context.Context, path string) (map[string]any, error)
}

type VaultClient struct {
	client *vault.Client
	mount  string
}

// NewVaultClient returns nil, nil when vault is disabled.
func NewVaultClient(cfg VaultConfig) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	vaultCfg := vault.DefaultConfig()
	vaultCfg.Address = cfg.Address
	client, err := vault.NewClient(vaultCfg)
	if err != nil {
		return nil, errors.WithMessage(err, "create vault client")
	}

	token, err := cfg.GetVaultToken()
	if err != nil {
		return nil, err
	}
	client.SetToken(token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	return &VaultClient{
		client: client,
		mount:  cfg.Mount,
	}, nil
}

func (vc *VaultClient) GetSecret(ctx context.Context, path string) (map[string]any, error) {
	if vc == nil {
		return nil, errors.New("vault client is not initialized")
	}

	secret, err := vc.client.KVv2(vc.mount).Get(ctx, path)
	if err != nil {
		return nil, errors.WithMessagef(err, "read secret '%s'", path)
	}
	if secret == nil || secret.Data == nil {
		return nil, errors.Errorf("secret '%s' not found", path)
	}
	return secret.Data, nil
}

// ApplyVaultSecrets overrides AMQP credentials with the secret at cfg.AMQP.VaultPath.
// Keys: username, password and optionally host.
func ApplyVaultSecrets(ctx context.Context, cfg *Config, secrets SecretReader) error {
	if secrets == nil || cfg.AMQP.VaultPath == "" {
		return nil
	}

	secret, err := secrets.GetSecret(ctx, cfg.AMQP.VaultPath)
	if err != nil {
		return errors.WithMessage(err, "get amqp credentials")
	}

	if username, ok := secret["username"].(string); ok && username != "" {
		cfg.AMQP.User = username
	}
	if password, ok := secret["password"].(string); ok && password != "" {
		cfg.AMQP.Password = password
	}
	if host, ok := secret["host"].(string); ok && host != "" {
		cfg.AMQP.Host = host
	}
	return nil
}
