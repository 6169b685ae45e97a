package main

import (
	"github.com/spf13/cobra"

	"github.com/chronica-app/chronica/internal/client"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "chronica",
		Short:         "Keep a journal of entries with photos, voice clips and places",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "configuration file path")

	rootCmd.AddCommand(newRegisterCommand(ctx))
	rootCmd.AddCommand(newLoginCommand(ctx))
	rootCmd.AddCommand(newLogoutCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newEditCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newAudioCommand(ctx))
	rootCmd.AddCommand(newMapCommand(ctx))
	rootCmd.AddCommand(newLocateCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))

	return rootCmd
}

// commandContext carries lazily-loaded config and session state between
// commands.
type commandContext struct {
	configFlag *string

	cfg    *client.Config
	tokens *client.TokenStore
}

func (c *commandContext) config() (client.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := client.LoadConfig(*c.configFlag)
	if err != nil {
		return client.Config{}, err
	}
	c.cfg = &cfg
	return cfg, nil
}

func (c *commandContext) tokenStore() *client.TokenStore {
	if c.tokens == nil {
		c.tokens = client.NewTokenStore("")
	}
	return c.tokens
}

// anonAPI builds a client without a session, for the auth commands.
func (c *commandContext) anonAPI() (*client.API, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return client.NewAPI(cfg.ServerURL, "", cfg.Timeout()), nil
}

// api builds a client with the stored session token.
func (c *commandContext) api() (*client.API, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	tok, _, err := c.tokenStore().Load()
	if err != nil {
		return nil, err
	}
	return client.NewAPI(cfg.ServerURL, tok, cfg.Timeout()), nil
}
