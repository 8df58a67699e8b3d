package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docassist/docassist/internal/api"
	"github.com/docassist/docassist/internal/config"
	"github.com/docassist/docassist/internal/state"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage docassist configuration",
		Long: `Configuration management commands for docassist.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test the backend connection
  path  - Show configuration file paths`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for docassist.

Settings are saved to config.csv and preferences in the config
directory. The session token is never stored there; use 'docassist login'.

Use --force to overwrite an existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			out := stdout(cmd)
			configPath := e.configPath

			if !force {
				if _, err := os.Stat(configPath); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", configPath)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			fmt.Fprintln(out, "docassist Configuration Setup")
			fmt.Fprintln(out, "=============================")
			fmt.Fprintln(out)

			p := newPrompter(cmd.InOrStdin(), out)
			cfg := config.Defaults()
			prefs := config.NewPreferences()

			ask := func(label, def string) (string, error) {
				v, err := p.line(fmt.Sprintf("%s [%s]: ", label, def))
				if err != nil || v == "" {
					return def, err
				}
				return v, nil
			}

			if cfg.APIBaseURL, err = ask("API Base URL", cfg.APIBaseURL); err != nil {
				return err
			}
			if prefs.Output, err = ask("Default output (table, json, yaml)", prefs.Output); err != nil {
				return err
			}
			if prefs.FolderPolicy, err = ask("Folder policy for 'stage add' (folder, flat)", prefs.FolderPolicy); err != nil {
				return err
			}
			prefs.Output = strings.ToLower(prefs.Output)
			prefs.FolderPolicy = strings.ToLower(prefs.FolderPolicy)
			if _, err := state.ParseFolderPolicy(prefs.FolderPolicy); err != nil {
				return err
			}
			if err := prefs.Validate(); err != nil {
				return err
			}

			markdown, err := ask("Render answers as markdown (true, false)", strconv.FormatBool(cfg.RenderMarkdown))
			if err != nil {
				return err
			}
			cfg.RenderMarkdown = markdown == "true" || markdown == "1" || markdown == "yes"

			fmt.Fprintln(out)
			useProxy, err := p.confirm("Configure proxy?")
			if err != nil {
				return err
			}
			cfg.ProxyMode = "no-proxy"
			if useProxy {
				fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
				if cfg.ProxyMode, err = ask("Proxy mode", "system"); err != nil {
					return err
				}
				if cfg.ProxyMode == "basic" || cfg.ProxyMode == "ntlm" {
					if cfg.ProxyHost, err = p.line("Proxy host: "); err != nil {
						return err
					}
					port, err := ask("Proxy port", "8080")
					if err != nil {
						return err
					}
					if v, err := strconv.Atoi(port); err == nil && v > 0 {
						cfg.ProxyPort = v
					}
					if cfg.ProxyUser, err = p.line("Proxy user (optional): "); err != nil {
						return err
					}
				}
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.SaveConfigCSV(cfg, configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			if err := config.SavePreferences(prefs, ""); err != nil {
				return fmt.Errorf("failed to save preferences: %w", err)
			}
			e.logger.Info().Str("path", configPath).Msg("Configuration saved")

			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", configPath)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next: log in with 'docassist login', then check with 'docassist config test'.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the merged configuration.

Priority: flags > environment (DOCASSIST_API_URL, DOCASSIST_TOKEN) >
token file > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			cfg, prefs := e.cfg, e.prefs
			out := stdout(cmd)

			fmt.Fprintln(out, headingStyle.Render("Backend"))
			fmt.Fprintf(out, "  API Base URL:    %s\n", cfg.APIBaseURL)
			if cfg.Token != "" {
				fmt.Fprintf(out, "  Session token:   <set (%d chars)>\n", len(cfg.Token))
			} else {
				fmt.Fprintln(out, "  Session token:   <not set>")
			}
			fmt.Fprintf(out, "  Max retries:     %d\n", cfg.MaxRetries)
			fmt.Fprintf(out, "  Request timeout: %s\n", cfg.RequestTimeout)
			fmt.Fprintln(out)

			fmt.Fprintln(out, headingStyle.Render("Proxy"))
			fmt.Fprintf(out, "  Mode: %s\n", cfg.ProxyMode)
			if cfg.ProxyHost != "" {
				fmt.Fprintf(out, "  Host: %s:%d\n", cfg.ProxyHost, cfg.ProxyPort)
			}
			if cfg.NoProxy != "" {
				fmt.Fprintf(out, "  No proxy: %s\n", cfg.NoProxy)
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, headingStyle.Render("Uploads"))
			fmt.Fprintf(out, "  Inter-request delay: %s\n", cfg.InterRequestDelay)
			fmt.Fprintf(out, "  Display reset delay: %s\n", cfg.DisplayResetDelay)
			fmt.Fprintf(out, "  Folder policy:       %s\n", prefs.FolderPolicy)
			fmt.Fprintln(out)

			fmt.Fprintln(out, headingStyle.Render("Output"))
			fmt.Fprintf(out, "  Format:          %s\n", prefs.Output)
			fmt.Fprintf(out, "  Render markdown: %t\n", cfg.RenderMarkdown)
			fmt.Fprintf(out, "  Log to file:     %t\n", cfg.LogToFile)
			fmt.Fprintf(out, "  Local store:     %s\n", cfg.ResolveStorePath())
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Configuration file: %s\n", e.configPath)
			if _, err := os.Stat(e.configPath); os.IsNotExist(err) {
				fmt.Fprintln(out, "  (file does not exist - using defaults)")
			}
			return nil
		},
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the backend connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			out := stdout(cmd)

			if err := e.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			fmt.Fprintf(out, "API URL: %s\n", e.cfg.APIBaseURL)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			user, err := e.client.CurrentUser(ctx)
			switch {
			case err == nil:
				fmt.Fprintln(out, "✓ Connection SUCCESSFUL")
				fmt.Fprintf(out, "  Logged in as: %s\n", user.Username)
				return nil
			case api.IsUnauthorized(err):
				fmt.Fprintln(out, "✓ Backend reachable")
				fmt.Fprintln(out, "  Not logged in. Run 'docassist login'.")
				return nil
			default:
				e.logger.Error().Err(err).Msg("Connection test failed")
				fmt.Fprintln(out, "✗ Connection FAILED")
				fmt.Fprintf(out, "  Error: %s\n", api.ErrorMessage(err))
				return fmt.Errorf("connection test failed")
			}
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			out := stdout(cmd)

			prefsPath, _ := config.DefaultPreferencesPath()
			for _, p := range []struct{ label, path string }{
				{"Config", e.configPath},
				{"Preferences", prefsPath},
				{"Token", config.GetDefaultTokenPath()},
				{"Local store", e.cfg.ResolveStorePath()},
				{"Logs", config.LogDirectory()},
			} {
				status := "missing"
				if _, err := os.Stat(p.path); err == nil {
					status = "exists"
				}
				fmt.Fprintf(out, "%-12s %s (%s)\n", p.label+":", p.path, status)
			}
			return nil
		},
	}
}
