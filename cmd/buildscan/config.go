// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/malterlib/buildscan/internal/config"
)

// newConfigCommand creates the `buildscan config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage buildscan configuration",
		Long: `Manage buildscan configuration.

Configuration is stored in:
  - Linux: ~/.config/buildscan/config.cue
  - macOS: ~/Library/Application Support/buildscan/config.cue
  - Windows: %APPDATA%\buildscan\config.cue

Every value can be overridden with a BUILDSCAN_* environment variable, for
example BUILDSCAN_LOG_LEVEL=debug or BUILDSCAN_WATCH_DEBOUNCE=1s.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			return app.fail(cmd, flags, showConfig(cmd.OutOrStdout(), flags, cfg))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return app.fail(cmd, flags, fmt.Errorf("failed to create config: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.FilePath(config.LoadOptions{ConfigFilePath: flags.configPath})
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config directory: %s\n", filepath.Dir(path))
			fmt.Fprintf(out, "Config file: %s\n", path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, flags *rootFlagValues, cfg *config.Config) error {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	value := func(v any) string { return valueStyle.Render(fmt.Sprint(v)) }

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path, err := config.FilePath(config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("log_level"), value(cfg.LogLevel))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("require_project_marker"), value(cfg.RequireProjectMarker))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("descriptor_cache_size"), value(cfg.DescriptorCacheSize))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("watch"))
	fmt.Fprintf(w, "  debounce: %s\n", value(cfg.Watch.Debounce))
	if len(cfg.Watch.Ignore) == 0 {
		fmt.Fprintf(w, "  ignore: %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		fmt.Fprintf(w, "  ignore: %s\n", value(strings.Join(cfg.Watch.Ignore, ", ")))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("metrics"))
	if cfg.Metrics.Address == "" {
		fmt.Fprintf(w, "  address: %s\n", SubtitleStyle.Render("(disabled)"))
	} else {
		fmt.Fprintf(w, "  address: %s\n", value(cfg.Metrics.Address))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", value(cfg.UI.ColorScheme))
	fmt.Fprintf(w, "  verbose: %s\n", value(cfg.UI.Verbose))

	return nil
}
