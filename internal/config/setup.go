package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FirstRunSetup prompts the user for initial configuration values when no
// config file is found. It takes an input reader and output writer for
// flexibility (e.g., testing). Invalid or empty inputs retain the defaults.
// The returned Config should be persisted by the caller.
func FirstRunSetup(reader *bufio.Reader, writer io.Writer) (Config, error) {
	_, _ = fmt.Fprintln(writer, "Configuration file not found. Let's set up some defaults.")
	cfg := DefaultConfig()

	// Stale threshold
	_, _ = fmt.Fprintf(writer,
		"Enter the age (in days) after which a branch counts as stale [%d]: ", defaultStaleDays)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input != "" {
		age, err := strconv.Atoi(input)
		if err != nil || age <= 0 {
			_, _ = fmt.Fprintf(writer, "Invalid input. Using default: %d days.\n", defaultStaleDays)
		} else {
			cfg.StaleDays = age
		}
	}

	// Base branch
	_, _ = fmt.Fprintf(writer,
		"Enter the name of your base branch (e.g., main, master) [%s]: ", defaultBaseBranch)
	input, _ = reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input != "" {
		cfg.BaseBranch = input
	}

	// Protected branches
	_, _ = fmt.Fprint(writer, "Enter any branches to protect from deletion ")
	_, _ = fmt.Fprintln(writer, "(comma-separated, e.g., develop,release):")
	input, _ = reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input != "" {
		protected := strings.Split(input, ",")
		cfg.ProtectedBranches = make([]string, 0, len(protected))
		for _, p := range protected {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cfg.ProtectedBranches = append(cfg.ProtectedBranches, trimmed)
			}
		}
	}

	// Gone-branch response mode
	_, _ = fmt.Fprintf(writer,
		"How should deleted upstream branches be handled? (auto/notify/prompt) [%s]: ", GonePrompt)
	input, _ = reader.ReadString('\n')
	switch GoneResponse(strings.TrimSpace(input)) {
	case GoneAuto:
		cfg.GoneResponse = GoneAuto
	case GoneNotify:
		cfg.GoneResponse = GoneNotify
	case GonePrompt, "":
		cfg.GoneResponse = GonePrompt
	default:
		_, _ = fmt.Fprintf(writer, "Invalid input. Using default: %s.\n", GonePrompt)
	}

	cfg.ProtectedBranchMap = make(map[string]bool)
	for _, branch := range cfg.ProtectedBranches {
		cfg.ProtectedBranchMap[branch] = true
	}

	_, _ = fmt.Fprintln(writer, "\nConfiguration setup complete.")
	// The caller is responsible for saving this config and informing the user.

	return cfg, nil
}
