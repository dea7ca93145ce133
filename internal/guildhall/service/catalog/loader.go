package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

const frontMatterDelim = "---"

// frontMatter is the YAML header of an agent definition file. Everything
// after the closing delimiter is the agent's system prompt.
type frontMatter struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Model       string   `yaml:"model"`
	Tools       []string `yaml:"tools"`
	Temperature *float64 `yaml:"temperature"`
	MaxTurns    *int     `yaml:"max_turns"`
}

// parseDefinition turns one definition file into a descriptor. The name
// defaults to the file name when the front matter does not set one.
func parseDefinition(path, namespace string, data []byte, loadedAt time.Time) (*entity.AgentDescriptor, error) {
	header, body, err := splitFrontMatter(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, fmt.Errorf("%s: parse front matter: %w", path, err)
	}

	name := fm.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".md")
	}
	if strings.Contains(name, "/") {
		return nil, fmt.Errorf("%s: agent name %q must not contain '/'", path, name)
	}

	return &entity.AgentDescriptor{
		Name:         name,
		Namespace:    namespace,
		Description:  fm.Description,
		Model:        fm.Model,
		Tools:        fm.Tools,
		Temperature:  fm.Temperature,
		MaxTurns:     fm.MaxTurns,
		SystemPrompt: strings.TrimSpace(body),
		Source:       path,
		LoadedAt:     loadedAt,
	}, nil
}

// splitFrontMatter separates the YAML header from the markdown body. The
// header must open the file and close with a bare delimiter line.
func splitFrontMatter(content string) (header, body string, err error) {
	if !strings.HasPrefix(content, frontMatterDelim+"\n") {
		return "", "", fmt.Errorf("missing front matter opening %q", frontMatterDelim)
	}
	rest := content[len(frontMatterDelim)+1:]

	if idx := strings.Index(rest, "\n"+frontMatterDelim+"\n"); idx >= 0 {
		return rest[:idx], rest[idx+len(frontMatterDelim)+2:], nil
	}
	if strings.HasSuffix(rest, "\n"+frontMatterDelim) {
		return rest[:len(rest)-len(frontMatterDelim)-1], "", nil
	}
	return "", "", fmt.Errorf("missing front matter closing %q", frontMatterDelim)
}

// scanDir loads every definition under dir. Files at the root belong to
// defaultNamespace; files one directory deep belong to that directory.
// Unparseable files are skipped with a warning so one bad definition never
// takes the whole catalog down.
func scanDir(dir, defaultNamespace string, warn func(format string, args ...interface{})) map[string]*entity.AgentDescriptor {
	agents := make(map[string]*entity.AgentDescriptor)
	loadedAt := time.Now()

	loadFile := func(path, namespace string) {
		data, err := os.ReadFile(path)
		if err != nil {
			warn("could not read agent definition %s: %v", path, err)
			return
		}
		agent, err := parseDefinition(path, namespace, data, loadedAt)
		if err != nil {
			warn("skipping agent definition: %v", err)
			return
		}
		if prev, ok := agents[agent.Qualified()]; ok {
			warn("agent %s from %s shadows %s", agent.Qualified(), path, prev.Source)
		}
		agents[agent.Qualified()] = agent
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		warn("could not read catalog directory %s: %v", dir, err)
		return agents
	}
	for _, e := range entries {
		if !e.IsDir() {
			if strings.HasSuffix(e.Name(), ".md") {
				loadFile(filepath.Join(dir, e.Name()), defaultNamespace)
			}
			continue
		}
		subdir := filepath.Join(dir, e.Name())
		subEntries, err := os.ReadDir(subdir)
		if err != nil {
			warn("could not read catalog namespace %s: %v", subdir, err)
			continue
		}
		for _, se := range subEntries {
			if se.IsDir() || !strings.HasSuffix(se.Name(), ".md") {
				continue
			}
			loadFile(filepath.Join(subdir, se.Name()), e.Name())
		}
	}
	return agents
}
