package chats

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var knowledgeYAML []byte

// Prompt is the fixed system instruction sent with every message.
type Prompt struct {
	Name      string   `yaml:"name"`
	Rules     []string `yaml:"model_rules"`
	Knowledge string   `yaml:"knowledge"`
}

// DefaultPrompt parses the embedded knowledge base.
func DefaultPrompt() (Prompt, error) {
	return ParsePrompt(knowledgeYAML)
}

func ParsePrompt(b []byte) (Prompt, error) {
	var p Prompt
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Prompt{}, fmt.Errorf("chats.ParsePrompt: %w", err)
	}
	if strings.TrimSpace(p.Knowledge) == "" {
		return Prompt{}, fmt.Errorf("chats.ParsePrompt: knowledge base is empty")
	}
	return p, nil
}

// SystemInstruction renders the prompt as a single block of text.
func (p Prompt) SystemInstruction() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s, a helpful guide for the HackConnect web3 hackathon platform.\n", p.Name)
	for _, r := range p.Rules {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteByte('\n')
	}
	b.WriteString("\nHere is the knowledge base:\n")
	b.WriteString(p.Knowledge)
	return b.String()
}
