package email

import "github.com/bloomandco/automation/pkg/capability"

// Factory creates email.send capability instances.
type Factory struct {
	sender Sender
}

// NewFactory creates a factory delivering through the given sender.
func NewFactory(sender Sender) *Factory {
	return &Factory{sender: sender}
}

func (f *Factory) ID() string {
	return "email.send"
}

func (f *Factory) Description() string {
	return "Sends a transactional email through the mail gateway."
}

func (f *Factory) Create(_ map[string]any) (capability.Capability, error) {
	return &Capability{sender: f.sender}, nil
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient address. Supports templating against the run context.",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Subject line. Supports templating.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Plain-text body. Supports templating.",
			},
		},
		"required": []string{"to", "subject"},
	}
}
