package prompt

// Config describes a prompt definition loaded from markdown front matter.
type Config struct {
	Slug           string    `yaml:"slug" json:"slug"`
	Name           string    `yaml:"name,omitempty" json:"name,omitempty"`
	Description    string    `yaml:"description,omitempty" json:"description,omitempty"`
	Version        string    `yaml:"version,omitempty" json:"version,omitempty"`
	Updated        string    `yaml:"updated,omitempty" json:"updated,omitempty"`
	Input          InputSpec `yaml:"input,omitempty" json:"input,omitempty"`
	SystemTemplate string    `yaml:"system_template,omitempty" json:"system_template,omitempty"`
}

// InputSpec defines prompt input requirements.
type InputSpec struct {
	AcceptsImages bool     `yaml:"accepts_images,omitempty" json:"accepts_images,omitempty"`
	ImageTypes    []string `yaml:"image_types,omitempty" json:"image_types,omitempty"`
	MaxImages     int      `yaml:"max_images,omitempty" json:"max_images,omitempty"`
}

// Prompt wraps a validated prompt configuration with its source.
type Prompt struct {
	Config Config
	Source string
}

// System returns the system instruction text.
func (p *Prompt) System() string {
	if p == nil {
		return ""
	}
	return p.Config.SystemTemplate
}
