package artifact

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// defaultYAML is the artifact shipped with the binary.
//
//go:embed default.yaml
var defaultYAML []byte

// Load reads an artifact from a YAML (or JSON) file and validates it.
func Load(_ context.Context, path string) (*ModelArtifact, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrLoadArtifact)
	}
	return parse(file.Provider(path), path)
}

// Default returns the embedded artifact.
func Default(_ context.Context) (*ModelArtifact, error) {
	return parse(rawbytes.Provider(defaultYAML), "embedded default")
}

// Parse builds an artifact from raw YAML bytes.
func Parse(_ context.Context, data []byte) (*ModelArtifact, error) {
	return parse(rawbytes.Provider(data), "inline")
}

func parse(p koanf.Provider, source string) (*ModelArtifact, error) {
	k := koanf.New(".")
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadArtifact, source, err)
	}

	var a ModelArtifact
	if err := k.UnmarshalWithConf("", &a, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadArtifact, source, err)
	}
	if a.Model.Link == "" {
		a.Model.Link = LinkIdentity
	}
	for i := range a.Numeric {
		if a.Numeric[i].Scaler == "" {
			a.Numeric[i].Scaler = ScalerNone
		}
	}

	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &a, nil
}
